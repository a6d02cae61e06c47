package estimate

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.English)

// FormatDays renders a length of stay as "3.00 Days".
func FormatDays(days float64) string {
	return fmt.Sprintf("%.2f Days", days)
}

// FormatUSD renders an amount rounded to whole dollars with thousands
// separators, e.g. "12,345 USD". Halves round to even.
func FormatUSD(amount float64) string {
	return usd.Sprintf("%d USD", int64(math.RoundToEven(amount)))
}
