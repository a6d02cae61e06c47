package features

import "encoding/json"

// Vector is an ordered mapping of column name to numeric value.
type Vector struct {
	names  []string
	values []float64
}

// NewVector pairs names with values. It panics when the lengths differ.
func NewVector(names []string, values []float64) Vector {
	if len(names) != len(values) {
		panic("features: names and values length mismatch")
	}
	return Vector{
		names:  append([]string(nil), names...),
		values: append([]float64(nil), values...),
	}
}

func (v Vector) Len() int { return len(v.names) }

// Names returns a copy of the column names in order.
func (v Vector) Names() []string { return append([]string(nil), v.names...) }

// Values returns a copy of the values in column order.
func (v Vector) Values() []float64 { return append([]float64(nil), v.values...) }

// Get returns the value of column name.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.names {
		if n == name {
			return v.values[i], true
		}
	}
	return 0, false
}

// Map returns the vector as a name to value map. Order is lost.
func (v Vector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.names))
	for i, n := range v.names {
		m[n] = v.values[i]
	}
	return m
}

// Equal reports whether both vectors have the same columns in the same order
// with the same values.
func (v Vector) Equal(o Vector) bool {
	if len(v.names) != len(o.names) {
		return false
	}
	for i := range v.names {
		if v.names[i] != o.names[i] || v.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

type column struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// MarshalJSON encodes the vector as an ordered list of name/value pairs.
func (v Vector) MarshalJSON() ([]byte, error) {
	cols := make([]column, len(v.names))
	for i := range v.names {
		cols[i] = column{Name: v.names[i], Value: v.values[i]}
	}
	return json.Marshal(cols)
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var cols []column
	if err := json.Unmarshal(data, &cols); err != nil {
		return err
	}
	v.names = make([]string, len(cols))
	v.values = make([]float64, len(cols))
	for i, c := range cols {
		v.names[i] = c.Name
		v.values[i] = c.Value
	}
	return nil
}
