// Package exitcode defines process exit codes for the CLI.
package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	ModelLoadError  = 3
	PredictionError = 4
)
