package binding

import "fieldbind/internal/convert"

// Config holds engine settings.
type Config struct {
	// MaxFlushIterations caps the change-handler flush loop.
	MaxFlushIterations int
	// DefaultResourceTable is used by resource references without a table.
	DefaultResourceTable string
	// StrictBindings makes callers that bind in bulk stop at the first
	// failing binding instead of reporting and continuing.
	StrictBindings bool
	// Categories selects the cross-kind conversions of the converter
	// registry the engine creates.
	Categories convert.CategoryEnum
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxFlushIterations:   64,
		DefaultResourceTable: "strings",
		StrictBindings:       false,
		Categories:           convert.CategoryAll,
	}
}
