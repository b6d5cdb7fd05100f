package sheets

import (
	"context"

	"paydash/internal/core"
)

// Ports for outbound adapters.
type (
	// TableReader acquires the payments sheet and parses it into a table.
	// Implementations return *core.FetchError for transport failures and
	// *core.ParseError for malformed content.
	TableReader interface {
		ReadTable(ctx context.Context) (core.Table, error)
	}

	// Describer is optionally implemented by readers to label their source in logs.
	Describer interface {
		Describe() string
	}
)

// Describe returns a log label for r.
func Describe(r TableReader) string {
	if d, ok := r.(Describer); ok {
		return d.Describe()
	}
	return "unknown"
}
