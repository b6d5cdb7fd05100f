package backend

import (
	"context"

	"paydash/internal/sheets"
	gsheet "paydash/internal/sheets/google"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the reader instance and optional cleanup function
type BackendResult struct {
	Reader  sheets.TableReader
	Cleanup CleanupFunc
}

// Factory creates table readers based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// CSV export specific
	SourceURL    string
	MaxBodyBytes int64

	// Google Sheets specific
	Google gsheet.Config

	// Memory backend specific
	SeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
