package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"paydash/internal/core"
	ports "paydash/internal/sheets"
)

var _ ports.TableReader = (*Store)(nil)

// Store serves a table held in memory. It backs local development and tests.
type Store struct {
	mu    sync.Mutex
	table core.Table
	err   error
	reads int
}

func New(t core.Table) *Store {
	return &Store{table: cloneTable(t)}
}

// NewFromFile seeds the store from a CSV file. A missing file yields the
// built-in sample sheet.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(SampleTable()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	t, err := core.ParseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return New(t), nil
}

// SampleTable returns a small sheet shaped like the published payments export.
func SampleTable() core.Table {
	return core.Table{
		Header: []string{"Client Name", "Total Amount Paid (INR)", "Industry", "Gmail"},
		Rows: [][]string{
			{"Acme Corp", "₹1,25,000", "Technology", "billing@acme.example"},
			{"Sunrise Clinic", "₹48,500", "Healthcare", "accounts@sunrise.example"},
			{"Ledger & Co", "₹72,000", "Finance", "ops@ledger.example"},
			{"Bright Minds", "₹15,750", "Education", ""},
			{"Corner Mart", "₹9,900", "Retail", "owner@cornermart.example"},
			{"Nimbus Labs", "₹60,000", "Technology", ""},
		},
	}
}

// ReadTable returns a copy of the stored table, or the injected failure.
func (s *Store) ReadTable(ctx context.Context) (core.Table, error) {
	if err := ctx.Err(); err != nil {
		return core.Table{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return core.Table{}, s.err
	}
	return cloneTable(s.table), nil
}

// Set replaces the stored table and clears any injected failure.
func (s *Store) Set(t core.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = cloneTable(t)
	s.err = nil
}

// Fail makes subsequent reads return err until Set is called.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Reads reports how many times ReadTable was called.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Store) Describe() string { return "memory" }

func cloneTable(t core.Table) core.Table {
	out := core.Table{Header: append([]string(nil), t.Header...)}
	if len(t.Rows) > 0 {
		out.Rows = make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = append([]string(nil), r...)
		}
	}
	return out
}
