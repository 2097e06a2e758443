package memory

import (
	"context"
	"fmt"
	"sync"

	"insight/internal/report"
)

// Store is an in-memory report sink used in tests and when no Sheets
// credentials are configured.
type Store struct {
	mu      sync.Mutex
	reports []report.Monthly
}

func New() *Store {
	return &Store{}
}

// WriteMonthly stores the report and returns a synthetic reference.
func (s *Store) WriteMonthly(_ context.Context, r report.Monthly) (string, error) {
	if r.Month < 1 || r.Month > 12 {
		return "", fmt.Errorf("invalid month: %d", r.Month)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return fmt.Sprintf("mem:%d", len(s.reports)), nil
}

// Reports returns a copy of everything written so far.
func (s *Store) Reports() []report.Monthly {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]report.Monthly(nil), s.reports...)
}
