package store

import (
	"sync"
	"time"

	"github.com/i474232898/weather-log-collector/internal/weather"
)

// ErrNotFound is returned when no cycle reports match.
var ErrNotFound = weather.ErrNoHistory

// MemoryStore is a concurrency-safe in-memory history of cycle reports.
type MemoryStore struct {
	mu sync.RWMutex

	// ordered by StartedAt, oldest first
	reports []weather.CycleReport

	// retention configuration
	maxHistory int           // max number of reports kept
	maxAge     time.Duration // optional max age for reports

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReport appends a report and enforces retention.
func (s *MemoryStore) SaveReport(report weather.CycleReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, report)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.reports) > s.maxHistory {
		over := len(s.reports) - s.maxHistory
		s.reports = append([]weather.CycleReport(nil), s.reports[over:]...)
	}

	// Enforce retention by age. The newest report is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.reports)-1; i++ {
			if !s.reports[i].StartedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.reports = s.reports[i:]
		}
	}
}

// Latest returns the most recent report.
func (s *MemoryStore) Latest() (weather.CycleReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return weather.CycleReport{}, ErrNotFound
	}
	return s.reports[len(s.reports)-1], nil
}

// Range returns all reports started between from and to (inclusive).
func (s *MemoryStore) Range(from, to time.Time) ([]weather.CycleReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.CycleReport
	for _, r := range s.reports {
		if !r.StartedAt.Before(from) && !r.StartedAt.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
