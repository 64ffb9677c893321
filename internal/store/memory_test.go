package store

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-log-collector/internal/weather"
)

func report(start time.Time, outcome weather.Outcome) weather.CycleReport {
	return weather.CycleReport{StartedAt: start, FinishedAt: start.Add(2 * time.Second), Outcome: outcome}
}

func TestLatestEmpty(t *testing.T) {
	s := NewMemoryStore(10, 0)
	if _, err := s.Latest(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetentionByCount(t *testing.T) {
	base := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(3, 0)

	for i := 0; i < 5; i++ {
		s.SaveReport(report(base.Add(time.Duration(i)*time.Hour), weather.OutcomePublished))
	}

	all, err := s.Range(base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}
	if !all[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("expected oldest kept report at +2h, got %v", all[0].StartedAt)
	}

	latest, err := s.Latest()
	if err != nil || !latest.StartedAt.Equal(base.Add(4*time.Hour)) {
		t.Errorf("unexpected latest %v (%v)", latest.StartedAt, err)
	}
}

func TestRetentionByAge(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, 6*time.Hour)
	s.now = func() time.Time { return now }

	s.SaveReport(report(now.Add(-10*time.Hour), weather.OutcomeCollectFailed))
	s.SaveReport(report(now.Add(-7*time.Hour), weather.OutcomePublished))
	s.SaveReport(report(now.Add(-1*time.Hour), weather.OutcomePublishFailed))

	all, err := s.Range(now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].Outcome != weather.OutcomePublishFailed {
		t.Fatalf("expected only the recent report, got %+v", all)
	}
}

func TestRangeBounds(t *testing.T) {
	base := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0, 0)
	for i := 0; i < 4; i++ {
		s.SaveReport(report(base.Add(time.Duration(i)*time.Hour), weather.OutcomePublished))
	}

	got, err := s.Range(base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected inclusive range of 2, got %d", len(got))
	}

	if _, err := s.Range(base.Add(10*time.Hour), base.Add(11*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty range, got %v", err)
	}
}
