package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = time.Hour

// State is the scheduler's current phase.
type State int32

const (
	StateIdle State = iota
	StateRunningCycle
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunningCycle:
		return "running-cycle"
	default:
		return "unknown"
	}
}

// CycleFunc runs one collection cycle.
type CycleFunc func(ctx context.Context)

// Scheduler runs one cycle at startup and then one per interval.
// Cycles never overlap.
type Scheduler struct {
	cycle    CycleFunc
	interval time.Duration
	clock    Clock
	logger   *zap.Logger

	state  atomic.Int32
	cycles atomic.Int64
}

// New creates a new Scheduler. A nil clock uses GocronClock.
func New(cycle CycleFunc, interval time.Duration, clock Clock, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = GocronClock{}
	}

	return &Scheduler{
		cycle:    cycle,
		interval: interval,
		clock:    clock,
		logger:   logger.Named("scheduler"),
	}
}

// State reports whether a cycle is currently running.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Cycles returns how many cycles have completed.
func (s *Scheduler) Cycles() int64 {
	return s.cycles.Load()
}

// Run executes the first cycle immediately, then waits for ticks until ctx is
// cancelled. It only returns an error if the ticker cannot be armed.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduling collection",
		zap.Duration("interval", s.interval))

	s.runCycle(ctx)

	ticker, err := s.clock.NewTicker(s.interval)
	if err != nil {
		return fmt.Errorf("arm ticker: %w", err)
	}
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", zap.Int64("cycles", s.Cycles()))
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C():
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	s.state.Store(int32(StateRunningCycle))
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("collection cycle panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
		s.cycles.Add(1)
		s.state.Store(int32(StateIdle))
	}()

	s.cycle(ctx)
}
