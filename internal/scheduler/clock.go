package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// Ticker delivers ticks at a fixed cadence until stopped. Ticks that fire
// while the receiver is busy are not queued.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers. Tests substitute a manual implementation.
type Clock interface {
	NewTicker(interval time.Duration) (Ticker, error)
}

// GocronClock produces ticks from a gocron job.
type GocronClock struct {
	Location *time.Location
}

type gocronTicker struct {
	scheduler *gocron.Scheduler
	ch        chan time.Time
}

// NewTicker starts a gocron scheduler that ticks every interval, measured
// from when the ticker was created. Ticks are unbuffered: one that fires
// while nobody is receiving, such as during a running cycle, is dropped.
func (c GocronClock) NewTicker(interval time.Duration) (Ticker, error) {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}

	t := &gocronTicker{
		scheduler: gocron.NewScheduler(loc),
		ch:        make(chan time.Time),
	}

	_, err := t.scheduler.Every(interval).WaitForSchedule().Do(func() {
		select {
		case t.ch <- time.Now():
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule ticker every %s: %w", interval, err)
	}

	t.scheduler.StartAsync()
	return t, nil
}

func (t *gocronTicker) C() <-chan time.Time {
	return t.ch
}

func (t *gocronTicker) Stop() {
	t.scheduler.Stop()
}
