package weather

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Service runs the collect -> publish chain for a single cycle.
type Service struct {
	collector Collector
	publisher Publisher
	store     Store
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new Service. store may be nil.
func NewService(collector Collector, publisher Publisher, store Store, logger *zap.Logger) *Service {
	return &Service{
		collector: collector,
		publisher: publisher,
		store:     store,
		logger:    logger.Named("service"),
		now:       time.Now,
	}
}

// RunCycle performs one collection and, if it produced an observation,
// publishes it. Stage failures are logged and recorded in the returned
// report; they are never propagated.
func (s *Service) RunCycle(ctx context.Context) CycleReport {
	report := CycleReport{StartedAt: s.now()}
	s.logger.Info("starting collection cycle", zap.Time("started_at", report.StartedAt))

	obs, err := s.collector.Collect(ctx)
	if err != nil {
		s.logger.Warn("collection failed, skipping publish", zap.Error(err))
		report.Outcome = OutcomeCollectFailed
		report.Error = err.Error()
		return s.finish(report)
	}
	report.Observation = &obs

	if err := s.publisher.Publish(ctx, obs); err != nil {
		// The observation is dropped; the next cycle starts from scratch.
		report.Outcome = OutcomePublishFailed
		report.Error = err.Error()
		return s.finish(report)
	}

	report.Outcome = OutcomePublished
	return s.finish(report)
}

func (s *Service) finish(report CycleReport) CycleReport {
	report.FinishedAt = s.now()
	if s.store != nil {
		s.store.SaveReport(report)
	}
	s.logger.Info("collection cycle finished",
		zap.String("outcome", string(report.Outcome)),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)))
	return report
}

// Latest delegates to the underlying store.
func (s *Service) Latest() (CycleReport, error) {
	if s.store == nil {
		return CycleReport{}, ErrNoHistory
	}
	return s.store.Latest()
}

// Range delegates to the underlying store.
func (s *Service) Range(from, to time.Time) ([]CycleReport, error) {
	if s.store == nil {
		return nil, ErrNoHistory
	}
	return s.store.Range(from, to)
}
