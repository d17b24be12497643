package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/thesurve-web/internal/models"
	"github.com/noah-isme/thesurve-web/pkg/jobs"
)

const pageViewJob = "page_view"

// EventPublisher delivers an encoded event to the analytics backend.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// AnalyticsService records page views off the request path. Events go
// through a worker queue to the publisher, or to the log when none is set.
type AnalyticsService struct {
	queue     *jobs.Queue
	publisher EventPublisher
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalyticsService constructs the service. publisher may be nil.
func NewAnalyticsService(publisher EventPublisher, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AnalyticsService{publisher: publisher, metrics: metrics, logger: logger, now: time.Now}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s.queue = jobs.NewQueue("analytics", s.handle, cfg)
	return s
}

// Start launches the workers.
func (s *AnalyticsService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes buffered events and stops the workers.
func (s *AnalyticsService) Stop() {
	s.queue.Stop()
}

// TrackPageView queues view. It never blocks and never fails the caller.
func (s *AnalyticsService) TrackPageView(view models.PageView) {
	if view.OccurredAt.IsZero() {
		view.OccurredAt = s.now().UTC()
	}
	payload, err := json.Marshal(view)
	if err != nil {
		s.logger.Warn("encode page view", zap.Error(err))
		return
	}

	err = s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    pageViewJob,
		Key:     view.Path,
		Payload: payload,
	})
	if err != nil {
		outcome := "failed"
		if errors.Is(err, jobs.ErrQueueFull) {
			outcome = "dropped"
		}
		s.metrics.RecordAnalyticsEvent(outcome)
		s.logger.Debug("page view not queued", zap.String("path", view.Path), zap.Error(err))
	}
}

func (s *AnalyticsService) handle(ctx context.Context, job jobs.Job) error {
	if s.publisher == nil {
		s.logger.Info("page_view", zap.String("path", job.Key), zap.ByteString("event", job.Payload))
		s.metrics.RecordAnalyticsEvent("logged")
		return nil
	}
	if err := s.publisher.Publish(ctx, job.Key, job.Payload); err != nil {
		return err
	}
	s.metrics.RecordAnalyticsEvent("published")
	return nil
}
