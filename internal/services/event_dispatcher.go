package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/accountly/backend/domain"
	"github.com/accountly/backend/internal/events"
	"github.com/accountly/backend/internal/infrastructure/buffer"
	"github.com/accountly/backend/pkg/clock"
)

// StreamHealth abstracts the connection monitor functionality.
type StreamHealth interface {
	StreamOnline() bool
}

// DispatcherConfig controls envelope metadata and drain cadence. Retention
// bounds how long an undeliverable event may sit in the buffer; zero disables
// the cleanup job.
type DispatcherConfig struct {
	Source     string
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// EventDispatcher implements the fire-and-forget event channel: it tries to
// publish immediately, parks undeliverable events in the disk buffer, and
// drains the buffer on a schedule. A dispatch failure never propagates to the
// mutation that produced the event.
type EventDispatcher struct {
	publisher events.StreamPublisher
	store     *buffer.Store
	monitor   StreamHealth
	clock     clock.Clock
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       DispatcherConfig
}

// NewEventDispatcher builds the dispatcher and registers its drain schedule.
func NewEventDispatcher(
	publisher events.StreamPublisher,
	store *buffer.Store,
	monitor StreamHealth,
	clk clock.Clock,
	logger *zap.Logger,
	cfg DispatcherConfig,
) *EventDispatcher {
	if cfg.Source == "" {
		cfg.Source = "user-management-service"
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &EventDispatcher{
		publisher: publisher,
		store:     store,
		monitor:   monitor,
		clock:     clk,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := d.Drain(ctx); err != nil {
			d.logger.Error("event buffer drain failed", zap.Error(err))
		}
	})

	if cfg.Retention > 0 && store != nil {
		_, _ = d.cron.AddFunc("@every 1h", func() {
			cutoff := d.clock.Now().Add(-cfg.Retention)
			if err := store.Cleanup(cutoff); err != nil {
				d.logger.Warn("event buffer cleanup failed", zap.Error(err))
			}
		})
	}

	return d
}

// Start launches the drain scheduler.
func (d *EventDispatcher) Start() {
	if d == nil || d.cron == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("event dispatcher started")
}

// Stop gracefully stops the scheduler.
func (d *EventDispatcher) Stop(ctx context.Context) {
	if d == nil || d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("event dispatcher stopped")
}

// Notify wraps the payload in the event envelope and hands it to the channel.
// Implements the use-case notifier port.
func (d *EventDispatcher) Notify(ctx context.Context, eventType string, payload any) error {
	event := domain.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		Source:      d.cfg.Source,
		SubmittedAt: d.clock.Now(),
		Version:     domain.EventSchemaVersion,
		Data:        payload,
	}

	if d.monitor == nil || d.monitor.StreamOnline() {
		if err := d.publisher.Publish(ctx, event); err == nil {
			return nil
		} else {
			d.logger.Warn("immediate publish failed, buffering event",
				zap.String("event_type", eventType),
				zap.Error(err))
		}
	}
	return d.enqueue(event)
}

// Drain publishes buffered events in submission order.
func (d *EventDispatcher) Drain(ctx context.Context) error {
	if d == nil || d.store == nil {
		return nil
	}
	if d.monitor != nil && !d.monitor.StreamOnline() {
		d.logger.Debug("skipping event drain (stream offline)")
		return nil
	}

	items, err := d.store.GetBatch(d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		var event domain.Event
		if err := json.Unmarshal(item.Envelope, &event); err != nil {
			d.logger.Warn("dropping undecodable buffered event", zap.String("item_id", item.ID))
			_ = d.store.Remove(item)
			continue
		}

		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Error("failed to publish buffered event",
				zap.String("item_id", item.ID),
				zap.String("event_type", item.EventType),
				zap.Error(err))

			item.Retries++
			if item.Retries >= d.cfg.MaxRetries {
				d.logger.Warn("dropping buffered event (max retries reached)", zap.String("item_id", item.ID))
				_ = d.store.Remove(item)
				continue
			}

			if err := d.store.Remove(item); err != nil {
				d.logger.Warn("failed to remove buffered event", zap.Error(err))
			}
			if err := d.store.Requeue(item); err != nil {
				d.logger.Error("failed to requeue buffered event", zap.Error(err))
			}
			continue
		}

		if err := d.store.Remove(item); err != nil {
			d.logger.Warn("failed to purge published event", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of buffered events.
func (d *EventDispatcher) Size() int {
	if d == nil || d.store == nil {
		return 0
	}
	size, err := d.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (d *EventDispatcher) enqueue(event domain.Event) error {
	if d.store == nil {
		return fmt.Errorf("event buffer not configured")
	}
	envelope, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return d.store.Enqueue(buffer.Item{
		ID:        event.ID,
		EventType: event.Type,
		Envelope:  envelope,
		Timestamp: event.SubmittedAt,
	})
}
