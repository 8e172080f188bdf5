package producer

import (
	"context"
	"time"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const relayBatchSize = 50

// Relay drains the punch outbox into kafka. It is the only delivery
// path out of the process; the in-process dispatcher never leaves it.
type Relay struct {
	repo   kafka.OutboxRepository
	writer *kafkago.Writer
	logger *zap.Logger
	poll   time.Duration
}

func NewRelay(repo kafka.OutboxRepository, writer *kafkago.Writer, pollInterval time.Duration, logger ...*zap.Logger) *Relay {
	l := zap.L().Named("kafka.relay")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kafka.relay")
	}
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Relay{repo: repo, writer: writer, logger: l, poll: pollInterval}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", zap.Duration("poll_interval", r.poll))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				r.logger.Error("outbox drain failed", zap.Error(err))
			}
		}
	}
}

// drainOnce delivers one batch. A failed delivery reschedules the row
// with backoff; a delivered row that cannot be marked sent stays
// pending and is delivered again, which is why consumers key on the
// record id.
func (r *Relay) drainOnce(ctx context.Context) error {
	events, err := r.repo.ListPending(ctx, relayBatchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	for _, event := range events {
		if err := r.publish(ctx, event); err != nil {
			r.logger.Warn("punch event delivery failed",
				zap.String("outbox_id", event.ID),
				zap.String("record_id", event.AggregateID),
				zap.Int("attempt", event.RetryCount+1),
				zap.Error(err),
			)
			if markErr := r.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				r.logger.Error("mark outbox failed errored",
					zap.String("outbox_id", event.ID), zap.Error(markErr))
			}
			continue
		}

		if err := r.repo.MarkSent(ctx, event.ID); err != nil {
			r.logger.Error("mark outbox sent errored",
				zap.String("outbox_id", event.ID), zap.Error(err))
			continue
		}

		r.logger.Info("punch event delivered",
			zap.String("outbox_id", event.ID),
			zap.String("record_id", event.AggregateID),
			zap.String("topic", event.Topic),
		)
	}

	return nil
}
