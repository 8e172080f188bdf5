package producer

import (
	"context"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// publish keys the message by record id so all events of one punch
// land in the same partition, and carries the originating request id
// for cross-service tracing.
func (r *Relay) publish(ctx context.Context, event kafka.OutboxEvent) error {
	headers := []kafkago.Header{
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "aggregate_type", Value: []byte(event.AggregateType)},
	}
	if event.RequestID != "" {
		headers = append(headers, kafkago.Header{Key: "request_id", Value: []byte(event.RequestID)})
	}

	return r.writer.WriteMessages(ctx, kafkago.Message{
		Topic:   event.Topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	})
}
