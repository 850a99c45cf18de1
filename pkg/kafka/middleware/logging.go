package kafka_middleware

import (
	"canchas/pkg/kafka"
	"canchas/pkg/logger"
	"context"
	"time"
)

func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()

		err := next(ctx, msg)

		fields := []any{
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Warn("Failed to publish event", append(fields, "error", err)...)
			return err
		}

		log.Debug("Published event", fields...)
		return nil
	}
}
