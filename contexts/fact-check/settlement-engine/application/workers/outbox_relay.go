package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"validnews/contexts/fact-check/settlement-engine/ports"
	"validnews/internal/shared/events"
)

// OutboxRelay drains pending outbox rows onto the event bus. Rows are marked
// published only after the publish succeeds, so a crash between the two steps
// re-delivers; downstream consumers must tolerate duplicates.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (w OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := w.logger()
	batchSize := w.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	pending, err := w.Outbox.ListPendingOutbox(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := make([]string, 0, len(pending))
	for _, message := range pending {
		var envelope events.Envelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("outbox payload unmarshal failed",
				"event", "outbox_payload_unmarshal_failed",
				"module", "fact-check/settlement-engine",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			// Poison row: mark it published so it stops blocking the batch.
			published = append(published, message.OutboxID)
			continue
		}
		if err := w.Publisher.Publish(ctx, message.EventType, envelope); err != nil {
			logger.Error("outbox publish failed",
				"event", "outbox_publish_failed",
				"module", "fact-check/settlement-engine",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_type", message.EventType,
				"error", err.Error(),
			)
			break
		}
		published = append(published, message.OutboxID)
	}

	if len(published) == 0 {
		return 0, nil
	}
	if err := w.Outbox.MarkOutboxPublished(ctx, published, w.now()); err != nil {
		return 0, err
	}
	logger.Info("outbox batch relayed",
		"event", "outbox_batch_relayed",
		"module", "fact-check/settlement-engine",
		"layer", "worker",
		"published", len(published),
	)
	return len(published), nil
}

func (w OutboxRelay) now() time.Time {
	if w.Clock != nil {
		return w.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (w OutboxRelay) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
