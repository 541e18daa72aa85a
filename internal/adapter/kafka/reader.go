package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/citysignal/transform-engine/internal/config"
	"github.com/citysignal/transform-engine/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes place snapshots from a Kafka topic via a consumer group.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the configured snapshot topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaSnapshotTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // explicit commits only, after a state is loaded
	})
	return &Reader{reader: r, logger: logger}
}

// ExtractBatch fetches up to batchSize snapshots. The first fetch blocks
// until a message arrives or the context is cancelled; subsequent fetches
// use a short deadline so a trickle of messages still forms a batch
// without stalling the pipeline.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawSnapshot, error) {
	batch := make([]domain.RawSnapshot, 0, batchSize)

	for len(batch) < batchSize {
		fetchCtx := ctx
		var cancel context.CancelFunc
		if len(batch) > 0 {
			fetchCtx, cancel = context.WithTimeout(ctx, 100*time.Millisecond)
		}

		msg, err := r.reader.FetchMessage(fetchCtx)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			if len(batch) > 0 && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
				break
			}
			return batch, err
		}

		batch = append(batch, r.mapMessageToRawSnapshot(msg))
	}

	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawSnapshot converts a Kafka message into a domain RawSnapshot,
// attaching a commit callback bound to the originating message.
func (r *Reader) mapMessageToRawSnapshot(msg kafkago.Message) domain.RawSnapshot {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	return domain.RawSnapshot{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}
