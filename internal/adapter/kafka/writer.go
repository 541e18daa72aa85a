package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/citysignal/transform-engine/internal/config"
	"github.com/citysignal/transform-engine/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces transformation states to a Kafka topic.
// It implements pipeline.StateLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured state topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaStateTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple state records to the state
// topic in a single WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.StateRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a StateRecord into a Kafka message keyed by
// place ID, so successive recomputes of the same place land on the same
// partition in order.
func serializeToMessage(rec domain.StateRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize state record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Place.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "project_status", Value: []byte(rec.State.ProjectStatus)},
			{Key: "computed_at", Value: []byte(rec.State.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}

// HeatmapWriter produces aggregated heatmap cells to a Kafka topic.
// It implements pipeline.HeatmapLoader.
type HeatmapWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewHeatmapWriter creates a Kafka producer for the configured heatmap topic.
func NewHeatmapWriter(cfg *config.Config, logger *slog.Logger) *HeatmapWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaHeatmapTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &HeatmapWriter{writer: w, logger: logger}
}

// LoadCells serializes and publishes a full heatmap aggregation. Cells are
// keyed by cell ID so consumers compacting the topic keep only the latest
// aggregate per hexagon.
func (hw *HeatmapWriter) LoadCells(ctx context.Context, cells []domain.HeatmapCell) error {
	if len(cells) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(cells))
	for i := range cells {
		msg, err := serializeCellToMessage(cells[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return hw.writer.WriteMessages(ctx, msgs...)
}

func (hw *HeatmapWriter) Close() error {
	return hw.writer.Close()
}

func serializeCellToMessage(cell domain.HeatmapCell) (kafkago.Message, error) {
	data, err := json.Marshal(cell)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize heatmap cell: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(cell.CellID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "resolution", Value: []byte(strconv.Itoa(cell.Resolution))},
		},
	}, nil
}
