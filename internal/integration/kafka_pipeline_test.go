//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/citysignal/transform-engine/internal/adapter/kafka"
	"github.com/citysignal/transform-engine/internal/config"
	"github.com/citysignal/transform-engine/internal/domain"
	"github.com/citysignal/transform-engine/internal/observability"
	"github.com/citysignal/transform-engine/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSnapshotTopic = "test-snapshots"
	testStateTopic    = "test-states"
	testHeatmapTopic  = "test-heatmap"
)

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker addresses")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic via the broker's controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSnapshotTopic: testSnapshotTopic,
		KafkaStateTopic:    testStateTopic,
		KafkaHeatmapTopic:  testHeatmapTopic,
		KafkaGroupID:       group,
	}
}

// stateMessage holds a deserialized record read from the state topic.
type stateMessage struct {
	Record  domain.StateRecord
	Key     string
	Headers map[string]string
}

// readState reads a single message from the state consumer and deserializes it.
func readState(ctx context.Context, t *testing.T, consumer *kafkago.Reader) stateMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from state topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rec domain.StateRecord
	require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal state message")

	return stateMessage{
		Record:  rec,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

func mockSnapshot(placeID string, lat, lng float64, events ...domain.RawEvent) domain.PlaceSnapshot {
	return domain.PlaceSnapshot{
		Place: domain.Place{
			ID:  placeID,
			Geo: domain.Geo{Lat: lat, Lng: lng},
		},
		Events: events,
	}
}

func permitEvent(placeID, sourceID string, eventType domain.EventType, date time.Time, raw map[string]string) domain.RawEvent {
	return domain.RawEvent{
		PlaceID:   placeID,
		Source:    domain.SourceBuildingPermits,
		SourceID:  sourceID,
		EventType: eventType,
		EventDate: date,
		RawData:   raw,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor)
// and kafka.Writer (Loader) correctly round-trip a snapshot through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSnapshotTopic)
	createTopic(t, broker, testStateTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-reader-%d", time.Now().UnixNano()))

	snap := mockSnapshot("place-1", 40.7099, -74.0122,
		permitEvent("place-1", "permit-100", domain.EventNewBuilding,
			time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), nil),
		permitEvent("place-1", "permit-101", domain.EventPermitIssued,
			time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			map[string]string{"issuance_date": "2024-03-01"}),
	)
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSnapshotTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("place-1"),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawSnapshot
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from snapshot topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("place-1"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSnapshotTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	// Commit the offset.
	require.NoError(t, raw.Commit(ctx))

	// Recompute the transformation state.
	transformer := pipeline.NewTransformer(discardLogger())
	rec, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.StateRecord{rec}))

	// Read from the state topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testStateTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	sm := readState(ctx, t, consumer)
	assert.Equal(t, "place-1", sm.Key)
	assert.NotEmpty(t, sm.Headers["project_status"])
	assert.Contains(t, sm.Headers, "computed_at")
	_, err = time.Parse(time.RFC3339, sm.Headers["computed_at"])
	assert.NoError(t, err, "computed_at should be valid RFC3339")

	assert.Equal(t, "place-1", sm.Record.State.PlaceID)
	assert.Equal(t, domain.CertaintyCertain, sm.Record.State.Certainty)
	assert.Equal(t, domain.NatureDensification, sm.Record.State.Nature)
	assert.Equal(t, 70, sm.Record.State.Intensity)
	assert.Equal(t, 2, sm.Record.State.EventCount)
}

// TestPipelineEndToEnd wires the full pipeline (Reader, Transformer, Writer,
// HeatmapWriter) with real Kafka and verifies states and heatmap cells.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSnapshotTopic)
	createTopic(t, broker, testStateTopic)
	createTopic(t, broker, testHeatmapTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()))

	feb := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	snapshots := []domain.PlaceSnapshot{
		mockSnapshot("place-a", 40.7099, -74.0122,
			permitEvent("place-a", "permit-1", domain.EventNewBuilding, feb, nil)),
		mockSnapshot("place-b", 40.7101, -74.0120,
			permitEvent("place-b", "permit-2", domain.EventDemolition, feb, nil),
			permitEvent("place-b", "permit-3", domain.EventPermitIssued, mar,
				map[string]string{"issuance_date": "2024-03-01"})),
		mockSnapshot("place-c", 40.7099, -74.0122,
			permitEvent("place-c", "permit-4", domain.EventMinorAlteration, feb, nil)),
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSnapshotTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(snapshots))
	for _, snap := range snapshots {
		payload, err := json.Marshal(snap)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(snap.Place.ID),
			Value: payload,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := pipeline.NewTransformer(discardLogger())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	heatmapWriter := kafka.NewHeatmapWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = heatmapWriter.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, heatmapWriter,
		discardLogger(), metrics, 50, 8, time.Second)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Read all states from the state topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testStateTopic,
		GroupID:     fmt.Sprintf("test-state-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]stateMessage, len(snapshots))
	for len(received) < len(snapshots) {
		sm := readState(ctx, t, consumer)
		received[sm.Record.State.PlaceID] = sm
	}

	// Read at least one heatmap flush.
	heatmapConsumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testHeatmapTopic,
		GroupID:     fmt.Sprintf("test-heatmap-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = heatmapConsumer.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	cellMsg, err := heatmapConsumer.ReadMessage(readCtx)
	readCancel()
	require.NoError(t, err, "read from heatmap topic")

	pipelineCancel()
	require.NoError(t, <-errCh)

	// Every place must have type headers and a valid computed_at.
	for id, sm := range received {
		assert.Equal(t, id, sm.Key, "message key should be the place id")
		assert.NotEmpty(t, sm.Headers["project_status"], "missing project_status header")
		_, err := time.Parse(time.RFC3339, sm.Headers["computed_at"])
		assert.NoError(t, err, "invalid computed_at format")
		assert.False(t, sm.Record.State.ComputedAt.IsZero(), "missing computed_at")
	}

	// Spot-check place-a: a single new-building filing.
	a := received["place-a"].Record.State
	assert.Equal(t, 50, a.Intensity)
	assert.Equal(t, domain.NatureDensification, a.Nature)
	assert.Equal(t, domain.CertaintyProbable, a.Certainty)
	assert.Equal(t, "New building going up", a.Headline)

	// Spot-check place-b: demolition plus an issued permit.
	b := received["place-b"].Record.State
	assert.Equal(t, 55, b.Intensity)
	assert.Equal(t, domain.NatureDemolition, b.Nature)
	assert.Equal(t, domain.CertaintyCertain, b.Certainty)

	// Heatmap cell sanity: valid JSON with a resolution header.
	var cell domain.HeatmapCell
	require.NoError(t, json.Unmarshal(cellMsg.Value, &cell))
	assert.Equal(t, string(cellMsg.Key), cell.CellID)
	assert.Equal(t, 8, cell.Resolution)
	assert.GreaterOrEqual(t, cell.PlaceCount, 1)

	var found bool
	for _, h := range cellMsg.Headers {
		if h.Key == "resolution" {
			found = true
			assert.Equal(t, "8", string(h.Value))
		}
	}
	assert.True(t, found, "missing resolution header")
}

// TestPipelinePoisonPill verifies that an invalid snapshot is skipped and
// the pipeline continues processing valid ones.
func TestPipelinePoisonPill(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSnapshotTopic)
	createTopic(t, broker, testStateTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-poison-%d", time.Now().UnixNano()))

	snap := mockSnapshot("place-ok", 40.7099, -74.0122,
		permitEvent("place-ok", "permit-1", domain.EventNewBuilding,
			time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), nil))
	validPayload, err := json.Marshal(snap)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSnapshotTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("place-ok"), Value: validPayload},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	transformer := pipeline.NewTransformer(discardLogger())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, transformer, writer, nil,
		discardLogger(), metrics, 50, 8, time.Minute)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid snapshot should appear on the state topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testStateTopic,
		GroupID:     fmt.Sprintf("test-state-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	sm := readState(ctx, t, consumer)
	assert.Equal(t, "place-ok", sm.Record.State.PlaceID)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on state topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
