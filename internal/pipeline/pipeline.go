package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/citysignal/transform-engine/internal/domain"
	"github.com/citysignal/transform-engine/internal/observability"
)

// BatchExtractor reads up to batchSize raw snapshots from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawSnapshot, error)
}

// Transformer recomputes a place's state from a raw snapshot.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawSnapshot) (domain.StateRecord, error)
}

// StateLoader writes computed state records to the destination.
type StateLoader interface {
	LoadBatch(ctx context.Context, records []domain.StateRecord) error
}

// HeatmapLoader publishes aggregated heatmap cells.
type HeatmapLoader interface {
	LoadCells(ctx context.Context, cells []domain.HeatmapCell) error
}

// Pipeline orchestrates the extract-compose-load loop and periodically
// re-aggregates the heatmap from the latest point per place.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      StateLoader
	heatmap     HeatmapLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	processed   atomic.Uint64
	batchSize   int

	resolution    int
	flushInterval time.Duration
	points        map[string]domain.PlacePoint
	lastFlush     time.Time
}

// New creates a Pipeline. Pass a nil heatmap loader to disable heatmap
// publishing.
func New(e BatchExtractor, t Transformer, l StateLoader, h HeatmapLoader,
	logger *slog.Logger, metrics *observability.Metrics,
	batchSize, resolution int, flushInterval time.Duration,
) *Pipeline {
	return &Pipeline{
		extractor:     e,
		transformer:   t,
		loader:        l,
		heatmap:       h,
		logger:        logger,
		metrics:       metrics,
		batchSize:     batchSize,
		resolution:    resolution,
		flushInterval: flushInterval,
		points:        make(map[string]domain.PlacePoint),
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one
// snapshot, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.processed.Load() == 0 {
		return errors.New("pipeline has not processed any snapshots yet")
	}
	return nil
}

// SnapshotsProcessed reports how many snapshots have been composed and
// loaded since startup. The readiness endpoint surfaces it so a probe can
// distinguish a stuck pipeline from one that never started.
func (p *Pipeline) SnapshotsProcessed() uint64 {
	return p.processed.Load()
}

// Run executes the batch recompute loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"batch_size", p.batchSize,
		"heatmap_resolution", p.resolution,
		"heatmap_flush_interval", p.flushInterval,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-compose-load cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.SnapshotsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	loaded, ok := p.composeAndLoad(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.processed.Add(uint64(loaded))
	}

	p.maybeFlushHeatmap(ctx)
	return true
}

// composeAndLoad recomputes each snapshot in the batch, loads the
// successes, and commits offsets. Returns the number of successfully
// loaded records and false if the pipeline should stop.
func (p *Pipeline) composeAndLoad(ctx context.Context, rawBatch []domain.RawSnapshot, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	records := make([]domain.StateRecord, 0, len(rawBatch))
	successfulRaws := make([]domain.RawSnapshot, 0, len(rawBatch))

	for _, raw := range rawBatch {
		rec, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("compose failed, skipping snapshot",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.ComposeErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		records = append(records, rec)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(records) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, records); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(records))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.StatesProduced.Add(float64(len(records)))

	for _, rec := range records {
		p.points[rec.Place.ID] = domain.PointFromState(rec.Place, rec.State)
	}
	p.metrics.TrackedPlaces.Set(float64(len(p.points)))

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}

	return len(records), true
}

// maybeFlushHeatmap re-aggregates and publishes heatmap cells once per
// flush interval. Aggregation always runs over the full current point set;
// cells are replaced wholesale, never patched.
func (p *Pipeline) maybeFlushHeatmap(ctx context.Context) {
	if p.heatmap == nil || len(p.points) == 0 {
		return
	}
	if time.Since(p.lastFlush) < p.flushInterval {
		return
	}

	start := time.Now()
	points := make([]domain.PlacePoint, 0, len(p.points))
	for _, pt := range p.points {
		points = append(points, pt)
	}

	cells := domain.AggregateHeatmap(points, p.resolution)
	if err := p.heatmap.LoadCells(ctx, cells); err != nil {
		p.logger.Error("heatmap publish failed", "error", err, "cells", len(cells))
		return
	}

	p.lastFlush = time.Now()
	p.metrics.HeatmapCellsPublished.Add(float64(len(cells)))
	p.metrics.HeatmapFlushDuration.Observe(time.Since(start).Seconds())
	p.logger.Debug("heatmap flushed", "cells", len(cells), "places", len(points))
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should
// stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawSnapshot) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
