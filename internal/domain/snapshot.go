package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawSnapshot represents an unprocessed message from the snapshot topic.
type RawSnapshot struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// PlaceSnapshot is the payload ingestion publishes for a place: the place
// itself plus its complete normalized event set. Ingestion guarantees the
// set is fully written before publishing, so the engine never recomputes
// from partial data.
type PlaceSnapshot struct {
	Place  Place      `json:"place"`
	Events []RawEvent `json:"events"`
}

// StateRecord pairs a computed state with the place it belongs to, keeping
// the coordinates the heatmap aggregator needs next to the state.
type StateRecord struct {
	Place Place               `json:"place"`
	State TransformationState `json:"state"`
}

// ParseSnapshot deserializes a RawSnapshot's value into a PlaceSnapshot.
func ParseSnapshot(raw RawSnapshot) (PlaceSnapshot, error) {
	var snap PlaceSnapshot
	if err := json.Unmarshal(raw.Value, &snap); err != nil {
		return PlaceSnapshot{}, fmt.Errorf("parse place snapshot: %w", err)
	}
	if snap.Place.ID == "" {
		return PlaceSnapshot{}, fmt.Errorf("parse place snapshot: missing place id")
	}
	return snap, nil
}
