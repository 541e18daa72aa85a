package pipeline

import (
	"context"
	"log/slog"

	"github.com/citysignal/transform-engine/internal/domain"
)

// StateTransformer implements Transformer by parsing a place snapshot and
// recomputing its transformation state from the full event set.
type StateTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a StateTransformer.
func NewTransformer(logger *slog.Logger) *StateTransformer {
	return &StateTransformer{logger: logger}
}

func (t *StateTransformer) Transform(_ context.Context, raw domain.RawSnapshot) (domain.StateRecord, error) {
	snap, err := domain.ParseSnapshot(raw)
	if err != nil {
		return domain.StateRecord{}, err
	}

	state := domain.ComposeState(snap.Place, snap.Events)

	return domain.StateRecord{Place: snap.Place, State: state}, nil
}
