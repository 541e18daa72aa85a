package domain

import "sort"

// ComposeState derives a place's full TransformationState from its event
// set. It is the only place that branches on an empty set: no events yields
// the neutral zero state rather than an error. Events are first put into a
// deterministic order so that same-date ties resolve identically on every
// recompute; given an unchanged event set and a frozen clock the output is
// byte-for-byte reproducible.
func ComposeState(place Place, events []RawEvent) TransformationState {
	if len(events) == 0 {
		return emptyState(place)
	}

	sorted := sortEvents(events)

	intensity := ScoreIntensity(sorted)
	certainty := ClassifyCertainty(sorted)
	nature := ClassifyNature(sorted)
	phases := EstimatePhases(sorted)
	narrative := ComposeNarrative(sorted, nature, certainty, phases)

	first := sorted[0].EventDate
	last := sorted[len(sorted)-1].EventDate

	return TransformationState{
		PlaceID:   place.ID,
		Intensity: intensity,
		Nature:    nature,
		Certainty: certainty,

		Headline:          narrative.Headline,
		OneLiner:          narrative.OneLiner,
		DisruptionSummary: narrative.DisruptionSummary,

		DisruptionStart:   phases.DisruptionStart,
		DisruptionEnd:     phases.DisruptionEnd,
		VisibleChangeDate: phases.VisibleChangeDate,
		UsageChangeDate:   phases.UsageChangeDate,
		IsEstimatedStart:  phases.IsEstimatedStart,
		IsEstimatedEnd:    phases.IsEstimatedEnd,

		ApprovalDate:     phases.ApprovalDate,
		PermitExpiration: phases.PermitExpiration,
		ProjectStatus:    phases.ProjectStatus,

		EventCount:    len(sorted),
		FirstActivity: &first,
		LastActivity:  &last,

		ComputedAt: clock.Now(),
	}
}

// emptyState is the well-defined null state for a place with no events.
func emptyState(place Place) TransformationState {
	return TransformationState{
		PlaceID:       place.ID,
		Intensity:     0,
		Nature:        NatureMixed,
		Certainty:     CertaintyDiscussion,
		Headline:      "No recorded activity",
		OneLiner:      "No municipal records on file",
		ProjectStatus: StatusPlanning,
		EventCount:    0,
		ComputedAt:    clock.Now(),
	}
}

// sortEvents returns a copy ordered by (date, source, sourceID, type).
// Event date carries the semantics; the remaining keys only break exact
// date ties so that which record "wins" a payload field lookup does not
// depend on input order.
func sortEvents(events []RawEvent) []RawEvent {
	sorted := make([]RawEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.EventDate.Equal(b.EventDate) {
			return a.EventDate.Before(b.EventDate)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.EventType < b.EventType
	})
	return sorted
}

// PointFromState extracts the heatmap input tuple for a place's state.
func PointFromState(place Place, state TransformationState) PlacePoint {
	return PlacePoint{
		PlaceID:   place.ID,
		Geo:       place.Geo,
		Intensity: state.Intensity,
		Nature:    state.Nature,
	}
}
