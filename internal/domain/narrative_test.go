package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventsOf(types ...EventType) []RawEvent {
	events := make([]RawEvent, 0, len(types))
	for _, typ := range types {
		events = append(events, testEvent(typ, "2024-01-01"))
	}
	return events
}

func TestComposeHeadline(t *testing.T) {
	tests := []struct {
		name     string
		types    []EventType
		expected string
	}{
		{"new construction tops priority", []EventType{EventDemolition, EventNewBuilding, EventMajorAlteration}, "New building going up"},
		{"plural new construction", []EventType{EventNewBuilding, EventNewBuilding}, "2 new buildings going up"},
		{"demolition before major work", []EventType{EventMajorAlteration, EventDemolition}, "Demolition in progress"},
		{"plural demolitions", []EventType{EventDemolition, EventDemolition, EventDemolition}, "3 demolitions in progress"},
		{"major work before public projects", []EventType{EventCapitalProjectActive, EventMajorAlteration}, "Major renovation in progress"},
		{"public project", []EventType{EventCapitalProjectPlanned}, "Public works project underway"},
		{"minor work last", []EventType{EventMinorAlteration}, "Minor work in progress"},
		{"generic fallback", []EventType{EventViolationIssued}, "Change activity on record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, composeHeadline(countNarrativeEvents(eventsOf(tt.types...))))
		})
	}
}

func TestComposeNarrative_DiscussionTone(t *testing.T) {
	freezeClock(t)

	t.Run("discussion certainty rewrites to review tone", func(t *testing.T) {
		n := ComposeNarrative(eventsOf(EventNewBuilding), NatureDensification, CertaintyDiscussion, PhaseEstimate{})
		assert.Equal(t, "New building under review", n.Headline)
	})

	t.Run("stronger certainty keeps progress tone", func(t *testing.T) {
		n := ComposeNarrative(eventsOf(EventNewBuilding), NatureDensification, CertaintyProbable, PhaseEstimate{})
		assert.Equal(t, "New building going up", n.Headline)
	})

	t.Run("rewrite applies to every template", func(t *testing.T) {
		n := ComposeNarrative(eventsOf(EventDemolition), NatureDemolition, CertaintyDiscussion, PhaseEstimate{})
		assert.Equal(t, "Demolition under review", n.Headline)

		n = ComposeNarrative(eventsOf(EventCapitalProjectPlanned), NatureInfrastructure, CertaintyDiscussion, PhaseEstimate{})
		assert.Equal(t, "Public works project under review", n.Headline)
	})
}

func TestComposeOneLiner(t *testing.T) {
	tests := []struct {
		name     string
		types    []EventType
		expected string
	}{
		{
			"joins every non-zero category",
			[]EventType{EventNewBuilding, EventNewBuilding, EventDemolition, EventCapitalProjectActive},
			"2 new building filings, 1 demolition filing, 1 public project",
		},
		{"single category", []EventType{EventMajorAlteration}, "1 major alteration filing"},
		{"minor work fallback", []EventType{EventMinorAlteration, EventMinorAlteration}, "2 minor work filings"},
		{"generic when nothing counted", []EventType{EventViolationIssued}, "Municipal records on file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, composeOneLiner(countNarrativeEvents(eventsOf(tt.types...))))
		})
	}
}

func TestComposeDisruptionSummary(t *testing.T) {
	freezeClock(t) // now = 2024-06-15

	window := func(start, end string) PhaseEstimate {
		s, e := day(start), day(end)
		return PhaseEstimate{DisruptionStart: &s, DisruptionEnd: &e}
	}

	t.Run("nil without a full window", func(t *testing.T) {
		s := day("2024-01-01")
		assert.Nil(t, composeDisruptionSummary(PhaseEstimate{}))
		assert.Nil(t, composeDisruptionSummary(PhaseEstimate{DisruptionStart: &s}))
		assert.Nil(t, composeDisruptionSummary(PhaseEstimate{DisruptionEnd: &s}))
	})

	t.Run("past window within one year", func(t *testing.T) {
		s := composeDisruptionSummary(window("2024-01-10", "2024-04-20"))
		require.NotNil(t, s)
		assert.Equal(t, "Disruption ran from January to April 2024.", *s)
	})

	t.Run("past window across years", func(t *testing.T) {
		s := composeDisruptionSummary(window("2022-11-01", "2024-03-15"))
		require.NotNil(t, s)
		assert.Equal(t, "Disruption ran from November 2022 to March 2024.", *s)
	})

	t.Run("window spanning now", func(t *testing.T) {
		s := composeDisruptionSummary(window("2024-02-01", "2025-03-01"))
		require.NotNil(t, s)
		assert.Equal(t, "Disruption ongoing, expected to continue until March 2025.", *s)
	})

	t.Run("window fully ahead", func(t *testing.T) {
		s := composeDisruptionSummary(window("2024-09-01", "2025-06-01"))
		require.NotNil(t, s)
		assert.Equal(t, "Disruption expected to begin September 2024.", *s)
	})
}
