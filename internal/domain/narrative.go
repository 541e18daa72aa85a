package domain

import (
	"fmt"
	"strings"
)

// narrativeCounts tallies the event categories worth talking about.
type narrativeCounts struct {
	newBuildings   int
	demolitions    int
	majorWork      int
	minorWork      int
	publicProjects int
}

func countNarrativeEvents(events []RawEvent) narrativeCounts {
	var c narrativeCounts
	for _, e := range events {
		switch e.EventType {
		case EventNewBuilding:
			c.newBuildings++
		case EventDemolition:
			c.demolitions++
		case EventMajorAlteration:
			c.majorWork++
		case EventMinorAlteration:
			c.minorWork++
		case EventCapitalProjectPlanned, EventCapitalProjectActive, EventCapitalProjectCompleted:
			c.publicProjects++
		}
	}
	return c
}

// reviewToner rewrites progress-toned headlines into review-toned ones for
// places whose strongest signal is still at the discussion stage. Fixed
// phrase substitutions, applied verbatim.
var reviewToner = strings.NewReplacer(
	"going up", "under review",
	"in progress", "under review",
	"underway", "under review",
)

// ComposeNarrative produces the headline, one-liner, and optional
// disruption summary for a place. Phases must come from EstimatePhases on
// the same event set.
func ComposeNarrative(events []RawEvent, nature Nature, certainty Certainty, phases PhaseEstimate) Narrative {
	c := countNarrativeEvents(events)

	headline := composeHeadline(c)
	if certainty == CertaintyDiscussion {
		headline = reviewToner.Replace(headline)
	}

	return Narrative{
		Headline:          headline,
		OneLiner:          composeOneLiner(c),
		DisruptionSummary: composeDisruptionSummary(phases),
	}
}

// composeHeadline picks the most newsworthy category in fixed priority
// order: new construction beats demolition beats major work beats public
// projects beats minor work.
func composeHeadline(c narrativeCounts) string {
	switch {
	case c.newBuildings > 1:
		return fmt.Sprintf("%d new buildings going up", c.newBuildings)
	case c.newBuildings == 1:
		return "New building going up"
	case c.demolitions > 1:
		return fmt.Sprintf("%d demolitions in progress", c.demolitions)
	case c.demolitions == 1:
		return "Demolition in progress"
	case c.majorWork > 1:
		return fmt.Sprintf("%d major renovations in progress", c.majorWork)
	case c.majorWork == 1:
		return "Major renovation in progress"
	case c.publicProjects > 1:
		return fmt.Sprintf("%d public works projects underway", c.publicProjects)
	case c.publicProjects == 1:
		return "Public works project underway"
	case c.minorWork > 0:
		return "Minor work in progress"
	default:
		return "Change activity on record"
	}
}

// composeOneLiner joins a count fragment for every non-zero significant
// category. When only minor work exists it reports that; with nothing
// counted it falls back to a generic phrase.
func composeOneLiner(c narrativeCounts) string {
	var parts []string
	if c.newBuildings > 0 {
		parts = append(parts, countFragment(c.newBuildings, "new building filing"))
	}
	if c.demolitions > 0 {
		parts = append(parts, countFragment(c.demolitions, "demolition filing"))
	}
	if c.majorWork > 0 {
		parts = append(parts, countFragment(c.majorWork, "major alteration filing"))
	}
	if c.publicProjects > 0 {
		parts = append(parts, countFragment(c.publicProjects, "public project"))
	}

	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if c.minorWork > 0 {
		return countFragment(c.minorWork, "minor work filing")
	}
	return "Municipal records on file"
}

// countFragment renders "<count> <category>", pluralized with a plain "s".
// All category names used here pluralize regularly.
func countFragment(count int, singular string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %ss", count, singular)
}

// composeDisruptionSummary renders one of four sentences describing the
// disruption window, or nil unless both ends of the window are known.
// Past windows collapse to a single year mention when start and end share
// one; ongoing and future windows name the month the reader should care
// about.
func composeDisruptionSummary(p PhaseEstimate) *string {
	if p.DisruptionStart == nil || p.DisruptionEnd == nil {
		return nil
	}
	start, end := *p.DisruptionStart, *p.DisruptionEnd
	now := clock.Now()

	var s string
	switch {
	case end.Before(now):
		if start.Year() == end.Year() {
			s = fmt.Sprintf("Disruption ran from %s to %s.",
				start.Format("January"), end.Format("January 2006"))
		} else {
			s = fmt.Sprintf("Disruption ran from %s to %s.",
				start.Format("January 2006"), end.Format("January 2006"))
		}
	case start.After(now):
		s = fmt.Sprintf("Disruption expected to begin %s.", start.Format("January 2006"))
	default:
		s = fmt.Sprintf("Disruption ongoing, expected to continue until %s.", end.Format("January 2006"))
	}
	return &s
}
