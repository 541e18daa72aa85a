package domain

import "time"

// RawData field names the estimator is allowed to inspect. These are the
// normalized keys collectors preserve from each dataset; everything else in
// the payload is opaque to the engine.
const (
	fieldConstructionStart = "construction_start_date" // capital projects: ground-truth start
	fieldWorkStart         = "work_start_date"         // permits: verified construction start
	fieldIssuance          = "issuance_date"           // permits: proves filing, not work
	fieldCertificate       = "certificate_of_occupancy_date"
	fieldApproval          = "approval_date"   // zoning: review completed/approved
	fieldExpiration        = "expiration_date" // permits: last day the permit is valid
)

// permitLikeTypes are the filing kinds whose event date serves as the
// last-resort start estimate when no stronger signal exists.
var permitLikeTypes = map[EventType]bool{
	EventNewBuilding:     true,
	EventMajorAlteration: true,
	EventDemolition:      true,
	EventFoundationWork:  true,
}

// completionEventTypes are explicit did-finish signals. Only these, or a
// certificate-of-occupancy record, may set a disruption end date.
var completionEventTypes = map[EventType]bool{
	EventConstructionCompleted:   true,
	EventCapitalProjectCompleted: true,
}

// dateRule is one step of a first-match-wins cascade: find scans the
// (already date-sorted) events and reports a date, estimated says whether
// that date is a proxy rather than a documented milestone.
type dateRule struct {
	estimated bool
	find      func(events []RawEvent) (time.Time, bool)
}

// startRules is the disruption-start cascade in strict priority order:
// an explicit started event beats a capital project's ground-truth start
// field, which beats a permit's verified work start, which beats the
// issuance date (work may lag issuance by months, hence estimated), which
// beats the earliest permit-like filing date.
var startRules = []dateRule{
	{estimated: false, find: findEventDate(EventConstructionStarted)},
	{estimated: false, find: findRawDate(SourceCapitalProjects, fieldConstructionStart)},
	{estimated: false, find: findRawDate(SourceBuildingPermits, fieldWorkStart)},
	{estimated: true, find: findRawDate(SourceBuildingPermits, fieldIssuance)},
	{estimated: true, find: findEarliestOfTypes(permitLikeTypes)},
}

// endRules is the disruption-end cascade. There is deliberately no
// estimation step: without real completion evidence the end stays nil
// rather than implying false certainty about when disruption stops.
var endRules = []dateRule{
	{estimated: false, find: findEventDateIn(completionEventTypes)},
	{estimated: false, find: findCertificateDate},
}

// EstimatePhases derives the disruption window, milestone dates, and
// lifecycle status from a place's events. Events must already be in the
// deterministic (date, source, sourceID, type) order produced by
// ComposeState so that same-date field lookups resolve the same way on
// every recompute.
func EstimatePhases(events []RawEvent) PhaseEstimate {
	p := PhaseEstimate{}

	for _, r := range startRules {
		if d, ok := r.find(events); ok {
			p.DisruptionStart = &d
			p.IsEstimatedStart = r.estimated
			break
		}
	}

	for _, r := range endRules {
		if d, ok := r.find(events); ok {
			p.DisruptionEnd = &d
			p.IsEstimatedEnd = r.estimated
			break
		}
	}

	p.VisibleChangeDate = p.DisruptionEnd
	p.UsageChangeDate = usageChangeDate(events, p.DisruptionEnd)

	if d, ok := findRawDate(SourceZoningApplications, fieldApproval)(events); ok {
		p.ApprovalDate = &d
	}
	if d, ok := findLatestRawDate(SourceBuildingPermits, fieldExpiration)(events); ok {
		p.PermitExpiration = &d
	}

	p.ProjectStatus = deriveProjectStatus(p, events)
	return p
}

// usageChangeDate is when the place's use actually changes: the
// certificate-of-occupancy date when one exists, otherwise the real
// disruption end. Estimated starts never produce a usage date.
func usageChangeDate(events []RawEvent, end *time.Time) *time.Time {
	if d, ok := findEventDate(EventCertificateOfOccupancy)(events); ok {
		return &d
	}
	if d, ok := findCertificateDate(events); ok {
		return &d
	}
	return end
}

// deriveProjectStatus walks an ordered decision list against the current
// clock; the first matching state wins.
//
//  1. completed: a real end date has passed.
//  2. stalled: the last permit lapsed with no completion evidence.
//  3. active: work started and has not ended.
//  4. approved: a zoning approval or any permit filing exists.
//  5. planning: everything else.
func deriveProjectStatus(p PhaseEstimate, events []RawEvent) ProjectStatus {
	now := clock.Now()

	if p.DisruptionEnd != nil && !p.DisruptionEnd.After(now) {
		return StatusCompleted
	}
	if p.PermitExpiration != nil && p.PermitExpiration.Before(now) && p.DisruptionEnd == nil {
		return StatusStalled
	}
	if p.DisruptionStart != nil && !p.DisruptionStart.After(now) &&
		(p.DisruptionEnd == nil || p.DisruptionEnd.After(now)) {
		return StatusActive
	}
	if p.ApprovalDate != nil || hasAnyType(events, EventNewBuilding, EventMajorAlteration, EventDemolition) {
		return StatusApproved
	}
	return StatusPlanning
}

// --- cascade extractors ---

func findEventDate(t EventType) func([]RawEvent) (time.Time, bool) {
	return func(events []RawEvent) (time.Time, bool) {
		for _, e := range events {
			if e.EventType == t {
				return e.EventDate, true
			}
		}
		return time.Time{}, false
	}
}

func findEventDateIn(types map[EventType]bool) func([]RawEvent) (time.Time, bool) {
	return func(events []RawEvent) (time.Time, bool) {
		for _, e := range events {
			if types[e.EventType] {
				return e.EventDate, true
			}
		}
		return time.Time{}, false
	}
}

// findRawDate returns the first parseable value of a payload field among
// events of one source. Malformed or missing values are skipped, not
// errors.
func findRawDate(src Source, field string) func([]RawEvent) (time.Time, bool) {
	return func(events []RawEvent) (time.Time, bool) {
		for _, e := range events {
			if e.Source != src {
				continue
			}
			if d, ok := parseRawDate(e.RawData[field]); ok {
				return d, true
			}
		}
		return time.Time{}, false
	}
}

// findLatestRawDate scans all events of one source and keeps the latest
// parseable value of a field. Used for permit expiration, where several
// permits lapse at different times and the last-to-lapse is the one that
// matters.
func findLatestRawDate(src Source, field string) func([]RawEvent) (time.Time, bool) {
	return func(events []RawEvent) (time.Time, bool) {
		var latest time.Time
		found := false
		for _, e := range events {
			if e.Source != src {
				continue
			}
			d, ok := parseRawDate(e.RawData[field])
			if !ok {
				continue
			}
			if !found || d.After(latest) {
				latest = d
				found = true
			}
		}
		return latest, found
	}
}

func findEarliestOfTypes(types map[EventType]bool) func([]RawEvent) (time.Time, bool) {
	return func(events []RawEvent) (time.Time, bool) {
		var earliest time.Time
		found := false
		for _, e := range events {
			if !types[e.EventType] {
				continue
			}
			if !found || e.EventDate.Before(earliest) {
				earliest = e.EventDate
				found = true
			}
		}
		return earliest, found
	}
}

// findCertificateDate looks for a certificate-of-occupancy date on permit
// records — the strongest documentary completion proof short of an explicit
// completed event.
func findCertificateDate(events []RawEvent) (time.Time, bool) {
	return findRawDate(SourceBuildingPermits, fieldCertificate)(events)
}

func hasAnyType(events []RawEvent, types ...EventType) bool {
	for _, e := range events {
		for _, t := range types {
			if e.EventType == t {
				return true
			}
		}
	}
	return false
}

// parseRawDate accepts the two date encodings collectors emit: a bare
// civil date or full RFC 3339. Anything else reads as absent.
func parseRawDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, true
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d, true
	}
	return time.Time{}, false
}
