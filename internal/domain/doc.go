// Package domain computes the transformation state of physical places from
// normalized municipal records.
//
// # Data Sources
//
// Upstream collectors pull six municipal datasets — building permits,
// building violations, service complaints, zoning applications, capital
// projects, and environmental reviews — normalize each record to a common
// [RawEvent] shape, and publish a place's complete event set as one
// snapshot. The engine never talks to a source system: it sees only the
// closed [EventType] vocabulary plus the handful of payload date fields
// documented in phases.go.
//
// # Intensity
//
// Each event type carries a fixed weight in the 0-50 range (see
// intensity.go). Weights add once per type per place, except the single
// cumulative type (minor alterations), whose repeats keep adding — a dozen
// small filings over two years is real change, a dozen re-filings of the
// same demolition permit is not. The sum clamps to [0, 100] at the end.
//
// # Certainty and Nature
//
// Certainty is a three-tier precedence check: any event in the certain set
// wins over any in the probable set, which wins over discussion. Nature is
// a weighted vote over the substantive change kinds present; when the top
// two scores sit within [NatureAmbiguityMargin] of each other the place
// reports mixed rather than guessing.
//
// # Phase Dates
//
// Start and end dates come from ordered first-match-wins cascades. Start
// dates degrade gracefully from documented milestones to proxy signals and
// say so via IsEstimatedStart. End dates never degrade: absent real
// completion evidence (an explicit completed event or a certificate of
// occupancy) the end date stays nil. Callers must surface the
// estimated-vs-real distinction to users instead of treating estimates as
// fact.
//
// # Determinism
//
// Every function here is pure over its inputs plus the package clock.
// ComposeState sorts events by (date, source, sourceID, type) before any
// scan, so recomputing an unchanged event set under a frozen clock yields a
// byte-identical state. Computations for different places share nothing
// and are safe to run concurrently.
//
// # Heatmap Cells
//
// AggregateHeatmap buckets per-place results into Uber H3 hexagons at a
// caller-chosen resolution (finer resolution, smaller cells). Resolution 8
// cells average ~0.74 km² — about neighborhood scale — and are the default
// for map serving.
package domain
