// Command genmock generates deterministic place snapshot fixtures and their
// computed transformation states. It uses the actual domain package under a
// fixed clock, so regenerated fixtures always match real engine behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -count 200 \
//	  -snapshots-out data/mock/place_snapshots.json \
//	  -states-out data/mock/transformation_states.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/citysignal/transform-engine/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Generation window: events land between windowStart and the fixed "now".
var (
	fixedNow    = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	windowStart = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Lower Manhattan bounding box for generated coordinates.
const (
	latMin = 40.70
	latMax = 40.73
	lngMin = -74.02
	lngMax = -73.99
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	count := flag.Int("count", 200, "number of places to generate")
	seed := flag.Int64("seed", 240615, "random seed for reproducible fixtures")
	resolution := flag.Int("resolution", 8, "heatmap resolution for stats")
	snapshotsOut := flag.String("snapshots-out", "", "output path for place snapshot fixtures")
	statesOut := flag.String("states-out", "", "output path for computed state fixtures")
	flag.Parse()

	if *snapshotsOut == "" || *statesOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -snapshots-out, -states-out")
	}

	// Fix the clock for reproducible ComputedAt timestamps and status
	// derivation.
	domain.SetClock(clockwork.NewFakeClockAt(fixedNow))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))

	snapshots := make([]domain.PlaceSnapshot, 0, *count)
	records := make([]domain.StateRecord, 0, *count)

	for i := 0; i < *count; i++ {
		snap := generateSnapshot(rng, i)
		state := domain.ComposeState(snap.Place, snap.Events)
		snapshots = append(snapshots, snap)
		records = append(records, domain.StateRecord{Place: snap.Place, State: state})
	}

	if err := writeJSON(*snapshotsOut, snapshots); err != nil {
		return fmt.Errorf("writing snapshot fixture: %w", err)
	}
	log.Printf("wrote snapshot fixture: %s (%d places)", *snapshotsOut, len(snapshots))

	if err := writeJSON(*statesOut, records); err != nil {
		return fmt.Errorf("writing state fixture: %w", err)
	}
	log.Printf("wrote state fixture: %s", *statesOut)

	printStats(records, *resolution)
	return nil
}

// scenario is a weighted template of event histories observed in municipal
// data: which types occur and roughly when relative to the project start.
// lapsedPermit marks scenarios whose issued permit expires before the fixed
// "now", which is what pushes a place into the stalled status.
type scenario struct {
	name         string
	weight       int
	lapsedPermit bool
	types        []domain.EventType
}

var scenarios = []scenario{
	{name: "new_tower", weight: 3, types: []domain.EventType{
		domain.EventZoningFiled, domain.EventZoningApproved, domain.EventNewBuilding,
		domain.EventPermitIssued, domain.EventConstructionStarted,
	}},
	{name: "teardown", weight: 2, types: []domain.EventType{
		domain.EventDemolition, domain.EventPermitIssued,
	}},
	{name: "gut_renovation", weight: 3, types: []domain.EventType{
		domain.EventMajorAlteration, domain.EventPermitIssued, domain.EventConstructionStarted,
	}},
	{name: "completed_build", weight: 2, types: []domain.EventType{
		domain.EventNewBuilding, domain.EventPermitIssued, domain.EventConstructionStarted,
		domain.EventConstructionCompleted, domain.EventCertificateOfOccupancy,
	}},
	{name: "stalled_site", weight: 1, lapsedPermit: true, types: []domain.EventType{
		domain.EventNewBuilding, domain.EventPermitIssued, domain.EventStopWorkOrder,
	}},
	{name: "approved_rezoning", weight: 2, types: []domain.EventType{
		domain.EventZoningFiled, domain.EventZoningCertified, domain.EventZoningApproved,
	}},
	{name: "public_works", weight: 2, types: []domain.EventType{
		domain.EventCapitalProjectPlanned, domain.EventCapitalProjectActive,
		domain.EventStreetWork,
	}},
	{name: "paper_only", weight: 2, types: []domain.EventType{
		domain.EventZoningFiled, domain.EventEnvironmentalReview,
	}},
	{name: "minor_churn", weight: 3, types: []domain.EventType{
		domain.EventMinorAlteration, domain.EventMinorAlteration,
		domain.EventMinorAlteration, domain.EventComplaintFiled,
	}},
}

func pickScenario(rng *rand.Rand) scenario {
	total := 0
	for _, s := range scenarios {
		total += s.weight
	}
	n := rng.Intn(total)
	for _, s := range scenarios {
		n -= s.weight
		if n < 0 {
			return s
		}
	}
	return scenarios[0]
}

var sourceOf = map[domain.EventType]domain.Source{
	domain.EventZoningFiled:            domain.SourceZoningApplications,
	domain.EventZoningCertified:        domain.SourceZoningApplications,
	domain.EventZoningApproved:         domain.SourceZoningApplications,
	domain.EventEnvironmentalReview:    domain.SourceEnvironmentalReviews,
	domain.EventCapitalProjectPlanned:  domain.SourceCapitalProjects,
	domain.EventCapitalProjectActive:   domain.SourceCapitalProjects,
	domain.EventStreetWork:             domain.SourceCapitalProjects,
	domain.EventViolationIssued:        domain.SourceBuildingViolations,
	domain.EventComplaintFiled:         domain.SourceServiceComplaints,
}

func sourceFor(t domain.EventType) domain.Source {
	if s, ok := sourceOf[t]; ok {
		return s
	}
	return domain.SourceBuildingPermits
}

func generateSnapshot(rng *rand.Rand, n int) domain.PlaceSnapshot {
	placeID := fmt.Sprintf("place-%04d", n)
	place := domain.Place{
		ID:   placeID,
		Name: fmt.Sprintf("%d Mock Street", 100+n),
		Geo: domain.Geo{
			Lat: latMin + rng.Float64()*(latMax-latMin),
			Lng: lngMin + rng.Float64()*(lngMax-lngMin),
		},
	}

	sc := pickScenario(rng)
	window := fixedNow.Sub(windowStart)
	start := windowStart.Add(time.Duration(rng.Int63n(int64(window) * 3 / 4)))

	events := make([]domain.RawEvent, 0, len(sc.types))
	for i, t := range sc.types {
		// Successive events land 2-10 weeks apart.
		gap := time.Duration(14+rng.Intn(56)) * 24 * time.Hour
		date := start.Add(time.Duration(i) * gap)

		raw := map[string]string{}
		switch t {
		case domain.EventPermitIssued:
			raw["issuance_date"] = date.Format("2006-01-02")
			if sc.lapsedPermit {
				// Three-month permits always lapse before the fixed now.
				raw["expiration_date"] = date.AddDate(0, 3, 0).Format("2006-01-02")
			}
		case domain.EventCertificateOfOccupancy:
			raw["certificate_of_occupancy_date"] = date.Format("2006-01-02")
		case domain.EventZoningApproved:
			raw["approval_date"] = date.Format("2006-01-02")
		case domain.EventConstructionStarted:
			raw["work_start_date"] = date.Format("2006-01-02")
		}

		events = append(events, domain.RawEvent{
			PlaceID:   placeID,
			Source:    sourceFor(t),
			SourceID:  fmt.Sprintf("%s-%04d-%d", sc.name, n, i),
			EventType: t,
			EventDate: date,
			RawData:   raw,
		})
	}

	return domain.PlaceSnapshot{Place: place, Events: events}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(records []domain.StateRecord, resolution int) {
	statusCounts := map[domain.ProjectStatus]int{}
	certaintyCounts := map[domain.Certainty]int{}
	natureCounts := map[domain.Nature]int{}
	var intensity50plus, estimatedStarts int

	points := make([]domain.PlacePoint, 0, len(records))
	for _, rec := range records {
		statusCounts[rec.State.ProjectStatus]++
		certaintyCounts[rec.State.Certainty]++
		natureCounts[rec.State.Nature]++
		if rec.State.Intensity >= 50 {
			intensity50plus++
		}
		if rec.State.IsEstimatedStart {
			estimatedStarts++
		}
		points = append(points, domain.PointFromState(rec.Place, rec.State))
	}

	cells := domain.AggregateHeatmap(points, resolution)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(records))
	fmt.Printf("By status: planning=%d, approved=%d, active=%d, completed=%d, stalled=%d\n",
		statusCounts[domain.StatusPlanning], statusCounts[domain.StatusApproved],
		statusCounts[domain.StatusActive], statusCounts[domain.StatusCompleted],
		statusCounts[domain.StatusStalled])
	fmt.Printf("By certainty: discussion=%d, probable=%d, certain=%d\n",
		certaintyCounts[domain.CertaintyDiscussion], certaintyCounts[domain.CertaintyProbable],
		certaintyCounts[domain.CertaintyCertain])
	fmt.Printf("By nature: densification=%d, demolition=%d, renovation=%d, infrastructure=%d, mixed=%d\n",
		natureCounts[domain.NatureDensification], natureCounts[domain.NatureDemolition],
		natureCounts[domain.NatureRenovation], natureCounts[domain.NatureInfrastructure],
		natureCounts[domain.NatureMixed])
	fmt.Printf("Intensity >= 50: %d\n", intensity50plus)
	fmt.Printf("Estimated starts: %d\n", estimatedStarts)
	fmt.Printf("Heatmap cells at resolution %d: %d\n", resolution, len(cells))
}
