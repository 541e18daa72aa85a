package domain

// intensityWeights maps each event type to its contribution to the 0-100
// intensity score. Values reflect how disruptive each filing kind is on the
// ground: a new-building permit outweighs a utility cut, a complaint barely
// registers. Types absent from the table (and unknown types) weigh zero.
var intensityWeights = map[EventType]int{
	EventNewBuilding:             50,
	EventDemolition:              35,
	EventMajorAlteration:         30,
	EventCapitalProjectActive:    30,
	EventConstructionStarted:     25,
	EventFoundationWork:          25,
	EventZoningApproved:          25,
	EventPermitIssued:            20,
	EventCapitalProjectPlanned:   20,
	EventZoningCertified:         18,
	EventConstructionCompleted:   15,
	EventCertificateOfOccupancy:  15,
	EventZoningFiled:             15,
	EventStreetWork:              12,
	EventEnvironmentalReview:     10,
	EventStopWorkOrder:           10,
	EventCapitalProjectCompleted: 10,
	EventLandmarkApplication:     8,
	EventUtilityWork:             8,
	EventPermitRenewed:           5,
	EventViolationIssued:         4,
	EventMinorAlteration:         3,
	EventPermitExpired:           2,
	EventComplaintFiled:          2,
}

// cumulativeType is the one event type whose repeats keep adding to the
// score. Minor alterations are small individually but a long run of them
// signals sustained change; every other type counts once per place no
// matter how often it is re-filed.
const cumulativeType = EventMinorAlteration

// ScoreIntensity reduces a place's events to a single 0-100 change-activity
// score. Each non-cumulative type contributes its weight the first time it
// appears; the cumulative type contributes on every occurrence. The running
// sum is clamped to [0, 100] only after all events are counted, and an empty
// set scores zero. The result is order-independent.
func ScoreIntensity(events []RawEvent) int {
	sum := 0
	seen := make(map[EventType]bool, len(events))

	for _, e := range events {
		if e.EventType == cumulativeType {
			sum += intensityWeights[cumulativeType]
			continue
		}
		if seen[e.EventType] {
			continue
		}
		seen[e.EventType] = true
		sum += intensityWeights[e.EventType]
	}

	if sum > 100 {
		return 100
	}
	if sum < 0 {
		return 0
	}
	return sum
}
