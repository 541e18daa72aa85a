package domain

import "sort"

// natureOf maps substantive event types to the kind of change they signal.
// Progress markers (construction started/completed, permits, certificates)
// and noise (violations, complaints) are deliberately absent: they say that
// something is happening, not what.
var natureOf = map[EventType]Nature{
	EventNewBuilding:             NatureDensification,
	EventFoundationWork:          NatureDensification,
	EventZoningFiled:             NatureDensification,
	EventZoningCertified:         NatureDensification,
	EventZoningApproved:          NatureDensification,
	EventMajorAlteration:         NatureRenovation,
	EventMinorAlteration:         NatureRenovation,
	EventLandmarkApplication:     NatureRenovation,
	EventDemolition:              NatureDemolition,
	EventCapitalProjectPlanned:   NatureInfrastructure,
	EventCapitalProjectActive:    NatureInfrastructure,
	EventCapitalProjectCompleted: NatureInfrastructure,
	EventStreetWork:              NatureInfrastructure,
	EventUtilityWork:             NatureInfrastructure,
}

// natureSignificance weights the vote when several natures are present.
// New construction reshapes a block more than a renovation of equal filing
// volume, so densification votes count for more.
var natureSignificance = map[Nature]int{
	NatureDensification:  5,
	NatureDemolition:     4,
	NatureInfrastructure: 3,
	NatureRenovation:     2,
}

// NatureAmbiguityMargin is the minimum weighted-score gap between the top
// two natures before one is declared dominant. Below it the signal is
// considered ambiguous and the place reports mixed. This is a product
// tuning constant, not a derived value.
const NatureAmbiguityMargin = 3

// ClassifyNature determines the dominant kind of change among a place's
// events. With no substantive signal it returns mixed; with exactly one
// nature present it returns that nature; otherwise each nature scores
// occurrence count times its significance weight and the top score wins
// unless the runner-up is within NatureAmbiguityMargin.
func ClassifyNature(events []RawEvent) Nature {
	counts := make(map[Nature]int)
	for _, e := range events {
		if n, ok := natureOf[e.EventType]; ok {
			counts[n]++
		}
	}
	return dominantNature(counts)
}

// dominantNature applies the weighted vote to per-nature occurrence counts.
// Shared with the heatmap aggregator, which votes over cell members' nature
// values with the same weights.
func dominantNature(counts map[Nature]int) Nature {
	switch len(counts) {
	case 0:
		return NatureMixed
	case 1:
		for n := range counts {
			return n
		}
	}

	type scored struct {
		nature Nature
		score  int
	}
	scores := make([]scored, 0, len(counts))
	for n, c := range counts {
		scores = append(scores, scored{nature: n, score: c * natureSignificance[n]})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].nature < scores[j].nature
	})

	if scores[0].score-scores[1].score < NatureAmbiguityMargin {
		return NatureMixed
	}
	return scores[0].nature
}
