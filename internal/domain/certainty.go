package domain

// Certainty tier sets, strongest first. An event type in the certain set
// documents work that is authorized or physically happening; the probable
// set covers filings that usually proceed; the discussion set covers
// review-stage signals that may never leave paper.
var (
	certainTypes = map[EventType]bool{
		EventConstructionStarted:     true,
		EventConstructionCompleted:   true,
		EventCertificateOfOccupancy:  true,
		EventPermitIssued:            true,
		EventPermitRenewed:           true,
		EventZoningApproved:          true,
		EventCapitalProjectActive:    true,
		EventCapitalProjectCompleted: true,
	}

	probableTypes = map[EventType]bool{
		EventNewBuilding:     true,
		EventDemolition:      true,
		EventMajorAlteration: true,
		EventFoundationWork:  true,
		EventStreetWork:      true,
		EventUtilityWork:     true,
	}

	discussionTypes = map[EventType]bool{
		EventZoningFiled:           true,
		EventZoningCertified:       true,
		EventEnvironmentalReview:   true,
		EventLandmarkApplication:   true,
		EventCapitalProjectPlanned: true,
	}
)

// ClassifyCertainty returns the strongest certainty tier any of the place's
// events belongs to. A place holding both a zoning filing and an issued
// permit reports certain, not discussion. Places with only neutral events
// (violations, complaints) default to discussion.
func ClassifyCertainty(events []RawEvent) Certainty {
	tiers := []struct {
		set   map[EventType]bool
		level Certainty
	}{
		{certainTypes, CertaintyCertain},
		{probableTypes, CertaintyProbable},
		{discussionTypes, CertaintyDiscussion},
	}

	for _, tier := range tiers {
		for _, e := range events {
			if tier.set[e.EventType] {
				return tier.level
			}
		}
	}
	return CertaintyDiscussion
}
