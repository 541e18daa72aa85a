package domain

import "time"

// Source identifies the municipal dataset an event was normalized from.
type Source string

const (
	SourceBuildingPermits      Source = "building_permits"
	SourceBuildingViolations   Source = "building_violations"
	SourceServiceComplaints    Source = "service_complaints"
	SourceZoningApplications   Source = "zoning_applications"
	SourceCapitalProjects      Source = "capital_projects"
	SourceEnvironmentalReviews Source = "environmental_reviews"
)

// EventType is the closed set of normalized municipal event kinds.
// Collectors map each dataset's raw records onto these values; anything
// they cannot map is dropped upstream, so unknown values reaching the
// engine score zero and classify as nothing rather than failing.
type EventType string

const (
	EventNewBuilding             EventType = "new_building"
	EventDemolition              EventType = "demolition"
	EventMajorAlteration         EventType = "major_alteration"
	EventMinorAlteration         EventType = "minor_alteration"
	EventFoundationWork          EventType = "foundation_work"
	EventConstructionStarted     EventType = "construction_started"
	EventConstructionCompleted   EventType = "construction_completed"
	EventCertificateOfOccupancy  EventType = "certificate_of_occupancy"
	EventPermitIssued            EventType = "permit_issued"
	EventPermitRenewed           EventType = "permit_renewed"
	EventPermitExpired           EventType = "permit_expired"
	EventStopWorkOrder           EventType = "stop_work_order"
	EventZoningFiled             EventType = "zoning_filed"
	EventZoningCertified         EventType = "zoning_certified"
	EventZoningApproved          EventType = "zoning_approved"
	EventZoningWithdrawn         EventType = "zoning_withdrawn"
	EventEnvironmentalReview     EventType = "environmental_review"
	EventLandmarkApplication     EventType = "landmark_application"
	EventCapitalProjectPlanned   EventType = "capital_project_planned"
	EventCapitalProjectActive    EventType = "capital_project_construction"
	EventCapitalProjectCompleted EventType = "capital_project_completed"
	EventStreetWork              EventType = "street_work"
	EventUtilityWork             EventType = "utility_work"
	EventViolationIssued         EventType = "violation_issued"
	EventComplaintFiled          EventType = "complaint_filed"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a stable real-world location tracked by the system. Ingestion
// supplies it alongside the place's full normalized event set.
type Place struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Address  string `json:"address,omitempty"`
	District string `json:"district,omitempty"`
	Geo      Geo    `json:"geo"`
}

// RawEvent is a single dated, typed occurrence at a place, already
// normalized from whichever municipal dataset produced it. RawData holds
// the source's original key-value payload; the engine only inspects the
// handful of date fields documented in the phase estimator.
type RawEvent struct {
	PlaceID   string            `json:"place_id"`
	Source    Source            `json:"source"`
	SourceID  string            `json:"source_id,omitempty"`
	EventType EventType         `json:"event_type"`
	EventDate time.Time         `json:"event_date"`
	RawData   map[string]string `json:"raw_data,omitempty"`
}

// Nature is the dominant category of change at a place.
type Nature string

const (
	NatureDensification  Nature = "densification"
	NatureRenovation     Nature = "renovation"
	NatureDemolition     Nature = "demolition"
	NatureInfrastructure Nature = "infrastructure"
	NatureMixed          Nature = "mixed"
)

// Certainty is the confidence that a change will actually happen,
// ordered discussion < probable < certain.
type Certainty string

const (
	CertaintyDiscussion Certainty = "discussion"
	CertaintyProbable   Certainty = "probable"
	CertaintyCertain    Certainty = "certain"
)

// ProjectStatus summarizes where a place's project sits in its lifecycle.
type ProjectStatus string

const (
	StatusPlanning  ProjectStatus = "planning"
	StatusApproved  ProjectStatus = "approved"
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusStalled   ProjectStatus = "stalled"
)

// PhaseEstimate holds the disruption window, milestone dates, and derived
// lifecycle status for a place. Start dates may be estimated from proxy
// signals; end dates are only ever set from real completion evidence, so
// IsEstimatedEnd exists for schema symmetry but no rule sets it today.
type PhaseEstimate struct {
	DisruptionStart   *time.Time    `json:"disruption_start,omitempty"`
	DisruptionEnd     *time.Time    `json:"disruption_end,omitempty"`
	VisibleChangeDate *time.Time    `json:"visible_change_date,omitempty"`
	UsageChangeDate   *time.Time    `json:"usage_change_date,omitempty"`
	IsEstimatedStart  bool          `json:"is_estimated_start"`
	IsEstimatedEnd    bool          `json:"is_estimated_end"`
	ApprovalDate      *time.Time    `json:"approval_date,omitempty"`
	PermitExpiration  *time.Time    `json:"permit_expiration,omitempty"`
	ProjectStatus     ProjectStatus `json:"project_status"`
}

// Narrative is the human-facing text summary for a place.
type Narrative struct {
	Headline          string  `json:"headline"`
	OneLiner          string  `json:"one_liner"`
	DisruptionSummary *string `json:"disruption_summary,omitempty"`
}

// TransformationState is the derived, fully recomputable projection of a
// place's event set. It has no identity beyond PlaceID: recomputing from
// an unchanged event set under the same clock yields an identical value.
type TransformationState struct {
	PlaceID   string    `json:"place_id"`
	Intensity int       `json:"intensity"`
	Nature    Nature    `json:"nature"`
	Certainty Certainty `json:"certainty"`

	Headline          string  `json:"headline"`
	OneLiner          string  `json:"one_liner"`
	DisruptionSummary *string `json:"disruption_summary,omitempty"`

	DisruptionStart   *time.Time `json:"disruption_start,omitempty"`
	DisruptionEnd     *time.Time `json:"disruption_end,omitempty"`
	VisibleChangeDate *time.Time `json:"visible_change_date,omitempty"`
	UsageChangeDate   *time.Time `json:"usage_change_date,omitempty"`
	IsEstimatedStart  bool       `json:"is_estimated_start"`
	IsEstimatedEnd    bool       `json:"is_estimated_end"`

	ApprovalDate     *time.Time    `json:"approval_date,omitempty"`
	PermitExpiration *time.Time    `json:"permit_expiration,omitempty"`
	ProjectStatus    ProjectStatus `json:"project_status"`

	EventCount    int        `json:"event_count"`
	FirstActivity *time.Time `json:"first_activity,omitempty"`
	LastActivity  *time.Time `json:"last_activity,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
}

// PlacePoint is the slice of a place's state the heatmap aggregator needs.
type PlacePoint struct {
	PlaceID   string `json:"place_id"`
	Geo       Geo    `json:"geo"`
	Intensity int    `json:"intensity"`
	Nature    Nature `json:"nature"`
}

// HeatmapCell is a hexagonal aggregate of many places at one resolution.
// All fields are derivable by re-running the aggregation; cells are never
// hand-edited.
type HeatmapCell struct {
	CellID         string `json:"cell_id"`
	Resolution     int    `json:"resolution"`
	Center         Geo    `json:"center"`
	Boundary       []Geo  `json:"boundary"`
	AvgIntensity   int    `json:"avg_intensity"`
	MaxIntensity   int    `json:"max_intensity"`
	PlaceCount     int    `json:"place_count"`
	DominantNature Nature `json:"dominant_nature"`
}
