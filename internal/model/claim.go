package model

import "time"

// ClaimStatus is the lifecycle status of a claim.
type ClaimStatus string

const (
	ClaimStatusSubmitted ClaimStatus = "submitted"
	ClaimStatusAssessed  ClaimStatus = "assessed"
)

// SeverityLevel is the coarse damage-cost/risk bucket assigned by the
// assessment stages.
type SeverityLevel string

const (
	SeverityLow        SeverityLevel = "low"
	SeverityMedium     SeverityLevel = "medium"
	SeverityHigh       SeverityLevel = "high"
	SeverityCritical   SeverityLevel = "critical"
	SeverityFraudulent SeverityLevel = "fraudulent"
)

// RoutingDecision is the human/automated track a claim is sent to next.
type RoutingDecision string

const (
	RoutingStraightThrough    RoutingDecision = "straight_through"
	RoutingJuniorAdjuster     RoutingDecision = "junior_adjuster"
	RoutingSeniorAdjuster     RoutingDecision = "senior_adjuster"
	RoutingSpecialist         RoutingDecision = "specialist"
	RoutingFraudInvestigation RoutingDecision = "fraud_investigation"
)

// VehicleDetails describes the insured vehicle on a claim. All fields are
// optional at intake; the document extractor may pre-fill empty ones.
type VehicleDetails struct {
	Make            string     `json:"vehicle_make,omitempty"`
	Model           string     `json:"vehicle_model,omitempty"`
	Year            int        `json:"vehicle_year,omitempty"`
	VIN             string     `json:"vehicle_vin,omitempty"`
	LicensePlate    string     `json:"vehicle_license_plate,omitempty"`
	OwnershipStatus string     `json:"vehicle_ownership_status,omitempty"`
	Odometer        int64      `json:"vehicle_odometer,omitempty"`
	PurchaseDate    *time.Time `json:"vehicle_purchase_date,omitempty"`
}

// Claim is the aggregate root of one FNOL case.
// Severity, routing and confidence are set together on the transition to
// assessed, never individually.
type Claim struct {
	ID                string           `json:"id"`
	ClaimNumber       string           `json:"claim_number"`
	PolicyNumber      string           `json:"policy_number"`
	PolicyStatus      string           `json:"policy_status"`
	IncidentType      string           `json:"incident_type"`
	IncidentDate      time.Time        `json:"incident_date"`
	Description       string           `json:"description,omitempty"`
	Location          string           `json:"location,omitempty"`
	Vehicle           VehicleDetails   `json:"vehicle"`
	Status            ClaimStatus      `json:"status"`
	SeverityLevel     *SeverityLevel   `json:"severity_level,omitempty"`
	ConfidenceScore   *float64         `json:"confidence_score,omitempty"`
	RoutingDecision   *RoutingDecision `json:"routing_decision,omitempty"`
	Assessment        *AssessmentDoc   `json:"ai_assessment,omitempty"`
	PolicyDocumentURL string           `json:"policy_document_url,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ClaimFile is one uploaded artifact (photo or document) tied to a claim.
// Files are immutable after creation and never deleted.
type ClaimFile struct {
	ID             string    `json:"id"`
	ClaimID        string    `json:"claim_id"`
	FileName       string    `json:"file_name"`
	FileType       string    `json:"file_type"`
	StorageKey     string    `json:"-"`
	FileURL        string    `json:"file_url"`
	FileSize       int64     `json:"file_size"`
	DamageDetected []string  `json:"damage_detected,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClaimQuestion is one adaptive follow-up question asked of a claimant.
// Questions get a stable ID at creation; answers are matched by that ID, not
// by question text. Answer and AnsweredAt are always set together.
type ClaimQuestion struct {
	ID           string     `json:"id"`
	ClaimID      string     `json:"claim_id"`
	Question     string     `json:"question"`
	QuestionType string     `json:"question_type"`
	IsRequired   bool       `json:"is_required"`
	Answer       *string    `json:"answer,omitempty"`
	AskedAt      time.Time  `json:"asked_at"`
	AnsweredAt   *time.Time `json:"answered_at,omitempty"`
}

// Answered reports whether the question has a non-nil answer.
func (q *ClaimQuestion) Answered() bool {
	return q.Answer != nil && q.AnsweredAt != nil
}
