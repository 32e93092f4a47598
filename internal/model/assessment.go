package model

// Question types produced by the initial assessment stage.
const (
	QuestionTypeDamageDetails    = "damage_details"
	QuestionTypeIncidentDetails  = "incident_details"
	QuestionTypeCoverage         = "coverage"
	QuestionTypeSafety           = "safety"
	QuestionTypeAdditionalImages = "additional_images"
)

// FollowUpQuestion is one adaptive question returned by the initial
// assessment stage, before it is persisted as a ClaimQuestion.
type FollowUpQuestion struct {
	Question     string `json:"question"`
	QuestionType string `json:"question_type"`
	IsRequired   bool   `json:"is_required"`
	Reasoning    string `json:"reasoning,omitempty"`
}

// VisibleDamageAnalysis captures what the model saw in the damage photos.
type VisibleDamageAnalysis struct {
	DamageTypes      []string `json:"damage_types"`
	AffectedAreas    []string `json:"affected_areas"`
	PreliminaryNotes string   `json:"preliminary_notes"`
}

// ImageAuthenticity is the model's verdict on whether the uploaded photos
// appear genuine.
type ImageAuthenticity struct {
	AppearsAuthentic bool     `json:"appears_authentic"`
	Concerns         []string `json:"concerns,omitempty"`
	ValidationNotes  string   `json:"validation_notes,omitempty"`
	Confidence       float64  `json:"confidence,omitempty"`
}

// VehicleValidation compares the claimed vehicle against what is visible in
// the photos.
type VehicleValidation struct {
	DetailsConsistent bool   `json:"details_consistent"`
	Notes             string `json:"notes,omitempty"`
}

// InitialAssessment is the preliminary triage result produced from incident
// data and damage photos. It carries no routing decision; that is reserved
// for the finalization stage.
type InitialAssessment struct {
	InitialSeverity       SeverityLevel          `json:"initial_severity"`
	ConfidenceScore       float64                `json:"confidence_score"`
	ImageAuthenticity     *ImageAuthenticity     `json:"image_authenticity,omitempty"`
	VehicleValidation     *VehicleValidation     `json:"vehicle_validation,omitempty"`
	VisibleDamageAnalysis *VisibleDamageAnalysis `json:"visible_damage_analysis"`
	FollowUpQuestions     []FollowUpQuestion     `json:"follow_up_questions"`
	Reasoning             string                 `json:"reasoning"`
}

// DamageAssessment is the detailed damage verdict from finalization.
type DamageAssessment struct {
	DamageTypes        []string `json:"damage_types"`
	AffectedAreas      []string `json:"affected_areas"`
	EstimatedCostRange string   `json:"estimated_cost_range"`
	SafetyConcerns     []string `json:"safety_concerns,omitempty"`
	RepairComplexity   string   `json:"repair_complexity"`
	IsDrivable         bool     `json:"is_drivable"`
	TotalLossRisk      string   `json:"total_loss_risk"`
}

// FraudIndicators is the finalization stage's fraud verdict. The
// finalization stage is the only place a fraud judgment originates; every
// other component merely renders it.
type FraudIndicators struct {
	HasRedFlags        bool     `json:"has_red_flags"`
	Concerns           []string `json:"concerns,omitempty"`
	VerificationStatus string   `json:"verification_status,omitempty"`
}

// Recommendations are the next steps suggested by finalization.
type Recommendations struct {
	ImmediateActions      []string `json:"immediate_actions,omitempty"`
	RequiredDocumentation []string `json:"required_documentation,omitempty"`
	EstimatedTimeline     string   `json:"estimated_timeline,omitempty"`
}

// QATakeaway is one tagged insight from the follow-up answer review.
type QATakeaway struct {
	Category string `json:"category"`
	Insight  string `json:"insight"`
}

// QAGap is one gap or concern found while reviewing follow-up answers.
type QAGap struct {
	Severity       string `json:"severity"`
	Issue          string `json:"issue"`
	Recommendation string `json:"recommendation,omitempty"`
}

// QASummary summarizes the credibility of the claimant's follow-up answers.
type QASummary struct {
	CredibilityScore  float64      `json:"credibility_score"`
	OverallImpression string       `json:"overall_impression,omitempty"`
	KeyTakeaways      []QATakeaway `json:"key_takeaways,omitempty"`
	GapsAndConcerns   []QAGap      `json:"gaps_and_concerns,omitempty"`
}

// FinalAssessment is the answer-informed verdict that binds the claim's
// severity, routing and fraud judgment.
type FinalAssessment struct {
	SeverityLevel    SeverityLevel     `json:"severity_level"`
	ConfidenceScore  float64           `json:"confidence_score"`
	RoutingDecision  RoutingDecision   `json:"routing_decision"`
	DamageAssessment *DamageAssessment `json:"damage_assessment"`
	FraudIndicators  *FraudIndicators  `json:"fraud_indicators,omitempty"`
	Recommendations  *Recommendations  `json:"recommendations,omitempty"`
	QASummary        *QASummary        `json:"qa_summary,omitempty"`
	Reasoning        string            `json:"reasoning"`
}

// AssessmentDoc is the assessment payload stored on a claim. The initial
// section is written once at intake; the final section is fully replaced on
// every finalization run (re-finalization overwrites, never merges).
type AssessmentDoc struct {
	Initial *InitialAssessment `json:"initial,omitempty"`
	Final   *FinalAssessment   `json:"final,omitempty"`
}

// InitialOrNil returns the initial section, tolerating a nil document.
func (d *AssessmentDoc) InitialOrNil() *InitialAssessment {
	if d == nil {
		return nil
	}
	return d.Initial
}

// HasFraudSignal reports whether the stored assessment carries any fraud
// red flag or an image-authenticity failure. Used for the "fraud OR
// legitimacy, not both" display rule.
func (d *AssessmentDoc) HasFraudSignal() bool {
	if d == nil {
		return false
	}
	if d.Final != nil && d.Final.FraudIndicators != nil && d.Final.FraudIndicators.HasRedFlags {
		return true
	}
	if d.Initial != nil && d.Initial.ImageAuthenticity != nil && !d.Initial.ImageAuthenticity.AppearsAuthentic {
		return true
	}
	return false
}
