package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"fnolapi/internal/model"
)

const initialSystemPrompt = `You are an expert AUTO INSURANCE claims assessor analyzing vehicle damage photos for initial triage. Respond with strict JSON only.

Your task for this INITIAL assessment:
1. Carefully analyze the vehicle damage photos
2. Identify visible damage types and affected areas
3. Assess preliminary severity based on visible damage
4. Judge whether the photos appear authentic (signs of editing, stock imagery, screenshots, inconsistent lighting)
5. Check whether the visible vehicle is consistent with the claimed vehicle details
6. Generate 3-7 targeted follow-up questions based on what you see in the images

Important: This is ONLY the initial assessment. Do NOT provide final routing decisions or cost estimates yet.

Generate follow-up questions that:
- Ask about damage not visible in photos (undercarriage, mechanical, alignment issues)
- Clarify circumstances (speed, impact angle, other vehicles involved)
- Determine if airbags deployed, if vehicle is drivable
- Ask about injuries to driver/passengers
- Request additional photos of specific areas if needed (use question_type: "additional_images")
- Verify coverage details relevant to the damage type

Question Types:
- "damage_details": Questions about extent and specifics of damage
- "incident_details": Questions about how the incident occurred
- "coverage": Questions about policy coverage and deductibles
- "safety": Questions about injuries and vehicle safety
- "additional_images": Requests for additional photos of specific areas

Respond in JSON format with:
{
  "initial_severity": "low|medium|high|critical",
  "confidence_score": 0.0-1.0,
  "image_authenticity": {
    "appears_authentic": true|false,
    "concerns": ["any authenticity concerns"],
    "validation_notes": "brief notes on the check",
    "confidence": 0.0-1.0
  },
  "vehicle_validation": {
    "details_consistent": true|false,
    "notes": "how the visible vehicle compares to the claimed details"
  },
  "visible_damage_analysis": {
    "damage_types": ["type1", "type2"],
    "affected_areas": ["area1", "area2"],
    "preliminary_notes": "What you can see in the images"
  },
  "follow_up_questions": [
    {
      "question": "Specific question based on visible damage",
      "question_type": "damage_details|incident_details|coverage|safety|additional_images",
      "is_required": true|false,
      "reasoning": "Why this question is important based on what you see"
    }
  ],
  "reasoning": "Brief explanation of what you observed and why these questions are needed"
}`

const finalSystemPrompt = `You are an expert AUTO INSURANCE claims assessor providing FINAL triage and routing decisions. Respond with strict JSON only.

Based on the initial damage analysis and follow-up information, provide:
1. Final severity level (low, medium, high, critical, or fraudulent)
2. Detailed damage assessment with cost estimates
3. Routing decision (straight_through, junior_adjuster, senior_adjuster, specialist, fraud_investigation)
4. Fraud indicators based on inconsistencies between photos, answers and claimed facts
5. A summary of the credibility and completeness of the follow-up answers
6. Final recommendations

Severity Guidelines:
- LOW: Minor cosmetic damage, no safety issues, under $2,000 (small dent, scratch, minor glass)
- MEDIUM: Moderate damage, functional impact, $2,000-$10,000 (panel damage, window, door)
- HIGH: Significant damage, safety concerns, $10,000-$50,000 (multiple panels, suspension, frame concerns)
- CRITICAL: Total loss potential, bodily injury, over $50,000 (major structural, fire, severe collision)
- FRAUDULENT: Strong evidence the claim is staged, exaggerated or fabricated

Routing Decisions:
- straight_through: Simple, well-documented, low-value claims (under $3,000, no injuries, clear liability)
- junior_adjuster: Standard claims with moderate damage and good documentation
- senior_adjuster: Complex claims, high value, or unclear liability
- specialist: Total loss potential, bodily injury, or requires expert evaluation (frame damage, flood, fire)
- fraud_investigation: Claims with credible fraud red flags

Respond in JSON format with:
{
  "severity_level": "low|medium|high|critical|fraudulent",
  "confidence_score": 0.0-1.0,
  "routing_decision": "straight_through|junior_adjuster|senior_adjuster|specialist|fraud_investigation",
  "damage_assessment": {
    "damage_types": ["specific damage types"],
    "affected_areas": ["specific vehicle areas"],
    "estimated_cost_range": "$X,XXX - $X,XXX",
    "safety_concerns": ["any safety issues"],
    "repair_complexity": "simple|moderate|complex|severe",
    "is_drivable": true|false,
    "total_loss_risk": "low|medium|high"
  },
  "fraud_indicators": {
    "has_red_flags": true|false,
    "concerns": ["specific concerns, empty if none"],
    "verification_status": "verified|needs_review|suspicious"
  },
  "qa_summary": {
    "credibility_score": 0.0-1.0,
    "overall_impression": "one-paragraph impression of the answers",
    "key_takeaways": [{"category": "damage|safety|coverage|incident", "insight": "what was learned"}],
    "gaps_and_concerns": [{"severity": "low|medium|high", "issue": "what is missing or inconsistent", "recommendation": "how to resolve it"}]
  },
  "recommendations": {
    "immediate_actions": ["action1", "action2"],
    "required_documentation": ["doc1", "doc2"],
    "estimated_timeline": "X-Y days/weeks"
  },
  "reasoning": "Comprehensive explanation of final assessment and routing decision"
}`

const extractionSystemPrompt = `You are an expert at extracting vehicle and policy information from insurance documents. Respond with strict JSON only.

Extract the following information if present in the document:
- Policy number
- Vehicle make (manufacturer)
- Vehicle model
- Vehicle year
- VIN (Vehicle Identification Number)
- License plate number
- Ownership status (owned, leased, financed)

Return ONLY a JSON object with these fields. Use null for any field not found in the document.

Response format:
{
  "policy_number": "string or null",
  "vehicle_make": "string or null",
  "vehicle_model": "string or null",
  "vehicle_year": "number or null",
  "vehicle_vin": "string or null",
  "vehicle_license_plate": "string or null",
  "vehicle_ownership_status": "owned|leased|financed or null",
  "extraction_confidence": 0.0-1.0,
  "notes": "any relevant notes about extraction quality"
}`

// ClaimContext carries the incident facts rendered into assessment prompts.
type ClaimContext struct {
	PolicyNumber string
	IncidentType string
	IncidentDate string
	Description  string
	Location     string
	Vehicle      model.VehicleDetails
}

// QuestionAnswer is one question/answer pair fed into finalization.
type QuestionAnswer struct {
	Question string
	Answer   string
}

func orFallback(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func claimFacts(c ClaimContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Incident Type: %s\n", c.IncidentType)
	fmt.Fprintf(&sb, "Incident Date: %s\n", c.IncidentDate)
	fmt.Fprintf(&sb, "Description: %s\n", orFallback(c.Description, "No description provided"))
	fmt.Fprintf(&sb, "Location: %s\n", orFallback(c.Location, "Not specified"))
	fmt.Fprintf(&sb, "Policy Number: %s\n", c.PolicyNumber)
	if c.Vehicle.Make != "" || c.Vehicle.Model != "" {
		fmt.Fprintf(&sb, "Claimed Vehicle: %d %s %s\n", c.Vehicle.Year, c.Vehicle.Make, c.Vehicle.Model)
	}
	if c.Vehicle.VIN != "" {
		fmt.Fprintf(&sb, "VIN: %s\n", c.Vehicle.VIN)
	}
	if c.Vehicle.LicensePlate != "" {
		fmt.Fprintf(&sb, "License Plate: %s\n", c.Vehicle.LicensePlate)
	}
	return sb.String()
}

func buildInitialPrompt(c ClaimContext) string {
	return claimFacts(c) + "\nPlease assess this claim and provide your analysis."
}

func buildFinalPrompt(c ClaimContext, initial *model.InitialAssessment, answers []QuestionAnswer, hasExtraPhotos bool) string {
	var sb strings.Builder
	sb.WriteString("INITIAL CLAIM DATA:\n")
	sb.WriteString(claimFacts(c))

	sb.WriteString("\nINITIAL VISUAL ASSESSMENT:\n")
	if initial != nil && initial.VisibleDamageAnalysis != nil {
		if raw, err := json.MarshalIndent(initial.VisibleDamageAnalysis, "", "  "); err == nil {
			sb.Write(raw)
			sb.WriteString("\n")
		}
	}
	if initial != nil {
		fmt.Fprintf(&sb, "Initial Severity: %s\n", initial.InitialSeverity)
		if initial.ImageAuthenticity != nil && !initial.ImageAuthenticity.AppearsAuthentic {
			sb.WriteString("Note: the initial photo authenticity check raised concerns.\n")
		}
	}

	sb.WriteString("\nFOLLOW-UP ANSWERS:\n")
	for i, qa := range answers {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", qa.Question, qa.Answer)
	}

	if hasExtraPhotos {
		sb.WriteString("\nAdditional damage photos have been provided below.\n")
	}
	sb.WriteString("\nPlease provide the final comprehensive assessment and routing decision.")
	return sb.String()
}

const extractionUserPrompt = "Please extract vehicle and policy information from this insurance document."
