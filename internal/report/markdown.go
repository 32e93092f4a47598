package report

import (
	"fmt"
	"strings"
	"time"

	"fnolapi/internal/model"
)

var routingLabels = map[model.RoutingDecision]string{
	model.RoutingStraightThrough:    "Straight Through",
	model.RoutingJuniorAdjuster:     "Junior Adjuster",
	model.RoutingSeniorAdjuster:     "Senior Adjuster",
	model.RoutingSpecialist:         "Specialist",
	model.RoutingFraudInvestigation: "Fraud Investigation",
}

var severityLabels = map[model.SeverityLevel]string{
	model.SeverityLow:        "Low Severity",
	model.SeverityMedium:     "Medium Severity",
	model.SeverityHigh:       "High Severity",
	model.SeverityCritical:   "Critical Severity",
	model.SeverityFraudulent: "Fraudulent",
}

func formatRouting(r *model.RoutingDecision) string {
	if r == nil {
		return "Pending"
	}
	if label, ok := routingLabels[*r]; ok {
		return label
	}
	return string(*r)
}

func formatSeverity(s *model.SeverityLevel) string {
	if s == nil {
		return "Pending Assessment"
	}
	if label, ok := severityLabels[*s]; ok {
		return label
	}
	return string(*s)
}

func formatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

func field(sb *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "N/A"
	}
	fmt.Fprintf(sb, "**%s:** %s  \n", label, value)
}

// BuildMarkdown renders the printable claim report. The fraud-flags section
// only appears when the stored assessment carries a fraud signal; severity
// and routing badges are suppressed in that case, mirroring the dashboard's
// fraud-or-legitimacy rule.
func BuildMarkdown(claim *model.Claim, questions []model.ClaimQuestion) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Claim Report\n\n")
	fmt.Fprintf(&sb, "## Claim #%s\n\n", claim.ClaimNumber)

	fraud := claim.Assessment.HasFraudSignal()

	field(&sb, "Status", strings.ToUpper(string(claim.Status)))
	if fraud {
		field(&sb, "Severity", "Under Fraud Review")
		field(&sb, "Routing Decision", "Fraud Investigation")
	} else {
		field(&sb, "Severity", formatSeverity(claim.SeverityLevel))
		field(&sb, "Routing Decision", formatRouting(claim.RoutingDecision))
		if claim.ConfidenceScore != nil {
			field(&sb, "Confidence Score", fmt.Sprintf("%d%%", int(*claim.ConfidenceScore*100+0.5)))
		} else {
			field(&sb, "Confidence Score", "")
		}
	}
	field(&sb, "Submitted", formatDate(claim.CreatedAt))

	sb.WriteString("\n## Incident Details\n\n")
	field(&sb, "Incident Type", strings.ReplaceAll(claim.IncidentType, "_", " "))
	field(&sb, "Incident Date", formatDate(claim.IncidentDate))
	field(&sb, "Location", claim.Location)
	field(&sb, "Description", claim.Description)

	sb.WriteString("\n## Vehicle Information\n\n")
	v := claim.Vehicle
	field(&sb, "Make", v.Make)
	field(&sb, "Model", v.Model)
	if v.Year != 0 {
		field(&sb, "Year", fmt.Sprintf("%d", v.Year))
	} else {
		field(&sb, "Year", "")
	}
	field(&sb, "VIN", v.VIN)
	field(&sb, "License Plate", v.LicensePlate)
	field(&sb, "Ownership Status", v.OwnershipStatus)
	if v.Odometer != 0 {
		field(&sb, "Odometer", fmt.Sprintf("%d mi", v.Odometer))
	} else {
		field(&sb, "Odometer", "")
	}
	if v.PurchaseDate != nil {
		field(&sb, "Purchase Date", formatDate(*v.PurchaseDate))
	}

	sb.WriteString("\n## Policy Information\n\n")
	field(&sb, "Policy Number", claim.PolicyNumber)

	writeAssessment(&sb, claim)
	writeFollowUps(&sb, questions)

	return sb.String()
}

func writeAssessment(sb *strings.Builder, claim *model.Claim) {
	if claim.Assessment == nil || claim.Assessment.Final == nil {
		return
	}
	final := claim.Assessment.Final

	sb.WriteString("\n## AI Assessment\n\n")
	if da := final.DamageAssessment; da != nil {
		field(sb, "Estimated Cost", da.EstimatedCostRange)
		field(sb, "Repair Complexity", da.RepairComplexity)
		if da.IsDrivable {
			field(sb, "Drivable", "Yes")
		} else {
			field(sb, "Drivable", "No")
		}
		field(sb, "Total Loss Risk", da.TotalLossRisk)
		if len(da.DamageTypes) > 0 {
			field(sb, "Damage Types", strings.Join(da.DamageTypes, ", "))
		}
		if len(da.AffectedAreas) > 0 {
			field(sb, "Affected Areas", strings.Join(da.AffectedAreas, ", "))
		}
	}
	if rec := final.Recommendations; rec != nil {
		field(sb, "Estimated Timeline", rec.EstimatedTimeline)
		if len(rec.ImmediateActions) > 0 {
			field(sb, "Immediate Actions", strings.Join(rec.ImmediateActions, "; "))
		}
	}
	if final.Reasoning != "" {
		sb.WriteString("\n**Assessment Reasoning:**\n\n")
		sb.WriteString(final.Reasoning)
		sb.WriteString("\n")
	}

	if fi := final.FraudIndicators; fi != nil && fi.HasRedFlags {
		sb.WriteString("\n## Fraud Flags\n\n")
		field(sb, "Status", fi.VerificationStatus)
		for _, concern := range fi.Concerns {
			fmt.Fprintf(sb, "- %s\n", concern)
		}
	}

	if qa := final.QASummary; qa != nil {
		sb.WriteString("\n## Assessment Summary\n\n")
		if qa.CredibilityScore > 0 {
			field(sb, "Credibility Score", fmt.Sprintf("%d%%", int(qa.CredibilityScore*100+0.5)))
		}
		if qa.OverallImpression != "" {
			sb.WriteString("\n**Overall Impression:**\n\n")
			sb.WriteString(qa.OverallImpression)
			sb.WriteString("\n")
		}
		if len(qa.KeyTakeaways) > 0 {
			sb.WriteString("\n**Key Takeaways:**\n\n")
			for _, t := range qa.KeyTakeaways {
				category := strings.ToUpper(strings.ReplaceAll(t.Category, "_", " "))
				fmt.Fprintf(sb, "- [%s] %s\n", category, t.Insight)
			}
		}
		if len(qa.GapsAndConcerns) > 0 {
			sb.WriteString("\n**Gaps & Concerns:**\n\n")
			for _, g := range qa.GapsAndConcerns {
				fmt.Fprintf(sb, "- [%s] %s\n", strings.ToUpper(g.Severity), g.Issue)
				if g.Recommendation != "" {
					fmt.Fprintf(sb, "  Recommendation: %s\n", g.Recommendation)
				}
			}
		}
	}
}

func writeFollowUps(sb *strings.Builder, questions []model.ClaimQuestion) {
	answered := make([]model.ClaimQuestion, 0, len(questions))
	for _, q := range questions {
		if q.Answered() && strings.TrimSpace(*q.Answer) != "" {
			answered = append(answered, q)
		}
	}
	if len(answered) == 0 {
		return
	}
	sb.WriteString("\n## Follow-up Questions & Answers\n\n")
	for i, q := range answered {
		fmt.Fprintf(sb, "**Q%d: %s**\n\n", i+1, q.Question)
		fmt.Fprintf(sb, "A: %s\n\n", *q.Answer)
	}
}
