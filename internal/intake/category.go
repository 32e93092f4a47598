package intake

import (
	"strings"

	"fnolapi/internal/model"
)

// Category is one of the four fixed thematic buckets used to group
// follow-up questions into wizard steps.
type Category string

const (
	CategoryVehicleVerification Category = "vehicle_verification"
	CategoryIncidentDetails     Category = "incident_details"
	CategorySafetyInformation   Category = "safety_information"
	CategoryDamageDocumentation Category = "damage_documentation"
)

// categoryOrder fixes the step sequence. Empty categories are skipped, so
// the order only constrains categories that actually have questions.
var categoryOrder = []Category{
	CategoryVehicleVerification,
	CategoryIncidentDetails,
	CategorySafetyInformation,
	CategoryDamageDocumentation,
}

var categoryTitles = map[Category]string{
	CategoryVehicleVerification: "Vehicle Verification",
	CategoryIncidentDetails:     "Incident Details",
	CategorySafetyInformation:   "Safety Information",
	CategoryDamageDocumentation: "Damage Documentation",
}

// Title returns the human-readable step title for a category.
func (c Category) Title() string {
	return categoryTitles[c]
}

// Classify buckets a question type tag into a category by keyword match.
// Unmatched tags fall back to incident_details. Callers must filter out
// additional_images questions before classifying; those belong to the photos
// step, not to any category.
func Classify(questionType string) Category {
	t := strings.ToLower(questionType)
	switch {
	case strings.Contains(t, "vehicle"), strings.Contains(t, "verification"), strings.Contains(t, "coverage"):
		return CategoryVehicleVerification
	case strings.Contains(t, "safety"), strings.Contains(t, "injur"):
		return CategorySafetyInformation
	case strings.Contains(t, "damage"):
		return CategoryDamageDocumentation
	case strings.Contains(t, "incident"):
		return CategoryIncidentDetails
	default:
		return CategoryIncidentDetails
	}
}

func isPhotoRequest(q model.ClaimQuestion) bool {
	return q.QuestionType == model.QuestionTypeAdditionalImages
}
