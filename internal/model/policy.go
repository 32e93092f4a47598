package model

// PolicyStatus is the eligibility status returned by the validation oracle.
type PolicyStatus string

const (
	PolicyStatusActive  PolicyStatus = "active"
	PolicyStatusLapsed  PolicyStatus = "lapsed"
	PolicyStatusInvalid PolicyStatus = "invalid"
	PolicyStatusPending PolicyStatus = "pending"
)

// PolicyMetadata is policy detail returned alongside a validation verdict.
type PolicyMetadata struct {
	PolicyHolder   string   `json:"policy_holder,omitempty"`
	CoverageType   []string `json:"coverage_type,omitempty"`
	EffectiveDate  string   `json:"effective_date,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
}

// PolicyVerdict is the outcome of validating one policy number. A verdict
// with Valid=false is a definitive "checked and failed"; an inability to
// check at all is reported as an error, never as a verdict.
type PolicyVerdict struct {
	PolicyNumber string          `json:"policy_number"`
	Valid        bool            `json:"valid"`
	Status       PolicyStatus    `json:"status"`
	Metadata     *PolicyMetadata `json:"metadata,omitempty"`
	Message      string          `json:"message,omitempty"`
}

// PolicyExtraction is the best-effort partial record pulled from an uploaded
// policy document. Fields the extractor could not determine are nil, never
// placeholder values.
type PolicyExtraction struct {
	PolicyNumber         *string `json:"policy_number"`
	VehicleMake          *string `json:"vehicle_make"`
	VehicleModel         *string `json:"vehicle_model"`
	VehicleYear          *int    `json:"vehicle_year"`
	VehicleVIN           *string `json:"vehicle_vin"`
	VehicleLicensePlate  *string `json:"vehicle_license_plate"`
	VehicleOwnership     *string `json:"vehicle_ownership_status"`
	ExtractionConfidence float64 `json:"extraction_confidence"`
	Notes                string  `json:"notes,omitempty"`
}

// MergeInto fills only the empty fields of the destination vehicle record and
// policy number. Values the claimant already supplied are never overwritten.
func (e *PolicyExtraction) MergeInto(v *VehicleDetails, policyNumber *string) {
	if e == nil {
		return
	}
	if policyNumber != nil && *policyNumber == "" && e.PolicyNumber != nil {
		*policyNumber = *e.PolicyNumber
	}
	if v == nil {
		return
	}
	if v.Make == "" && e.VehicleMake != nil {
		v.Make = *e.VehicleMake
	}
	if v.Model == "" && e.VehicleModel != nil {
		v.Model = *e.VehicleModel
	}
	if v.Year == 0 && e.VehicleYear != nil {
		v.Year = *e.VehicleYear
	}
	if v.VIN == "" && e.VehicleVIN != nil {
		v.VIN = *e.VehicleVIN
	}
	if v.LicensePlate == "" && e.VehicleLicensePlate != nil {
		v.LicensePlate = *e.VehicleLicensePlate
	}
	if v.OwnershipStatus == "" && e.VehicleOwnership != nil {
		v.OwnershipStatus = *e.VehicleOwnership
	}
}
