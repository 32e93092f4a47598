package policy

import (
	"context"

	"fnolapi/internal/model"
)

// StaticOracle validates policy numbers against an in-process fixture table.
// It stands in for the carrier's Policy Admin System in environments that
// have none. The same input always yields the same verdict.
type StaticOracle struct {
	statuses map[string]model.PolicyStatus
}

// Well-known fixture numbers. POL-123456 is always active, POL-000000 always
// lapsed and POL-111111 always pending, so every eligibility outcome can be
// exercised on demand.
var defaultStatuses = map[string]model.PolicyStatus{
	"POL-123456": model.PolicyStatusActive,
	"POL-000000": model.PolicyStatusLapsed,
	"POL-111111": model.PolicyStatusPending,
}

// NewStaticOracle returns an oracle seeded with the default fixtures.
// Extra entries override or extend the defaults.
func NewStaticOracle(extra map[string]model.PolicyStatus) *StaticOracle {
	statuses := make(map[string]model.PolicyStatus, len(defaultStatuses)+len(extra))
	for k, v := range defaultStatuses {
		statuses[k] = v
	}
	for k, v := range extra {
		statuses[k] = v
	}
	return &StaticOracle{statuses: statuses}
}

// Validate checks the number format first, then looks up the fixture table.
// Well-formed numbers not in the table are treated as active.
func (o *StaticOracle) Validate(_ context.Context, policyNumber string) (*model.PolicyVerdict, error) {
	if !ValidFormat(policyNumber) {
		return invalidVerdict(policyNumber), nil
	}
	status, ok := o.statuses[policyNumber]
	if !ok {
		status = model.PolicyStatusActive
	}
	return &model.PolicyVerdict{
		PolicyNumber: policyNumber,
		Valid:        status == model.PolicyStatusActive,
		Status:       status,
		Metadata: &model.PolicyMetadata{
			PolicyHolder:   "Sample Policy Holder",
			CoverageType:   []string{"Comprehensive", "Collision"},
			EffectiveDate:  "2024-01-01",
			ExpirationDate: "2025-01-01",
		},
	}, nil
}

var _ Oracle = (*StaticOracle)(nil)
