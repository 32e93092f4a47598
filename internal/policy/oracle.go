package policy

import (
	"context"
	"errors"
	"regexp"

	"fnolapi/internal/model"
)

// ErrOracleUnavailable means the policy system could not be reached at all.
// It is never folded into an invalid verdict; "could not check" and "checked
// and failed" are different answers.
var ErrOracleUnavailable = errors.New("policy oracle unavailable")

// numberFormat is the accepted policy number shape: POL- followed by 6 to 8
// digits.
var numberFormat = regexp.MustCompile(`^POL-\d{6,8}$`)

const formatMessage = "Policy number format invalid. Expected format: POL-XXXXXX"

// ValidFormat reports whether the policy number matches the accepted shape.
func ValidFormat(policyNumber string) bool {
	return numberFormat.MatchString(policyNumber)
}

// Oracle answers whether a policy number identifies an eligible policy.
// Implementations must be deterministic for a given input.
type Oracle interface {
	Validate(ctx context.Context, policyNumber string) (*model.PolicyVerdict, error)
}

// invalidVerdict is the shared verdict for numbers that fail the format
// check. No backend lookup happens for these.
func invalidVerdict(policyNumber string) *model.PolicyVerdict {
	return &model.PolicyVerdict{
		PolicyNumber: policyNumber,
		Valid:        false,
		Status:       model.PolicyStatusInvalid,
		Message:      formatMessage,
	}
}
