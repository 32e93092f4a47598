package service

import (
	"context"

	"fnolapi/internal/ai"
	"fnolapi/internal/model"
)

// AssessmentGateway is the slice of the AI gateway the services consume.
// *ai.Gateway satisfies it.
type AssessmentGateway interface {
	AssessInitial(ctx context.Context, claim ai.ClaimContext, photos []ai.Attachment) (*model.InitialAssessment, error)
	Finalize(ctx context.Context, claim ai.ClaimContext, initial *model.InitialAssessment, answers []ai.QuestionAnswer, extraPhotos []ai.Attachment) (*model.FinalAssessment, error)
	ExtractPolicyDetails(ctx context.Context, doc ai.Attachment) (*model.PolicyExtraction, error)
}

var _ AssessmentGateway = (*ai.Gateway)(nil)
