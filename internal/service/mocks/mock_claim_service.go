package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fnolapi/internal/model"
	"fnolapi/internal/service"
)

type MockClaimService struct {
	mock.Mock
}

func (m *MockClaimService) ValidatePolicy(ctx context.Context, policyNumber string) (*model.PolicyVerdict, error) {
	args := m.Called(ctx, policyNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PolicyVerdict), args.Error(1)
}

func (m *MockClaimService) ExtractPolicyDocument(ctx context.Context, doc service.Upload) (*model.PolicyExtraction, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PolicyExtraction), args.Error(1)
}

func (m *MockClaimService) SubmitClaim(ctx context.Context, in service.SubmitClaimInput) (*service.SubmitClaimResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmitClaimResult), args.Error(1)
}

func (m *MockClaimService) GetQuestionnaire(ctx context.Context, claimID string) (*service.QuestionnaireView, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuestionnaireView), args.Error(1)
}

func (m *MockClaimService) AnswerQuestion(ctx context.Context, claimID, questionID, answer string) error {
	args := m.Called(ctx, claimID, questionID, answer)
	return args.Error(0)
}

func (m *MockClaimService) FinalizeClaim(ctx context.Context, claimID string, answers map[string]string, extraPhotos []service.Upload) (*model.Claim, error) {
	args := m.Called(ctx, claimID, answers, extraPhotos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Claim), args.Error(1)
}
