package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"fnolapi/internal/model"
	"fnolapi/internal/repository"
)

type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) NextClaimNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockClaimRepository) Create(ctx context.Context, claim *model.Claim) (*model.Claim, error) {
	args := m.Called(ctx, claim)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Claim), args.Error(1)
}

func (m *MockClaimRepository) FindByID(ctx context.Context, id string) (*model.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Claim), args.Error(1)
}

func (m *MockClaimRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Claim], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Claim]), args.Error(1)
}

func (m *MockClaimRepository) ApplyFinalAssessment(ctx context.Context, id string, upd repository.FinalizeUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

type MockClaimFileRepository struct {
	mock.Mock
}

func (m *MockClaimFileRepository) Create(ctx context.Context, file *model.ClaimFile) (*model.ClaimFile, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClaimFile), args.Error(1)
}

func (m *MockClaimFileRepository) ListByClaim(ctx context.Context, claimID string) ([]model.ClaimFile, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClaimFile), args.Error(1)
}

type MockClaimQuestionRepository struct {
	mock.Mock
}

func (m *MockClaimQuestionRepository) BulkCreate(ctx context.Context, questions []model.ClaimQuestion) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockClaimQuestionRepository) ListByClaim(ctx context.Context, claimID string) ([]model.ClaimQuestion, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClaimQuestion), args.Error(1)
}

func (m *MockClaimQuestionRepository) Answer(ctx context.Context, claimID, questionID, answer string, answeredAt time.Time) error {
	args := m.Called(ctx, claimID, questionID, answer, answeredAt)
	return args.Error(0)
}
