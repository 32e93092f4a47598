package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"fnolapi/internal/model"
	"fnolapi/internal/service"
	"fnolapi/internal/storage"
)

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) ListClaims(ctx context.Context, limit, offset int) (*service.ClaimListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ClaimListResult), args.Error(1)
}

func (m *MockDashboardService) GetClaim(ctx context.Context, id string) (*service.ClaimDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ClaimDetail), args.Error(1)
}

func (m *MockDashboardService) Refinalize(ctx context.Context, id string) (*model.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Claim), args.Error(1)
}

func (m *MockDashboardService) ExportPDF(ctx context.Context, id string) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDashboardService) DownloadFile(ctx context.Context, claimID, fileID string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, claimID, fileID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}
