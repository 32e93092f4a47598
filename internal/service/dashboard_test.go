package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fnolapi/internal/ai"
	"fnolapi/internal/model"
	"fnolapi/internal/repository"
	repoMocks "fnolapi/internal/repository/mocks"
	"fnolapi/internal/storage"
	storeMocks "fnolapi/internal/storage/mocks"
)

type stubRenderer struct {
	out []byte
	err error
	got string
}

func (r *stubRenderer) Render(_ context.Context, markdown string) ([]byte, error) {
	r.got = markdown
	return r.out, r.err
}

func TestDashboardService_ListClaims(t *testing.T) {
	ctx := context.Background()
	mClaims := new(repoMocks.MockClaimRepository)
	mClaims.On("List", ctx, repository.PageQuery{Limit: 20, Offset: 0}).
		Return(&repository.PageResult[model.Claim]{
			Items: []model.Claim{{ID: "claim-1"}},
			Total: 41,
		}, nil)

	svc := NewDashboardService(mClaims, nil, nil, nil, nil, nil, 0)

	res, err := svc.ListClaims(ctx, 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 41, res.Total)
	assert.Len(t, res.Items, 1)
	mClaims.AssertExpectations(t)
}

func TestDashboardService_GetClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("detail with re-signed file URLs", func(t *testing.T) {
		mClaims := new(repoMocks.MockClaimRepository)
		mFiles := new(repoMocks.MockClaimFileRepository)
		mQs := new(repoMocks.MockClaimQuestionRepository)
		mStore := new(storeMocks.MockStorage)

		mClaims.On("FindByID", ctx, "claim-1").Return(submittedClaim(), nil)
		mFiles.On("ListByClaim", ctx, "claim-1").Return([]model.ClaimFile{
			{ID: "file-1", StorageKey: "claims/CLM-100001/a.jpg", FileURL: "https://stale"},
			{ID: "file-2", FileURL: "https://legacy"},
		}, nil)
		mQs.On("ListByClaim", ctx, "claim-1").Return([]model.ClaimQuestion{}, nil)
		mStore.On("PresignGet", ctx, "claims/CLM-100001/a.jpg", mock.Anything).
			Return("https://fresh", nil)

		svc := NewDashboardService(mClaims, mFiles, mQs, mStore, nil, nil, 0)

		detail, err := svc.GetClaim(ctx, "claim-1")
		require.NoError(t, err)
		assert.Equal(t, "https://fresh", detail.Files[0].FileURL)
		assert.Equal(t, "https://legacy", detail.Files[1].FileURL)
		assert.False(t, detail.FraudSignal)
	})

	t.Run("fraud signal surfaces from the final verdict", func(t *testing.T) {
		mClaims := new(repoMocks.MockClaimRepository)
		mFiles := new(repoMocks.MockClaimFileRepository)
		mQs := new(repoMocks.MockClaimQuestionRepository)

		claim := submittedClaim()
		claim.Status = model.ClaimStatusAssessed
		final := sampleFinal()
		final.SeverityLevel = model.SeverityFraudulent
		final.RoutingDecision = model.RoutingFraudInvestigation
		final.FraudIndicators = &model.FraudIndicators{
			HasRedFlags: true,
			Concerns:    []string{"photo metadata predates the incident"},
		}
		claim.Assessment.Final = final

		mClaims.On("FindByID", ctx, "claim-1").Return(claim, nil)
		mFiles.On("ListByClaim", ctx, "claim-1").Return([]model.ClaimFile{}, nil)
		mQs.On("ListByClaim", ctx, "claim-1").Return([]model.ClaimQuestion{}, nil)

		svc := NewDashboardService(mClaims, mFiles, mQs, nil, nil, nil, 0)

		detail, err := svc.GetClaim(ctx, "claim-1")
		require.NoError(t, err)
		assert.True(t, detail.FraudSignal)
	})

	t.Run("unknown claim", func(t *testing.T) {
		mClaims := new(repoMocks.MockClaimRepository)
		mClaims.On("FindByID", ctx, "ghost").Return(nil, sql.ErrNoRows)

		svc := NewDashboardService(mClaims, nil, nil, nil, nil, nil, 0)
		_, err := svc.GetClaim(ctx, "ghost")
		assert.ErrorIs(t, err, ErrClaimNotFound)
	})
}

func TestDashboardService_Refinalize(t *testing.T) {
	ctx := context.Background()

	t.Run("re-runs finalization from persisted answers", func(t *testing.T) {
		mClaims := new(repoMocks.MockClaimRepository)
		mQs := new(repoMocks.MockClaimQuestionRepository)

		mClaims.On("FindByID", ctx, "claim-1").Return(submittedClaim(), nil).Once()
		mQs.On("ListByClaim", ctx, "claim-1").Return([]model.ClaimQuestion{
			answeredQuestion("q-1", "Did the airbags deploy?", "safety"),
			{ID: "q-2", ClaimID: "claim-1", Question: "Where exactly?", QuestionType: "incident_details"},
		}, nil)
		mClaims.On("ApplyFinalAssessment", ctx, "claim-1", mock.MatchedBy(func(u repository.FinalizeUpdate) bool {
			return u.SeverityLevel == model.SeverityMedium && u.Assessment.Final != nil
		})).Return(nil)

		assessed := submittedClaim()
		assessed.Status = model.ClaimStatusAssessed
		mClaims.On("FindByID", ctx, "claim-1").Return(assessed, nil).Once()

		gw := &stubGateway{
			finalize: func(_ context.Context, _ ai.ClaimContext, initial *model.InitialAssessment, answers []ai.QuestionAnswer, extra []ai.Attachment) (*model.FinalAssessment, error) {
				require.NotNil(t, initial)
				require.Len(t, answers, 1)
				assert.Nil(t, extra)
				return sampleFinal(), nil
			},
		}
		svc := NewDashboardService(mClaims, nil, mQs, nil, gw, nil, 0)

		got, err := svc.Refinalize(ctx, "claim-1")
		require.NoError(t, err)
		assert.Equal(t, model.ClaimStatusAssessed, got.Status)
		mClaims.AssertExpectations(t)
	})

	t.Run("assessed claims cannot be re-finalized", func(t *testing.T) {
		mClaims := new(repoMocks.MockClaimRepository)
		assessed := submittedClaim()
		assessed.Status = model.ClaimStatusAssessed
		mClaims.On("FindByID", ctx, "claim-1").Return(assessed, nil)

		svc := NewDashboardService(mClaims, nil, nil, nil, nil, nil, 0)
		_, err := svc.Refinalize(ctx, "claim-1")
		assert.ErrorIs(t, err, ErrAlreadyAssessed)
	})

	t.Run("gateway failure changes nothing", func(t *testing.T) {
		mClaims := new(repoMocks.MockClaimRepository)
		mQs := new(repoMocks.MockClaimQuestionRepository)

		mClaims.On("FindByID", ctx, "claim-1").Return(submittedClaim(), nil)
		mQs.On("ListByClaim", ctx, "claim-1").Return([]model.ClaimQuestion{}, nil)

		gw := &stubGateway{
			finalize: func(context.Context, ai.ClaimContext, *model.InitialAssessment, []ai.QuestionAnswer, []ai.Attachment) (*model.FinalAssessment, error) {
				return nil, errors.New("gateway down")
			},
		}
		svc := NewDashboardService(mClaims, nil, mQs, nil, gw, nil, 0)

		_, err := svc.Refinalize(ctx, "claim-1")
		require.Error(t, err)
		mClaims.AssertNotCalled(t, "ApplyFinalAssessment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDashboardService_ExportPDF(t *testing.T) {
	ctx := context.Background()

	mClaims := new(repoMocks.MockClaimRepository)
	mQs := new(repoMocks.MockClaimQuestionRepository)
	mClaims.On("FindByID", ctx, "claim-1").Return(submittedClaim(), nil)
	mQs.On("ListByClaim", ctx, "claim-1").Return([]model.ClaimQuestion{
		answeredQuestion("q-1", "Did the airbags deploy?", "safety"),
	}, nil)

	renderer := &stubRenderer{out: []byte("%PDF-1.7")}
	svc := NewDashboardService(mClaims, nil, mQs, nil, nil, renderer, 0)

	pdf, err := svc.ExportPDF(ctx, "claim-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), pdf)
	assert.Contains(t, renderer.got, "CLM-100001")
	assert.Contains(t, renderer.got, "Did the airbags deploy?")
}

func TestDashboardService_DownloadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("streams the stored object", func(t *testing.T) {
		mFiles := new(repoMocks.MockClaimFileRepository)
		mStore := new(storeMocks.MockStorage)

		mFiles.On("ListByClaim", ctx, "claim-1").Return([]model.ClaimFile{
			{ID: "file-1", StorageKey: "claims/CLM-100001/a.jpg", FileName: "a.jpg"},
		}, nil)
		mStore.On("Get", ctx, "claims/CLM-100001/a.jpg").
			Return(io.NopCloser(nil), storage.ObjectInfo{Key: "claims/CLM-100001/a.jpg", ContentType: "image/jpeg"}, nil)

		svc := NewDashboardService(nil, mFiles, nil, mStore, nil, nil, 0)

		rc, info, err := svc.DownloadFile(ctx, "claim-1", "file-1")
		require.NoError(t, err)
		require.NotNil(t, rc)
		assert.Equal(t, "image/jpeg", info.ContentType)
	})

	t.Run("unknown file", func(t *testing.T) {
		mFiles := new(repoMocks.MockClaimFileRepository)
		mFiles.On("ListByClaim", ctx, "claim-1").Return([]model.ClaimFile{}, nil)

		svc := NewDashboardService(nil, mFiles, nil, nil, nil, nil, 0)
		_, _, err := svc.DownloadFile(ctx, "claim-1", "ghost")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}

func TestSessionRegistry(t *testing.T) {
	t.Run("login issues a usable token", func(t *testing.T) {
		reg := NewSessionRegistry("open-sesame", time.Hour)
		sess, err := reg.Login("open-sesame")
		require.NoError(t, err)
		assert.NotEmpty(t, sess.Token)
		assert.NoError(t, reg.Validate(sess.Token))
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		reg := NewSessionRegistry("open-sesame", time.Hour)
		_, err := reg.Login("guess")
		assert.ErrorIs(t, err, ErrBadAccessCode)
	})

	t.Run("empty configured code rejects everything", func(t *testing.T) {
		reg := NewSessionRegistry("", time.Hour)
		_, err := reg.Login("")
		assert.ErrorIs(t, err, ErrBadAccessCode)
	})

	t.Run("unknown token is invalid", func(t *testing.T) {
		reg := NewSessionRegistry("open-sesame", time.Hour)
		assert.ErrorIs(t, reg.Validate("nope"), ErrSessionInvalid)
	})

	t.Run("tokens expire", func(t *testing.T) {
		reg := NewSessionRegistry("open-sesame", time.Minute)
		clock := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
		reg.now = func() time.Time { return clock }

		sess, err := reg.Login("open-sesame")
		require.NoError(t, err)
		assert.NoError(t, reg.Validate(sess.Token))

		clock = clock.Add(2 * time.Minute)
		assert.ErrorIs(t, reg.Validate(sess.Token), ErrSessionInvalid)
		// A second check hits the pruned map, not the expiry branch.
		assert.ErrorIs(t, reg.Validate(sess.Token), ErrSessionInvalid)
	})
}
