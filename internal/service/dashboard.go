package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"fnolapi/internal/ai"
	"fnolapi/internal/model"
	"fnolapi/internal/report"
	"fnolapi/internal/repository"
	"fnolapi/internal/storage"
)

var ErrFileNotFound = errors.New("claim file not found")

// ClaimListResult is the paginated dashboard listing.
type ClaimListResult struct {
	Items []model.Claim `json:"data"`
	Total int           `json:"total"`
}

// ClaimDetail is the dashboard detail view. FraudSignal drives the
// fraud-or-legitimacy rendering rule: when set, clients show the fraud
// panel and suppress the severity/routing badges.
type ClaimDetail struct {
	Claim       *model.Claim          `json:"claim"`
	Files       []model.ClaimFile     `json:"files"`
	Questions   []model.ClaimQuestion `json:"questions"`
	FraudSignal bool                  `json:"fraud_signal"`
}

// DashboardService defines the insurer-facing use cases.
type DashboardService interface {
	// ListClaims returns claims newest first.
	ListClaims(ctx context.Context, limit, offset int) (*ClaimListResult, error)

	// GetClaim returns the full detail view with freshly signed file URLs.
	GetClaim(ctx context.Context, id string) (*ClaimDetail, error)

	// Refinalize re-runs finalization for a claim still in submitted
	// status, using the answers persisted so far.
	Refinalize(ctx context.Context, id string) (*model.Claim, error)

	// ExportPDF renders the printable claim report.
	ExportPDF(ctx context.Context, id string) ([]byte, error)

	// DownloadFile streams one stored artifact of a claim.
	DownloadFile(ctx context.Context, claimID, fileID string) (io.ReadCloser, storage.ObjectInfo, error)
}

type dashboardService struct {
	claims        repository.ClaimRepository
	files         repository.ClaimFileRepository
	questions     repository.ClaimQuestionRepository
	store         storage.Storage
	gateway       AssessmentGateway
	renderer      report.Renderer
	presignExpiry time.Duration
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(
	claims repository.ClaimRepository,
	files repository.ClaimFileRepository,
	questions repository.ClaimQuestionRepository,
	store storage.Storage,
	gateway AssessmentGateway,
	renderer report.Renderer,
	presignExpiry time.Duration,
) DashboardService {
	if presignExpiry <= 0 {
		presignExpiry = 24 * time.Hour
	}
	return &dashboardService{
		claims:        claims,
		files:         files,
		questions:     questions,
		store:         store,
		gateway:       gateway,
		renderer:      renderer,
		presignExpiry: presignExpiry,
	}
}

func (s *dashboardService) ListClaims(ctx context.Context, limit, offset int) (*ClaimListResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.claims.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ClaimListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *dashboardService) GetClaim(ctx context.Context, id string) (*ClaimDetail, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	claim, err := s.findClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListByClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	// Stored URLs expire; re-sign on every read so the viewer always gets
	// a live link.
	for i := range files {
		if files[i].StorageKey == "" {
			continue
		}
		url, err := s.store.PresignGet(ctx, files[i].StorageKey, s.presignExpiry)
		if err == nil {
			files[i].FileURL = url
		}
	}
	questions, err := s.questions.ListByClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ClaimDetail{
		Claim:       claim,
		Files:       files,
		Questions:   questions,
		FraudSignal: claim.Assessment.HasFraudSignal(),
	}, nil
}

func (s *dashboardService) Refinalize(ctx context.Context, id string) (*model.Claim, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	claim, err := s.findClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim.Status != model.ClaimStatusSubmitted {
		return nil, ErrAlreadyAssessed
	}

	questions, err := s.questions.ListByClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	qa := make([]ai.QuestionAnswer, 0, len(questions))
	for _, q := range questions {
		if q.QuestionType == model.QuestionTypeAdditionalImages || !q.Answered() {
			continue
		}
		qa = append(qa, ai.QuestionAnswer{Question: q.Question, Answer: *q.Answer})
	}

	final, err := s.gateway.Finalize(ctx,
		claimContext(claim.PolicyNumber, claim.IncidentType, claim.IncidentDate, claim.Description, claim.Location, claim.Vehicle),
		claim.Assessment.InitialOrNil(), qa, nil)
	if err != nil {
		return nil, fmt.Errorf("final assessment: %w", err)
	}

	doc := &model.AssessmentDoc{Initial: claim.Assessment.InitialOrNil(), Final: final}
	upd := repository.FinalizeUpdate{
		SeverityLevel:   final.SeverityLevel,
		ConfidenceScore: final.ConfidenceScore,
		RoutingDecision: final.RoutingDecision,
		Assessment:      doc,
	}
	if err := s.claims.ApplyFinalAssessment(ctx, claim.ID, upd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, fmt.Errorf("apply final assessment: %w", err)
	}
	return s.findClaim(ctx, claim.ID)
}

func (s *dashboardService) ExportPDF(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	claim, err := s.findClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByClaim(ctx, id)
	if err != nil {
		return nil, err
	}
	md := report.BuildMarkdown(claim, questions)
	pdf, err := s.renderer.Render(ctx, md)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return pdf, nil
}

func (s *dashboardService) DownloadFile(ctx context.Context, claimID, fileID string) (io.ReadCloser, storage.ObjectInfo, error) {
	if claimID == "" || fileID == "" {
		return nil, storage.ObjectInfo{}, ErrIDRequired
	}
	files, err := s.files.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	for _, f := range files {
		if f.ID == fileID {
			return s.store.Get(ctx, f.StorageKey)
		}
	}
	return nil, storage.ObjectInfo{}, ErrFileNotFound
}

func (s *dashboardService) findClaim(ctx context.Context, id string) (*model.Claim, error) {
	claim, err := s.claims.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return claim, nil
}
