package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fnolapi/internal/ai"
	"fnolapi/internal/intake"
	"fnolapi/internal/model"
	"fnolapi/internal/policy"
	"fnolapi/internal/repository"
	"fnolapi/internal/storage"
)

var (
	ErrIDRequired        = errors.New("id is required")
	ErrClaimNotFound     = errors.New("claim not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrPolicyNotEligible = errors.New("policy is not eligible for submission")
	ErrPhotoRequired     = errors.New("at least one damage photo is required")
	ErrAnswerRequired    = errors.New("answer must not be blank")
	ErrAlreadyAssessed   = errors.New("claim is already assessed")
	ErrIncidentInFuture  = errors.New("incident date must not be in the future")
	ErrFinalizeInFlight  = errors.New("finalization is already running for this claim")
)

// Upload is one in-memory file received from the claimant. Intake files are
// small enough to buffer; the AI gateway needs the raw bytes anyway.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SubmitClaimInput carries everything needed to open a claim.
type SubmitClaimInput struct {
	PolicyNumber   string
	IncidentType   string
	IncidentDate   time.Time
	Description    string
	Location       string
	Vehicle        model.VehicleDetails
	Photos         []Upload
	PolicyDocument *Upload
}

// SubmitClaimResult is the intake response: the stored claim plus the
// follow-up question set the questionnaire is built from.
type SubmitClaimResult struct {
	Claim     *model.Claim          `json:"claim"`
	Questions []model.ClaimQuestion `json:"questions"`
}

// QuestionnaireView is the derived wizard state for a claim.
type QuestionnaireView struct {
	ClaimID     string                `json:"claim_id"`
	ClaimNumber string                `json:"claim_number"`
	Status      model.ClaimStatus     `json:"status"`
	Steps       []intake.Step         `json:"steps"`
	Questions   []model.ClaimQuestion `json:"questions"`
}

// ClaimService defines the claimant-facing use cases.
type ClaimService interface {
	// ValidatePolicy checks one policy number against the oracle.
	ValidatePolicy(ctx context.Context, policyNumber string) (*model.PolicyVerdict, error)

	// ExtractPolicyDocument reads an uploaded policy document and returns
	// best-effort pre-fill fields. Failures never block manual entry.
	ExtractPolicyDocument(ctx context.Context, doc Upload) (*model.PolicyExtraction, error)

	// SubmitClaim runs the atomic intake: policy gate, photo uploads,
	// initial assessment, then claim + files + questions persisted. The
	// claim row only exists once its question set does.
	SubmitClaim(ctx context.Context, in SubmitClaimInput) (*SubmitClaimResult, error)

	// GetQuestionnaire returns the categorized step view for a claim.
	GetQuestionnaire(ctx context.Context, claimID string) (*QuestionnaireView, error)

	// AnswerQuestion records one answer, keyed by question ID.
	AnswerQuestion(ctx context.Context, claimID, questionID, answer string) error

	// FinalizeClaim persists any remaining answers, uploads extra photos,
	// runs finalization and flips the claim to assessed. On failure the
	// claim stays submitted and nothing assessment-related is written.
	FinalizeClaim(ctx context.Context, claimID string, answers map[string]string, extraPhotos []Upload) (*model.Claim, error)
}

type claimService struct {
	claims    repository.ClaimRepository
	files     repository.ClaimFileRepository
	questions repository.ClaimQuestionRepository
	store     storage.Storage
	gateway   AssessmentGateway
	oracle    policy.Oracle

	// finalizing holds claim IDs with a finalization in flight, so two
	// concurrent requests cannot both pass the assessed-status check.
	finalizing sync.Map
}

// NewClaimService constructs a ClaimService.
func NewClaimService(
	claims repository.ClaimRepository,
	files repository.ClaimFileRepository,
	questions repository.ClaimQuestionRepository,
	store storage.Storage,
	gateway AssessmentGateway,
	oracle policy.Oracle,
) ClaimService {
	return &claimService{
		claims:    claims,
		files:     files,
		questions: questions,
		store:     store,
		gateway:   gateway,
		oracle:    oracle,
	}
}

func (s *claimService) ValidatePolicy(ctx context.Context, policyNumber string) (*model.PolicyVerdict, error) {
	return s.oracle.Validate(ctx, policyNumber)
}

func (s *claimService) ExtractPolicyDocument(ctx context.Context, doc Upload) (*model.PolicyExtraction, error) {
	if len(doc.Data) == 0 {
		return nil, errors.New("document is empty")
	}
	return s.gateway.ExtractPolicyDetails(ctx, ai.Attachment{
		MediaType: doc.ContentType,
		Data:      doc.Data,
	})
}

func (s *claimService) SubmitClaim(ctx context.Context, in SubmitClaimInput) (*SubmitClaimResult, error) {
	verdict, err := s.oracle.Validate(ctx, in.PolicyNumber)
	if err != nil {
		return nil, fmt.Errorf("validate policy: %w", err)
	}
	if !verdict.Valid || verdict.Status != model.PolicyStatusActive {
		return nil, fmt.Errorf("%w: status %s", ErrPolicyNotEligible, verdict.Status)
	}
	if len(in.Photos) == 0 {
		return nil, ErrPhotoRequired
	}
	// Date-only input; anything from the start of tomorrow on is in the
	// future.
	if !in.IncidentDate.Before(time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)) {
		return nil, ErrIncidentInFuture
	}

	claimNumber, err := s.claims.NextClaimNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve claim number: %w", err)
	}

	// Uploads run sequentially; the first failure aborts the rest. Objects
	// already stored stay orphaned until the claim row exists.
	uploaded, err := s.uploadAll(ctx, claimNumber, in.Photos)
	if err != nil {
		return nil, err
	}

	var docInfo *uploadedFile
	if in.PolicyDocument != nil && len(in.PolicyDocument.Data) > 0 {
		d, err := s.upload(ctx, claimNumber, *in.PolicyDocument)
		if err != nil {
			return nil, err
		}
		docInfo = &d
	}

	attachments := make([]ai.Attachment, 0, len(in.Photos))
	for _, p := range in.Photos {
		attachments = append(attachments, ai.Attachment{MediaType: p.ContentType, Data: p.Data})
	}
	initial, err := s.gateway.AssessInitial(ctx, claimContext(in.PolicyNumber, in.IncidentType, in.IncidentDate, in.Description, in.Location, in.Vehicle), attachments)
	if err != nil {
		return nil, fmt.Errorf("initial assessment: %w", err)
	}

	now := time.Now().UTC()
	claim := &model.Claim{
		ID:           uuid.New().String(),
		ClaimNumber:  claimNumber,
		PolicyNumber: in.PolicyNumber,
		PolicyStatus: string(verdict.Status),
		IncidentType: in.IncidentType,
		IncidentDate: in.IncidentDate,
		Description:  in.Description,
		Location:     in.Location,
		Vehicle:      in.Vehicle,
		Status:       model.ClaimStatusSubmitted,
		Assessment:   &model.AssessmentDoc{Initial: initial},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if docInfo != nil {
		claim.PolicyDocumentURL = docInfo.url
	}
	stored, err := s.claims.Create(ctx, claim)
	if err != nil {
		return nil, fmt.Errorf("create claim: %w", err)
	}

	for _, up := range uploaded {
		if _, err := s.createFileRow(ctx, stored.ID, up, now); err != nil {
			return nil, err
		}
	}
	if docInfo != nil {
		if _, err := s.createFileRow(ctx, stored.ID, *docInfo, now); err != nil {
			return nil, err
		}
	}

	questions := make([]model.ClaimQuestion, 0, len(initial.FollowUpQuestions))
	for _, fq := range initial.FollowUpQuestions {
		questions = append(questions, model.ClaimQuestion{
			ID:           uuid.New().String(),
			ClaimID:      stored.ID,
			Question:     fq.Question,
			QuestionType: fq.QuestionType,
			IsRequired:   fq.IsRequired,
			AskedAt:      now,
		})
	}
	if err := s.questions.BulkCreate(ctx, questions); err != nil {
		return nil, fmt.Errorf("create questions: %w", err)
	}

	return &SubmitClaimResult{Claim: stored, Questions: questions}, nil
}

func (s *claimService) GetQuestionnaire(ctx context.Context, claimID string) (*QuestionnaireView, error) {
	if claimID == "" {
		return nil, ErrIDRequired
	}
	claim, err := s.findClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	ctrl := intake.NewController(questions)
	return &QuestionnaireView{
		ClaimID:     claim.ID,
		ClaimNumber: claim.ClaimNumber,
		Status:      claim.Status,
		Steps:       ctrl.Steps(),
		Questions:   questions,
	}, nil
}

func (s *claimService) AnswerQuestion(ctx context.Context, claimID, questionID, answer string) error {
	if claimID == "" || questionID == "" {
		return ErrIDRequired
	}
	if strings.TrimSpace(answer) == "" {
		return ErrAnswerRequired
	}
	err := s.questions.Answer(ctx, claimID, questionID, answer, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return ErrQuestionNotFound
	}
	return err
}

func (s *claimService) FinalizeClaim(ctx context.Context, claimID string, answers map[string]string, extraPhotos []Upload) (*model.Claim, error) {
	if claimID == "" {
		return nil, ErrIDRequired
	}
	if _, busy := s.finalizing.LoadOrStore(claimID, struct{}{}); busy {
		return nil, ErrFinalizeInFlight
	}
	defer s.finalizing.Delete(claimID)

	claim, err := s.findClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status == model.ClaimStatusAssessed {
		return nil, ErrAlreadyAssessed
	}

	// Stage (b): write remaining answers before anything irreversible.
	now := time.Now().UTC()
	for questionID, answer := range answers {
		if strings.TrimSpace(answer) == "" {
			continue
		}
		if err := s.questions.Answer(ctx, claimID, questionID, answer, now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
			}
			return nil, fmt.Errorf("write answer: %w", err)
		}
	}

	questions, err := s.questions.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if incomplete := intake.NewController(questions).ValidateAll(); len(incomplete) > 0 {
		return nil, fmt.Errorf("%w: %v", intake.ErrQuestionnaireIncomplete, incomplete)
	}

	// Stage (a): extra photos, sequential, first failure aborts. Already
	// uploaded files stay attached; a finalize retry reuses them.
	uploaded, err := s.uploadAll(ctx, claim.ClaimNumber, extraPhotos)
	if err != nil {
		return nil, err
	}
	for _, up := range uploaded {
		if _, err := s.createFileRow(ctx, claim.ID, up, now); err != nil {
			return nil, err
		}
	}

	qa := make([]ai.QuestionAnswer, 0, len(questions))
	for _, q := range questions {
		if q.QuestionType == model.QuestionTypeAdditionalImages || !q.Answered() {
			continue
		}
		qa = append(qa, ai.QuestionAnswer{Question: q.Question, Answer: *q.Answer})
	}
	attachments := make([]ai.Attachment, 0, len(extraPhotos))
	for _, p := range extraPhotos {
		attachments = append(attachments, ai.Attachment{MediaType: p.ContentType, Data: p.Data})
	}

	final, err := s.gateway.Finalize(ctx,
		claimContext(claim.PolicyNumber, claim.IncidentType, claim.IncidentDate, claim.Description, claim.Location, claim.Vehicle),
		claim.Assessment.InitialOrNil(), qa, attachments)
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

func (s *claimService) findClaim(ctx context.Context, id string) (*model.Claim, error) {
	claim, err := s.claims.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return claim, nil
}

type uploadedFile struct {
	src  Upload
	key  string
	url  string
	size int64
}

func (s *claimService) upload(ctx context.Context, claimNumber string, up Upload) (uploadedFile, error) {
	ext := filepath.Ext(up.FileName)
	key := filepath.ToSlash(filepath.Join("claims", claimNumber, uuid.New().String()+ext))

	info, err := s.store.Put(ctx, key, bytes.NewReader(up.Data), storage.PutObjectOptions{
		Size:        int64(len(up.Data)),
		ContentType: up.ContentType,
		Metadata: map[string]string{
			"original-filename": up.FileName,
		},
	})
	if err != nil {
		return uploadedFile{}, fmt.Errorf("upload %s: %w", up.FileName, err)
	}

	url, err := s.store.PresignGet(ctx, key, 24*time.Hour)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("presign %s: %w", up.FileName, err)
	}
	return uploadedFile{src: up, key: info.Key, url: url, size: info.Size}, nil
}

func (s *claimService) uploadAll(ctx context.Context, claimNumber string, ups []Upload) ([]uploadedFile, error) {
	out := make([]uploadedFile, 0, len(ups))
	for _, up := range ups {
		u, err := s.upload(ctx, claimNumber, up)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *claimService) createFileRow(ctx context.Context, claimID string, up uploadedFile, now time.Time) (*model.ClaimFile, error) {
	f, err := s.files.Create(ctx, &model.ClaimFile{
		ID:         uuid.New().String(),
		ClaimID:    claimID,
		FileName:   up.src.FileName,
		FileType:   up.src.ContentType,
		StorageKey: up.key,
		FileURL:    up.url,
		FileSize:   up.size,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, fmt.Errorf("create file row: %w", err)
	}
	return f, nil
}

func claimContext(policyNumber, incidentType string, incidentDate time.Time, description, location string, vehicle model.VehicleDetails) ai.ClaimContext {
	return ai.ClaimContext{
		PolicyNumber: policyNumber,
		IncidentType: incidentType,
		IncidentDate: incidentDate.Format("2006-01-02"),
		Description:  description,
		Location:     location,
		Vehicle:      vehicle,
	}
}
