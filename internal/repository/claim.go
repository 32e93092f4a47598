package repository

import (
	"context"
	"time"

	"fnolapi/internal/model"
)

// FinalizeUpdate carries the fields written together on the transition to
// assessed. They are applied in a single statement so severity, routing and
// confidence are never persisted partially.
type FinalizeUpdate struct {
	SeverityLevel   model.SeverityLevel
	ConfidenceScore float64
	RoutingDecision model.RoutingDecision
	Assessment      *model.AssessmentDoc
}

// ClaimRepository defines data access for claims using SQL queries only.
// No business logic here, strictly persistence operations.
type ClaimRepository interface {
	// NextClaimNumber reserves and returns the next human-readable claim
	// number (e.g. CLM-100042). Numbers are never reused.
	NextClaimNumber(ctx context.Context) (string, error)

	// Create inserts a new claim record and returns the stored row.
	Create(ctx context.Context, claim *model.Claim) (*model.Claim, error)

	// FindByID returns a claim by its ID.
	FindByID(ctx context.Context, id string) (*model.Claim, error)

	// List returns claims ordered by creation time descending, with a
	// total row count for the given page.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Claim], error)

	// ApplyFinalAssessment replaces the claim's severity, confidence,
	// routing and assessment payload and flips status to assessed, all in
	// one statement. Re-running it fully supersedes the previous values.
	ApplyFinalAssessment(ctx context.Context, id string, upd FinalizeUpdate) error
}

// ClaimFileRepository defines data access for uploaded claim artifacts.
// Files are insert-only; there is no update or delete path.
type ClaimFileRepository interface {
	Create(ctx context.Context, file *model.ClaimFile) (*model.ClaimFile, error)
	ListByClaim(ctx context.Context, claimID string) ([]model.ClaimFile, error)
}

// ClaimQuestionRepository defines data access for follow-up questions.
type ClaimQuestionRepository interface {
	// BulkCreate inserts the question set produced by the initial
	// assessment. IDs are assigned by the caller so the questionnaire can
	// reference questions stably from the moment they exist.
	BulkCreate(ctx context.Context, questions []model.ClaimQuestion) error

	// ListByClaim returns all questions for a claim in asked order.
	ListByClaim(ctx context.Context, claimID string) ([]model.ClaimQuestion, error)

	// Answer records the answer for one question, setting answer and
	// answered_at together. The claim ID guards against cross-claim writes.
	Answer(ctx context.Context, claimID, questionID, answer string, answeredAt time.Time) error
}
