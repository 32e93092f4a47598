package postgres

import (
	"context"
	"database/sql"
	"time"

	"fnolapi/internal/model"
	"fnolapi/internal/repository"
)

// ClaimQuestionPostgres is a PostgreSQL implementation of repository.ClaimQuestionRepository.
type ClaimQuestionPostgres struct {
	db *sql.DB
}

// NewClaimQuestionPostgres creates a new ClaimQuestionPostgres repository.
func NewClaimQuestionPostgres(db *sql.DB) *ClaimQuestionPostgres {
	return &ClaimQuestionPostgres{db: db}
}

var _ repository.ClaimQuestionRepository = (*ClaimQuestionPostgres)(nil)

// BulkCreate inserts the full question set for a claim inside one transaction
// so a partially written questionnaire is never visible.
func (r *ClaimQuestionPostgres) BulkCreate(ctx context.Context, questions []model.ClaimQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO claim_questions (id, claim_id, question, question_type, is_required, asked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, question := range questions {
		if _, err := tx.ExecContext(ctx, q,
			question.ID,
			question.ClaimID,
			question.Question,
			question.QuestionType,
			question.IsRequired,
			question.AskedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListByClaim returns all questions for a claim in asked order.
func (r *ClaimQuestionPostgres) ListByClaim(ctx context.Context, claimID string) ([]model.ClaimQuestion, error) {
	const q = `
		SELECT id, claim_id, question, question_type, is_required, answer, asked_at, answered_at
		FROM claim_questions
		WHERE claim_id = $1
		ORDER BY asked_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.ClaimQuestion, 0)
	for rows.Next() {
		var (
			cq         model.ClaimQuestion
			answer     sql.NullString
			answeredAt sql.NullTime
		)
		if err := rows.Scan(
			&cq.ID,
			&cq.ClaimID,
			&cq.Question,
			&cq.QuestionType,
			&cq.IsRequired,
			&answer,
			&cq.AskedAt,
			&answeredAt,
		); err != nil {
			return nil, err
		}
		if answer.Valid {
			a := answer.String
			cq.Answer = &a
		}
		if answeredAt.Valid {
			t := answeredAt.Time
			cq.AnsweredAt = &t
		}
		questions = append(questions, cq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

// Answer writes the answer and answered_at for one question. The claim ID is
// part of the predicate so an ID from another claim can never match.
func (r *ClaimQuestionPostgres) Answer(ctx context.Context, claimID, questionID, answer string, answeredAt time.Time) error {
	const q = `
		UPDATE claim_questions
		SET answer = $3, answered_at = $4
		WHERE claim_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, q, claimID, questionID, answer, answeredAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
