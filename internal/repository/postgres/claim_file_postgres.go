package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"fnolapi/internal/model"
	"fnolapi/internal/repository"
)

// ClaimFilePostgres is a PostgreSQL implementation of repository.ClaimFileRepository.
type ClaimFilePostgres struct {
	db *sql.DB
}

// NewClaimFilePostgres creates a new ClaimFilePostgres repository.
func NewClaimFilePostgres(db *sql.DB) *ClaimFilePostgres {
	return &ClaimFilePostgres{db: db}
}

var _ repository.ClaimFileRepository = (*ClaimFilePostgres)(nil)

// Create inserts a new claim file row and returns the stored record.
func (r *ClaimFilePostgres) Create(ctx context.Context, file *model.ClaimFile) (*model.ClaimFile, error) {
	const q = `
		INSERT INTO claim_files (id, claim_id, file_name, file_type, storage_key, file_url, file_size, damage_detected, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, claim_id, file_name, file_type, storage_key, file_url, file_size, damage_detected, created_at
	`
	var damage any
	if len(file.DamageDetected) > 0 {
		b, err := json.Marshal(file.DamageDetected)
		if err != nil {
			return nil, fmt.Errorf("encode damage_detected: %w", err)
		}
		damage = b
	}

	row := r.db.QueryRowContext(ctx, q,
		file.ID,
		file.ClaimID,
		file.FileName,
		file.FileType,
		file.StorageKey,
		file.FileURL,
		file.FileSize,
		damage,
		file.CreatedAt,
	)
	return scanClaimFile(row)
}

// ListByClaim returns all files belonging to a claim in upload order.
func (r *ClaimFilePostgres) ListByClaim(ctx context.Context, claimID string) ([]model.ClaimFile, error) {
	const q = `
		SELECT id, claim_id, file_name, file_type, storage_key, file_url, file_size, damage_detected, created_at
		FROM claim_files
		WHERE claim_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]model.ClaimFile, 0)
	for rows.Next() {
		f, err := scanClaimFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return files, nil
}

func scanClaimFile(row rowScanner) (*model.ClaimFile, error) {
	var (
		f      model.ClaimFile
		damage []byte
	)
	if err := row.Scan(
		&f.ID,
		&f.ClaimID,
		&f.FileName,
		&f.FileType,
		&f.StorageKey,
		&f.FileURL,
		&f.FileSize,
		&damage,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(damage) > 0 {
		if err := json.Unmarshal(damage, &f.DamageDetected); err != nil {
			return nil, fmt.Errorf("decode damage_detected: %w", err)
		}
	}
	return &f, nil
}
