package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"fnolapi/internal/model"
	"fnolapi/internal/repository"
)

// claimColumns is the canonical select list for claims. Keep in sync with
// scanClaim.
const claimColumns = `id, claim_number, policy_number, policy_status, incident_type, incident_date,
		description, location,
		vehicle_make, vehicle_model, vehicle_year, vehicle_vin, vehicle_license_plate,
		vehicle_ownership_status, vehicle_odometer, vehicle_purchase_date,
		status, severity_level, confidence_score, routing_decision, ai_assessment,
		policy_document_url, created_at, updated_at`

// ClaimPostgres is a PostgreSQL implementation of repository.ClaimRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ClaimPostgres struct {
	db *sql.DB
}

// NewClaimPostgres creates a new ClaimPostgres repository.
func NewClaimPostgres(db *sql.DB) *ClaimPostgres {
	return &ClaimPostgres{db: db}
}

var _ repository.ClaimRepository = (*ClaimPostgres)(nil)

// NextClaimNumber reserves the next value of the claim number sequence.
func (r *ClaimPostgres) NextClaimNumber(ctx context.Context) (string, error) {
	const q = `SELECT nextval('claim_number_seq')`
	var n int64
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return "", fmt.Errorf("next claim number: %w", err)
	}
	return fmt.Sprintf("CLM-%06d", n), nil
}

// Create inserts a new claim row and returns the stored record.
func (r *ClaimPostgres) Create(ctx context.Context, claim *model.Claim) (*model.Claim, error) {
	const q = `
		INSERT INTO claims (
			id, claim_number, policy_number, policy_status, incident_type, incident_date,
			description, location,
			vehicle_make, vehicle_model, vehicle_year, vehicle_vin, vehicle_license_plate,
			vehicle_ownership_status, vehicle_odometer, vehicle_purchase_date,
			status, severity_level, confidence_score, routing_decision, ai_assessment,
			policy_document_url, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING ` + claimColumns

	assessment, err := marshalAssessment(claim.Assessment)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, q,
		claim.ID,
		claim.ClaimNumber,
		claim.PolicyNumber,
		claim.PolicyStatus,
		claim.IncidentType,
		claim.IncidentDate,
		nullString(claim.Description),
		nullString(claim.Location),
		nullString(claim.Vehicle.Make),
		nullString(claim.Vehicle.Model),
		nullInt(int64(claim.Vehicle.Year)),
		nullString(claim.Vehicle.VIN),
		nullString(claim.Vehicle.LicensePlate),
		nullString(claim.Vehicle.OwnershipStatus),
		nullInt(claim.Vehicle.Odometer),
		claim.Vehicle.PurchaseDate,
		claim.Status,
		severityOrNil(claim.SeverityLevel),
		claim.ConfidenceScore,
		routingOrNil(claim.RoutingDecision),
		assessment,
		nullString(claim.PolicyDocumentURL),
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	return scanClaim(row)
}

// FindByID fetches a single claim by its ID.
func (r *ClaimPostgres) FindByID(ctx context.Context, id string) (*model.Claim, error) {
	q := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`
	return scanClaim(r.db.QueryRowContext(ctx, q, id))
}

// List returns claims using LIMIT/OFFSET pagination and a total count,
// newest first.
func (r *ClaimPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Claim], error) {
	const qCount = `SELECT COUNT(*) FROM claims`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	qList := `SELECT ` + claimColumns + `
		FROM claims
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Claim, 0)
	for rows.Next() {
		c, err := scanClaimRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Claim]{Items: items, Total: total}, nil
}

// ApplyFinalAssessment writes severity, confidence, routing, the assessment
// payload and the assessed status in a single statement. Running it again
// replaces the previous values wholesale.
func (r *ClaimPostgres) ApplyFinalAssessment(ctx context.Context, id string, upd repository.FinalizeUpdate) error {
	const q = `
		UPDATE claims
		SET severity_level = $2,
		    confidence_score = $3,
		    routing_decision = $4,
		    ai_assessment = $5,
		    status = $6,
		    updated_at = now()
		WHERE id = $1
	`
	assessment, err := marshalAssessment(upd.Assessment)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q,
		id,
		string(upd.SeverityLevel),
		upd.ConfidenceScore,
		string(upd.RoutingDecision),
		assessment,
		string(model.ClaimStatusAssessed),
	)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row *sql.Row) (*model.Claim, error) {
	return scanClaimRows(row)
}

func scanClaimRows(row rowScanner) (*model.Claim, error) {
	var (
		c            model.Claim
		description  sql.NullString
		location     sql.NullString
		vmake        sql.NullString
		vmodel       sql.NullString
		year         sql.NullInt64
		vin          sql.NullString
		plate        sql.NullString
		ownership    sql.NullString
		odometer     sql.NullInt64
		purchaseDate sql.NullTime
		severity     sql.NullString
		confidence   sql.NullFloat64
		routing      sql.NullString
		assessment   []byte
		policyDocURL sql.NullString
	)
	if err := row.Scan(
		&c.ID,
		&c.ClaimNumber,
		&c.PolicyNumber,
		&c.PolicyStatus,
		&c.IncidentType,
		&c.IncidentDate,
		&description,
		&location,
		&vmake,
		&vmodel,
		&year,
		&vin,
		&plate,
		&ownership,
		&odometer,
		&purchaseDate,
		&c.Status,
		&severity,
		&confidence,
		&routing,
		&assessment,
		&policyDocURL,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	c.Description = description.String
	c.Location = location.String
	c.Vehicle.Make = vmake.String
	c.Vehicle.Model = vmodel.String
	c.Vehicle.Year = int(year.Int64)
	c.Vehicle.VIN = vin.String
	c.Vehicle.LicensePlate = plate.String
	c.Vehicle.OwnershipStatus = ownership.String
	c.Vehicle.Odometer = odometer.Int64
	if purchaseDate.Valid {
		t := purchaseDate.Time
		c.Vehicle.PurchaseDate = &t
	}
	if severity.Valid {
		s := model.SeverityLevel(severity.String)
		c.SeverityLevel = &s
	}
	if confidence.Valid {
		v := confidence.Float64
		c.ConfidenceScore = &v
	}
	if routing.Valid {
		rd := model.RoutingDecision(routing.String)
		c.RoutingDecision = &rd
	}
	if len(assessment) > 0 {
		var doc model.AssessmentDoc
		if err := json.Unmarshal(assessment, &doc); err != nil {
			return nil, fmt.Errorf("decode ai_assessment: %w", err)
		}
		c.Assessment = &doc
	}
	c.PolicyDocumentURL = policyDocURL.String
	return &c, nil
}

func marshalAssessment(doc *model.AssessmentDoc) (any, error) {
	if doc == nil {
		return nil, nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode ai_assessment: %w", err)
	}
	return b, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}

func severityOrNil(s *model.SeverityLevel) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func routingOrNil(r *model.RoutingDecision) any {
	if r == nil {
		return nil
	}
	return string(*r)
}
