package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/platform/apperr"
)

const (
	caseNotFoundMessage  = "case not found"
	stageNotFoundMessage = "case stage not found"

	caseColumns = `id, case_number, service_type, item_description, route_category,
		declared_value_cents, tax_category, country_of_origin, status, risk_tier,
		customer_id, assigned_executor_id, assigned_assessor_id, assignment_notes,
		created_by, created_at, updated_at`

	stageColumns = `id, case_id, kind, position, status, is_blocked, blocked_reason,
		risk_notes, notes, updated_by, created_at, updated_at`
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new cases repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreateWithStages inserts a case and its generated stage rows in a single
// transaction, so a case never exists without its template.
func (r *Repo) CreateWithStages(ctx context.Context, params CreateCaseParams, stages []domain.StageKind) (Case, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Case{}, fmt.Errorf("begin create case: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO cases (case_number, service_type, item_description, route_category,
			declared_value_cents, tax_category, country_of_origin, status, risk_tier,
			customer_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + caseColumns

	row := tx.QueryRow(ctx, query,
		params.CaseNumber, params.ServiceType, params.ItemDescription, params.RouteCategory,
		params.DeclaredValueCents, params.TaxCategory, params.CountryOfOrigin,
		domain.CaseStatusDraft, params.RiskTier, params.CustomerID, params.CreatedBy,
	)

	c, err := scanCase(row)
	if err != nil {
		return Case{}, fmt.Errorf("create case: %w", err)
	}

	stageQuery := `
		INSERT INTO case_stages (case_id, kind, position, status)
		VALUES ($1, $2, $3, $4)`

	for i, kind := range stages {
		if _, err := tx.Exec(ctx, stageQuery, c.ID, kind, i, domain.StageStatusPending); err != nil {
			return Case{}, fmt.Errorf("create case stage %s: %w", kind, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Case{}, fmt.Errorf("commit create case: %w", err)
	}

	return c, nil
}

// GetByID retrieves a case by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`

	c, err := scanCase(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, apperr.NotFound(caseNotFoundMessage)
		}
		return Case{}, fmt.Errorf("get case by id: %w", err)
	}
	return c, nil
}

// List retrieves cases matching the filters, newest first, with a total count.
// Soft-deleted cases are excluded unless the status filter asks for them.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Case, int, error) {
	where := `
		WHERE ($1::text IS NULL OR status = $1)
			AND ($1::text IS NOT NULL OR status <> 'Deleted')
			AND ($2::text IS NULL OR service_type = $2)
			AND ($3::text IS NULL OR risk_tier = $3)
			AND ($4::uuid IS NULL OR customer_id = $4)
			AND ($5::uuid IS NULL OR assigned_executor_id = $5)
			AND ($6::uuid IS NULL OR assigned_assessor_id = $6)
			AND ($7::uuid IS NULL OR created_by = $7)
			AND (NOT $8::boolean OR status IN ('Draft', 'Submitted', 'UnderReview'))`

	args := []interface{}{
		textOrNil((*string)(params.Status)),
		textOrNil((*string)(params.Type)),
		textOrNil((*string)(params.RiskTier)),
		params.CustomerID, params.ExecutorID, params.AssessorID, params.CreatedBy,
		params.PendingReview,
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cases`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + caseColumns + ` FROM cases` + where + `
		ORDER BY created_at DESC
		LIMIT $9 OFFSET $10`

	rows, err := r.pool.Query(ctx, query, append(args, limit, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	items, err := scanCases(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateDetails mutates descriptive fields only; status is untouched.
func (r *Repo) UpdateDetails(ctx context.Context, params UpdateCaseParams) (Case, error) {
	query := `
		UPDATE cases SET
			item_description = COALESCE($2, item_description),
			route_category = COALESCE($3, route_category),
			declared_value_cents = COALESCE($4, declared_value_cents),
			tax_category = COALESCE($5, tax_category),
			country_of_origin = COALESCE($6, country_of_origin),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + caseColumns

	c, err := scanCase(r.pool.QueryRow(ctx, query,
		params.ID, params.ItemDescription, params.RouteCategory,
		params.DeclaredValueCents, params.TaxCategory, params.CountryOfOrigin,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, apperr.NotFound(caseNotFoundMessage)
		}
		return Case{}, fmt.Errorf("update case details: %w", err)
	}
	return c, nil
}

// UpdateStatus sets the case status. Transition legality is the service's
// responsibility; the repository only records the outcome.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CaseStatus) (Case, error) {
	query := `
		UPDATE cases SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + caseColumns

	c, err := scanCase(r.pool.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, apperr.NotFound(caseNotFoundMessage)
		}
		return Case{}, fmt.Errorf("update case status: %w", err)
	}
	return c, nil
}

// SetRiskTier sets the case risk tier and, when notes are supplied, appends
// them to the target stage inside the same transaction so the tier and its
// justification land together or not at all.
func (r *Repo) SetRiskTier(ctx context.Context, id uuid.UUID, tier domain.RiskTier, stageID *uuid.UUID, notes *string) (Case, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Case{}, fmt.Errorf("begin set risk tier: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE cases SET risk_tier = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + caseColumns

	c, err := scanCase(tx.QueryRow(ctx, query, id, tier))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, apperr.NotFound(caseNotFoundMessage)
		}
		return Case{}, fmt.Errorf("set case risk tier: %w", err)
	}

	if notes != nil && stageID != nil {
		notesQuery := `
			UPDATE case_stages SET
				risk_notes = CASE
					WHEN risk_notes IS NULL OR risk_notes = '' THEN $2
					ELSE risk_notes || E'\n' || $2
				END,
				updated_at = now()
			WHERE id = $1`

		result, err := tx.Exec(ctx, notesQuery, *stageID, *notes)
		if err != nil {
			return Case{}, fmt.Errorf("append stage risk notes: %w", err)
		}
		if result.RowsAffected() == 0 {
			return Case{}, apperr.NotFound(stageNotFoundMessage)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Case{}, fmt.Errorf("commit set risk tier: %w", err)
	}
	return c, nil
}

// Assign writes the assignment slots and, when a status is supplied, the new
// case status in the same UPDATE. Nil slots are left as they are so a
// partial assignment never clears the other slot.
func (r *Repo) Assign(ctx context.Context, params AssignParams) (Case, error) {
	query := `
		UPDATE cases SET
			assigned_executor_id = COALESCE($2, assigned_executor_id),
			assigned_assessor_id = COALESCE($3, assigned_assessor_id),
			assignment_notes = COALESCE($4, assignment_notes),
			status = COALESCE($5, status),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + caseColumns

	c, err := scanCase(r.pool.QueryRow(ctx, query,
		params.CaseID, params.ExecutorID, params.AssessorID, params.Notes,
		textOrNil((*string)(params.Status)),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, apperr.NotFound(caseNotFoundMessage)
		}
		return Case{}, fmt.Errorf("assign case: %w", err)
	}
	return c, nil
}

// ListStages retrieves all stages of a case in template order.
func (r *Repo) ListStages(ctx context.Context, caseID uuid.UUID) ([]Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM case_stages WHERE case_id = $1 ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("list case stages: %w", err)
	}
	defer rows.Close()

	return scanStages(rows)
}

// GetStage retrieves a stage by its ID.
func (r *Repo) GetStage(ctx context.Context, stageID uuid.UUID) (Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM case_stages WHERE id = $1`

	s, err := scanStage(r.pool.QueryRow(ctx, query, stageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, apperr.NotFound(stageNotFoundMessage)
		}
		return Stage{}, fmt.Errorf("get stage by id: %w", err)
	}
	return s, nil
}

// LatestStage retrieves the most recently created stage of a case. Risk
// notes land here when the caller names no explicit stage.
func (r *Repo) LatestStage(ctx context.Context, caseID uuid.UUID) (Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM case_stages
		WHERE case_id = $1
		ORDER BY created_at DESC, position DESC
		LIMIT 1`

	s, err := scanStage(r.pool.QueryRow(ctx, query, caseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, apperr.NotFound(stageNotFoundMessage)
		}
		return Stage{}, fmt.Errorf("get latest stage: %w", err)
	}
	return s, nil
}

// UpdateStageStatus records a stage status change with actor and notes.
func (r *Repo) UpdateStageStatus(ctx context.Context, params UpdateStageParams) (Stage, error) {
	query := `
		UPDATE case_stages SET
			status = $2,
			notes = COALESCE($3, notes),
			updated_by = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + stageColumns

	s, err := scanStage(r.pool.QueryRow(ctx, query,
		params.StageID, params.Status, params.Notes, params.UpdatedBy,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, apperr.NotFound(stageNotFoundMessage)
		}
		return Stage{}, fmt.Errorf("update stage status: %w", err)
	}
	return s, nil
}

// SetStageBlocked flips the blocked flag. The reason is stored on block and
// cleared on unblock.
func (r *Repo) SetStageBlocked(ctx context.Context, stageID uuid.UUID, blocked bool, reason *string, updatedBy uuid.UUID) (Stage, error) {
	query := `
		UPDATE case_stages SET
			is_blocked = $2,
			blocked_reason = $3,
			updated_by = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + stageColumns

	s, err := scanStage(r.pool.QueryRow(ctx, query, stageID, blocked, reason, updatedBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stage{}, apperr.NotFound(stageNotFoundMessage)
		}
		return Stage{}, fmt.Errorf("set stage blocked: %w", err)
	}
	return s, nil
}

// AllStagesCompleted reports whether every stage of the case is Completed.
func (r *Repo) AllStagesCompleted(ctx context.Context, caseID uuid.UUID) (bool, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status <> 'Completed'), COUNT(*)
		FROM case_stages
		WHERE case_id = $1`

	var remaining, total int
	if err := r.pool.QueryRow(ctx, query, caseID).Scan(&remaining, &total); err != nil {
		return false, fmt.Errorf("check case stages completed: %w", err)
	}
	return total > 0 && remaining == 0, nil
}

// =============================================================================
// Scanning helpers
// =============================================================================

func scanCase(row pgx.Row) (Case, error) {
	var c Case
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&c.ID, &c.CaseNumber, &c.ServiceType, &c.ItemDescription, &c.RouteCategory,
		&c.DeclaredValueCents, &c.TaxCategory, &c.CountryOfOrigin, &c.Status, &c.RiskTier,
		&c.CustomerID, &c.AssignedExecutorID, &c.AssignedAssessorID, &c.AssignmentNotes,
		&c.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return Case{}, err
	}

	c.CreatedAt = createdAt.Format(time.RFC3339)
	c.UpdatedAt = updatedAt.Format(time.RFC3339)
	return c, nil
}

func scanCases(rows pgx.Rows) ([]Case, error) {
	var results []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return results, nil
}

func scanStage(row pgx.Row) (Stage, error) {
	var s Stage
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&s.ID, &s.CaseID, &s.Kind, &s.Position, &s.Status, &s.IsBlocked, &s.BlockedReason,
		&s.RiskNotes, &s.Notes, &s.UpdatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return Stage{}, err
	}

	s.CreatedAt = createdAt.Format(time.RFC3339)
	s.UpdatedAt = updatedAt.Format(time.RFC3339)
	return s, nil
}

func scanStages(rows pgx.Rows) ([]Stage, error) {
	var results []Stage
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return results, nil
}

func textOrNil(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
