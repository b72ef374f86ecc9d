package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"transit_portal_backend/platform/apperr"
)

const (
	transportNotFoundMessage = "stage transport not found"

	transportColumns = `id, stage_id, driver_name, licence_document, plate_number,
		phone, product_amount, created_by, created_at, updated_at`
)

// CreateTransport inserts a carrier record for a stage.
func (r *Repo) CreateTransport(ctx context.Context, params CreateTransportParams) (StageTransport, error) {
	query := `
		INSERT INTO stage_transports (stage_id, driver_name, licence_document,
			plate_number, phone, product_amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + transportColumns

	t, err := scanTransport(r.pool.QueryRow(ctx, query,
		params.StageID, params.DriverName, params.LicenceDocument,
		params.PlateNumber, params.Phone, params.ProductAmount, params.CreatedBy,
	))
	if err != nil {
		return StageTransport{}, fmt.Errorf("create stage transport: %w", err)
	}
	return t, nil
}

// GetTransport retrieves a transport by its ID.
func (r *Repo) GetTransport(ctx context.Context, id uuid.UUID) (StageTransport, error) {
	query := `SELECT ` + transportColumns + ` FROM stage_transports WHERE id = $1`

	t, err := scanTransport(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StageTransport{}, apperr.NotFound(transportNotFoundMessage)
		}
		return StageTransport{}, fmt.Errorf("get stage transport: %w", err)
	}
	return t, nil
}

// ListTransports retrieves all transports registered on a stage, oldest first.
func (r *Repo) ListTransports(ctx context.Context, stageID uuid.UUID) ([]StageTransport, error) {
	query := `SELECT ` + transportColumns + ` FROM stage_transports
		WHERE stage_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("list stage transports: %w", err)
	}
	defer rows.Close()

	var results []StageTransport
	for rows.Next() {
		t, err := scanTransport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage transport: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage transports: %w", err)
	}
	return results, nil
}

// UpdateTransport mutates the supplied fields; nil fields keep their value.
func (r *Repo) UpdateTransport(ctx context.Context, params UpdateTransportParams) (StageTransport, error) {
	query := `
		UPDATE stage_transports SET
			driver_name = COALESCE($2, driver_name),
			licence_document = COALESCE($3, licence_document),
			plate_number = COALESCE($4, plate_number),
			phone = COALESCE($5, phone),
			product_amount = COALESCE($6, product_amount),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + transportColumns

	t, err := scanTransport(r.pool.QueryRow(ctx, query,
		params.ID, params.DriverName, params.LicenceDocument,
		params.PlateNumber, params.Phone, params.ProductAmount,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StageTransport{}, apperr.NotFound(transportNotFoundMessage)
		}
		return StageTransport{}, fmt.Errorf("update stage transport: %w", err)
	}
	return t, nil
}

// DeleteTransport removes a transport record.
func (r *Repo) DeleteTransport(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM stage_transports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stage transport: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(transportNotFoundMessage)
	}
	return nil
}

func scanTransport(row pgx.Row) (StageTransport, error) {
	var t StageTransport
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&t.ID, &t.StageID, &t.DriverName, &t.LicenceDocument, &t.PlateNumber,
		&t.Phone, &t.ProductAmount, &t.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return StageTransport{}, err
	}

	t.CreatedAt = createdAt.Format(time.RFC3339)
	t.UpdatedAt = updatedAt.Format(time.RFC3339)
	return t, nil
}
