// Package repository provides pgx-backed persistence for document metadata.
// File bytes live in the blob store; rows here carry the key and audit trail.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"transit_portal_backend/platform/apperr"
)

// Document is persisted metadata for one uploaded file. StageID is set for
// stage-scoped paperwork and nil for case-level documents.
type Document struct {
	ID          uuid.UUID
	CaseID      uuid.UUID
	StageID     *uuid.UUID
	FileName    string
	FileKey     string
	ContentType string
	SizeBytes   int64
	IsVerified  bool
	VerifiedBy  *uuid.UUID
	UploadedBy  uuid.UUID
	IsDeleted   bool
	CreatedAt   string
}

// CreateParams contains data for recording an upload.
type CreateParams struct {
	CaseID      uuid.UUID
	StageID     *uuid.UUID
	FileName    string
	FileKey     string
	ContentType string
	SizeBytes   int64
	UploadedBy  uuid.UUID
}

// Repository is the persistence boundary for document metadata.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (Document, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]Document, error)
	ListByStage(ctx context.Context, stageID uuid.UUID) ([]Document, error)
	SetVerified(ctx context.Context, id uuid.UUID, verifiedBy uuid.UUID) (Document, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const documentColumns = `id, case_id, stage_id, file_name, file_key, content_type,
	size_bytes, is_verified, verified_by, uploaded_by, is_deleted, created_at`

func (r *Repo) Create(ctx context.Context, params CreateParams) (Document, error) {
	query := fmt.Sprintf(`
		INSERT INTO case_documents (case_id, stage_id, file_name, file_key, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, documentColumns)

	d, err := scanDocument(r.pool.QueryRow(ctx, query,
		params.CaseID, params.StageID, params.FileName, params.FileKey,
		params.ContentType, params.SizeBytes, params.UploadedBy))
	if err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return d, nil
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM case_documents WHERE id = $1 AND NOT is_deleted`, documentColumns)

	d, err := scanDocument(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, apperr.NotFound("document not found")
		}
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (r *Repo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM case_documents
		WHERE case_id = $1 AND NOT is_deleted
		ORDER BY created_at ASC`, documentColumns)
	return r.list(ctx, query, caseID)
}

func (r *Repo) ListByStage(ctx context.Context, stageID uuid.UUID) ([]Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM case_documents
		WHERE stage_id = $1 AND NOT is_deleted
		ORDER BY created_at ASC`, documentColumns)
	return r.list(ctx, query, stageID)
}

func (r *Repo) SetVerified(ctx context.Context, id uuid.UUID, verifiedBy uuid.UUID) (Document, error) {
	query := fmt.Sprintf(`
		UPDATE case_documents SET is_verified = TRUE, verified_by = $2
		WHERE id = $1 AND NOT is_deleted
		RETURNING %s`, documentColumns)

	d, err := scanDocument(r.pool.QueryRow(ctx, query, id, verifiedBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, apperr.NotFound("document not found")
		}
		return Document{}, fmt.Errorf("verify document: %w", err)
	}
	return d, nil
}

func (r *Repo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE case_documents SET is_deleted = TRUE WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("document not found")
	}
	return nil
}

func (r *Repo) list(ctx context.Context, query string, id uuid.UUID) ([]Document, error) {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanDocument(row pgx.Row) (Document, error) {
	var (
		d         Document
		createdAt time.Time
	)
	err := row.Scan(&d.ID, &d.CaseID, &d.StageID, &d.FileName, &d.FileKey,
		&d.ContentType, &d.SizeBytes, &d.IsVerified, &d.VerifiedBy,
		&d.UploadedBy, &d.IsDeleted, &createdAt)
	if err != nil {
		return Document{}, err
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return d, nil
}
