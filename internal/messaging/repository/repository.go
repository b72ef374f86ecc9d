// Package repository provides pgx-backed persistence for the append-only
// case message and stage comment ledger.
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

// AuthorKind distinguishes user-authored entries from engine-generated ones.
type AuthorKind string

const (
	AuthorUser   AuthorKind = "User"
	AuthorSystem AuthorKind = "System"
)

// Message is one entry in a case's message ledger. StageID is set for
// stage-scoped comments and nil for case-level messages.
type Message struct {
	ID         uuid.UUID
	CaseID     uuid.UUID
	StageID    *uuid.UUID
	AuthorID   uuid.UUID
	AuthorKind AuthorKind
	Title      *string
	Body       string
	CreatedAt  string
}

// CreateParams contains data for appending a message.
type CreateParams struct {
	CaseID     uuid.UUID
	StageID    *uuid.UUID
	AuthorID   uuid.UUID
	AuthorKind AuthorKind
	Title      *string
	Body       string
}

// Repository is the persistence boundary for messages. The ledger is
// append-only: there are no update or delete operations.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Message, error)
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]Message, error)
	ListByStage(ctx context.Context, stageID uuid.UUID) ([]Message, error)
}

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const messageColumns = `id, case_id, stage_id, author_id, author_kind, title, body, created_at`

func (r *Repo) Create(ctx context.Context, params CreateParams) (Message, error) {
	query := fmt.Sprintf(`
		INSERT INTO case_messages (case_id, stage_id, author_id, author_kind, title, body)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, messageColumns)

	m, err := scanMessage(r.pool.QueryRow(ctx, query,
		params.CaseID, params.StageID, params.AuthorID, params.AuthorKind, params.Title, params.Body))
	if err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}
	return m, nil
}

func (r *Repo) ListByCase(ctx context.Context, caseID uuid.UUID) ([]Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM case_messages WHERE case_id = $1 ORDER BY created_at ASC`, messageColumns)
	return r.list(ctx, query, caseID)
}

func (r *Repo) ListByStage(ctx context.Context, stageID uuid.UUID) ([]Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM case_messages WHERE stage_id = $1 ORDER BY created_at ASC`, messageColumns)
	return r.list(ctx, query, stageID)
}

func (r *Repo) list(ctx context.Context, query string, id uuid.UUID) ([]Message, error) {
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		m         Message
		createdAt time.Time
	)
	err := row.Scan(&m.ID, &m.CaseID, &m.StageID, &m.AuthorID, &m.AuthorKind, &m.Title, &m.Body, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, apperr.NotFound("message not found")
		}
		return Message{}, err
	}
	m.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return m, nil
}
