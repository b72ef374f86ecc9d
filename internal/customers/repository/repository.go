// Package repository provides pgx-backed persistence for customers.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"transit_portal_backend/platform/apperr"
)

// VerificationStatus is the tri-state verification of a customer.
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "Pending"
	StatusVerified VerificationStatus = "Verified"
	StatusRejected VerificationStatus = "Rejected"
)

// ValidStatus reports whether s is a known verification status.
func ValidStatus(s VerificationStatus) bool {
	return s == StatusPending || s == StatusVerified || s == StatusRejected
}

// Customer is a persisted customer record.
type Customer struct {
	ID                uuid.UUID
	FullName          string
	CompanyName       *string
	Email             string
	Phone             string
	TaxIDNumber       *string
	Address           *string
	Status            VerificationStatus
	RejectionReason   *string
	VerifiedBy        *uuid.UUID
	VerifiedAt        *string
	VerificationNotes *string
	CreatedBy         uuid.UUID
	CreatedAt         string
	UpdatedAt         string
}

// CreateParams contains data for creating a new customer.
type CreateParams struct {
	FullName    string
	CompanyName *string
	Email       string
	Phone       string
	TaxIDNumber *string
	Address     *string
	CreatedBy   uuid.UUID
}

// UpdateParams contains the fields an update may touch. Nil means unchanged.
type UpdateParams struct {
	ID          uuid.UUID
	FullName    *string
	CompanyName *string
	Email       *string
	Phone       *string
	TaxIDNumber *string
	Address     *string
}

// ListParams filters and paginates customer listings.
type ListParams struct {
	Status *VerificationStatus
	Search string
	Limit  int
	Offset int
}

// Repository is the persistence boundary for customers.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (Customer, error)
	List(ctx context.Context, params ListParams) ([]Customer, int, error)
	Update(ctx context.Context, params UpdateParams) (Customer, error)
	SetStatus(ctx context.Context, params SetStatusParams) (Customer, error)
}

// SetStatusParams records a verification decision. VerifiedBy and Notes are
// set on approval; Reason on rejection. The decision overwrites the audit
// fields of any earlier one.
type SetStatusParams struct {
	ID         uuid.UUID
	Status     VerificationStatus
	Reason     *string
	VerifiedBy *uuid.UUID
	Notes      *string
}

const customerColumns = `id, full_name, company_name, email, phone, tax_id_number,
	address, status, rejection_reason, verified_by, verified_at, verification_notes,
	created_by, created_at, updated_at`

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

func (r *Repo) Create(ctx context.Context, params CreateParams) (Customer, error) {
	query := fmt.Sprintf(`
		INSERT INTO customers (full_name, company_name, email, phone, tax_id_number, address, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, customerColumns)

	row := r.pool.QueryRow(ctx, query,
		params.FullName, params.CompanyName, params.Email, params.Phone,
		params.TaxIDNumber, params.Address, StatusPending, params.CreatedBy)

	c, err := scanCustomer(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Customer{}, apperr.Conflict("a customer with this email or phone already exists")
		}
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound("customer not found")
		}
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *Repo) List(ctx context.Context, params ListParams) ([]Customer, int, error) {
	where := `WHERE ($1::text IS NULL OR status = $1)
		AND ($2 = '' OR full_name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%')`

	var status *string
	if params.Status != nil {
		s := string(*params.Status)
		status = &s
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM customers ` + where
	if err := r.pool.QueryRow(ctx, countQuery, status, params.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		customerColumns, where)
	rows, err := r.pool.Query(ctx, query, status, params.Search, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *Repo) Update(ctx context.Context, params UpdateParams) (Customer, error) {
	query := fmt.Sprintf(`
		UPDATE customers SET
			full_name = COALESCE($2, full_name),
			company_name = COALESCE($3, company_name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			tax_id_number = COALESCE($6, tax_id_number),
			address = COALESCE($7, address),
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, customerColumns)

	row := r.pool.QueryRow(ctx, query, params.ID,
		params.FullName, params.CompanyName, params.Email,
		params.Phone, params.TaxIDNumber, params.Address)

	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound("customer not found")
		}
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

func (r *Repo) SetStatus(ctx context.Context, params SetStatusParams) (Customer, error) {
	query := fmt.Sprintf(`
		UPDATE customers SET
			status = $2,
			rejection_reason = $3,
			verified_by = $4,
			verified_at = CASE WHEN $4::uuid IS NULL THEN NULL ELSE NOW() END,
			verification_notes = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, customerColumns)

	c, err := scanCustomer(r.pool.QueryRow(ctx, query,
		params.ID, params.Status, params.Reason, params.VerifiedBy, params.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound("customer not found")
		}
		return Customer{}, fmt.Errorf("set customer status: %w", err)
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var (
		c                  Customer
		verifiedAt         *time.Time
		createdAt, updated time.Time
	)
	err := row.Scan(&c.ID, &c.FullName, &c.CompanyName, &c.Email, &c.Phone,
		&c.TaxIDNumber, &c.Address, &c.Status, &c.RejectionReason,
		&c.VerifiedBy, &verifiedAt, &c.VerificationNotes,
		&c.CreatedBy, &createdAt, &updated)
	if err != nil {
		return Customer{}, err
	}
	if verifiedAt != nil {
		v := verifiedAt.UTC().Format(time.RFC3339)
		c.VerifiedAt = &v
	}
	c.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	c.UpdatedAt = updated.UTC().Format(time.RFC3339)
	return c, nil
}

// ParseStatus converts a user-supplied status filter.
func ParseStatus(s string) (VerificationStatus, error) {
	status := VerificationStatus(strings.TrimSpace(s))
	if !ValidStatus(status) {
		return "", apperr.BadRequest("unknown customer status filter")
	}
	return status, nil
}
