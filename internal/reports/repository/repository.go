// Package repository aggregates case workflow counters for dashboards.
package repository

import (
	"context"
	"fmt"

	"transit_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opOverview  = "reports.repository.overview"
	opByStatus  = "reports.repository.by_status"
	opByType    = "reports.repository.by_type"
	opByRisk    = "reports.repository.by_risk"
	opWorkloads = "reports.repository.workloads"
	opPersonal  = "reports.repository.personal"
)

// Overview aggregates headline counters for the dashboard.
type Overview struct {
	TotalCases     int `json:"totalCases"`
	ActiveCases    int `json:"activeCases"`
	PendingReview  int `json:"pendingReview"`
	CompletedCases int `json:"completedCases"`
	BlockedStages  int `json:"blockedStages"`
}

// Bucket is a single grouped counter row.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// PersonalDashboard aggregates the counters relevant to one user across
// every role they may hold: cases they registered, cases on their executor
// queue, and reviews waiting on them as assessor.
type PersonalDashboard struct {
	CreatedCases   int `json:"createdCases"`
	ExecutingCases int `json:"executingCases"`
	BlockedStages  int `json:"blockedStages"`
	PendingReviews int `json:"pendingReviews"`
	CompletedCases int `json:"completedCases"`
}

// ExecutorWorkload summarizes the open load per case executor.
type ExecutorWorkload struct {
	UserID        uuid.UUID `json:"userId"`
	FullName      string    `json:"fullName"`
	ActiveCases   int       `json:"activeCases"`
	BlockedStages int       `json:"blockedStages"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetOverview(ctx context.Context) (Overview, error) {
	var o Overview
	err := r.pool.QueryRow(ctx, `
		SELECT
			(
				SELECT COUNT(*)
				FROM cases
				WHERE status <> 'Deleted'
			) AS total_cases,
			(
				SELECT COUNT(*)
				FROM cases
				WHERE status IN ('Approved', 'InProgress')
			) AS active_cases,
			(
				SELECT COUNT(*)
				FROM cases
				WHERE status IN ('Draft', 'Submitted', 'UnderReview')
			) AS pending_review,
			(
				SELECT COUNT(*)
				FROM cases
				WHERE status = 'Completed'
			) AS completed_cases,
			(
				SELECT COUNT(*)
				FROM case_stages cs
				JOIN cases c ON c.id = cs.case_id
				WHERE cs.is_blocked = TRUE
					AND c.status <> 'Deleted'
			) AS blocked_stages
	`).Scan(
		&o.TotalCases,
		&o.ActiveCases,
		&o.PendingReview,
		&o.CompletedCases,
		&o.BlockedStages,
	)
	if err != nil {
		return Overview{}, apperr.Internal(fmt.Sprintf("overview query failed: %v", err)).WithOp(opOverview)
	}
	return o, nil
}

func (r *Repository) GetPersonalDashboard(ctx context.Context, userID uuid.UUID) (PersonalDashboard, error) {
	var d PersonalDashboard
	err := r.pool.QueryRow(ctx, `
		SELECT
			(
				SELECT COUNT(*)
				FROM cases
				WHERE created_by = $1 AND status <> 'Deleted'
			) AS created_cases,
			(
				SELECT COUNT(*)
				FROM cases
				WHERE assigned_executor_id = $1
					AND status IN ('Approved', 'InProgress')
			) AS executing_cases,
			(
				SELECT COUNT(cs.id)
				FROM case_stages cs
				JOIN cases c ON c.id = cs.case_id
				WHERE c.assigned_executor_id = $1
					AND cs.is_blocked = TRUE
					AND c.status <> 'Deleted'
			) AS blocked_stages,
			(
				SELECT COUNT(*)
				FROM cases
				WHERE assigned_assessor_id = $1
					AND status IN ('Submitted', 'UnderReview')
			) AS pending_reviews,
			(
				SELECT COUNT(*)
				FROM cases
				WHERE (created_by = $1 OR assigned_executor_id = $1)
					AND status = 'Completed'
			) AS completed_cases
	`, userID).Scan(
		&d.CreatedCases,
		&d.ExecutingCases,
		&d.BlockedStages,
		&d.PendingReviews,
		&d.CompletedCases,
	)
	if err != nil {
		return PersonalDashboard{}, apperr.Internal(fmt.Sprintf("personal dashboard query failed: %v", err)).WithOp(opPersonal)
	}
	return d, nil
}

func (r *Repository) CountByStatus(ctx context.Context) ([]Bucket, error) {
	return r.countGrouped(ctx, `
		SELECT status, COUNT(*)
		FROM cases
		WHERE status <> 'Deleted'
		GROUP BY status
		ORDER BY status`, opByStatus)
}

func (r *Repository) CountByServiceType(ctx context.Context) ([]Bucket, error) {
	return r.countGrouped(ctx, `
		SELECT service_type, COUNT(*)
		FROM cases
		WHERE status <> 'Deleted'
		GROUP BY service_type
		ORDER BY service_type`, opByType)
}

func (r *Repository) CountByRiskTier(ctx context.Context) ([]Bucket, error) {
	return r.countGrouped(ctx, `
		SELECT risk_tier, COUNT(*)
		FROM cases
		WHERE status <> 'Deleted'
		GROUP BY risk_tier
		ORDER BY risk_tier`, opByRisk)
}

func (r *Repository) countGrouped(ctx context.Context, query, op string) ([]Bucket, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("grouped count failed: %v", err)).WithOp(op)
	}
	defer rows.Close()

	buckets := make([]Bucket, 0)
	for rows.Next() {
		var b Bucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan bucket failed: %v", err)).WithOp(op)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (r *Repository) ExecutorWorkloads(ctx context.Context) ([]ExecutorWorkload, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			u.id,
			u.full_name,
			COUNT(DISTINCT c.id) AS active_cases,
			COUNT(cs.id) FILTER (WHERE cs.is_blocked = TRUE) AS blocked_stages
		FROM users u
		JOIN cases c ON c.assigned_executor_id = u.id
			AND c.status IN ('Approved', 'InProgress')
		LEFT JOIN case_stages cs ON cs.case_id = c.id
		WHERE u.is_active = TRUE
		GROUP BY u.id, u.full_name
		ORDER BY active_cases DESC, u.full_name ASC
	`)
	if err != nil {
		return nil, apperr.Internal(fmt.Sprintf("workload query failed: %v", err)).WithOp(opWorkloads)
	}
	defer rows.Close()

	workloads := make([]ExecutorWorkload, 0)
	for rows.Next() {
		var w ExecutorWorkload
		if err := rows.Scan(&w.UserID, &w.FullName, &w.ActiveCases, &w.BlockedStages); err != nil {
			return nil, apperr.Internal(fmt.Sprintf("scan workload failed: %v", err)).WithOp(opWorkloads)
		}
		workloads = append(workloads, w)
	}
	return workloads, rows.Err()
}
