// Package adapter provides implementations of interfaces other modules
// define against the auth data, so they never depend on auth internals.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"transit_portal_backend/internal/auth/repository"
	casesvc "transit_portal_backend/internal/cases/service"
)

// RoleProviderAdapter implements cases/service.RoleProvider using the auth
// repository. Roles are resolved live on every call so revocations take
// effect immediately.
type RoleProviderAdapter struct {
	repo repository.Repository
}

func NewRoleProviderAdapter(repo repository.Repository) *RoleProviderAdapter {
	return &RoleProviderAdapter{repo: repo}
}

// RolesOf returns the user's current role names.
func (a *RoleProviderAdapter) RolesOf(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if _, err := a.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return a.repo.GetUserRoles(ctx, userID)
}

var _ casesvc.RoleProvider = (*RoleProviderAdapter)(nil)
