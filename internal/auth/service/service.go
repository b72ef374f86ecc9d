// Package service implements authentication: credential checks, JWT
// issuance with role claims, refresh token rotation and user management.
package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"transit_portal_backend/internal/auth/password"
	"transit_portal_backend/internal/auth/repository"
	"transit_portal_backend/internal/auth/token"
	"transit_portal_backend/internal/auth/transport"
	casedomain "transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/config"
	"transit_portal_backend/platform/logger"
)

const accessTokenType = "access"

// knownRoles is the closed set of grantable role names.
var knownRoles = map[string]bool{
	casedomain.RoleAdmin:        true,
	casedomain.RoleDataEncoder:  true,
	casedomain.RoleCaseExecutor: true,
	casedomain.RoleAssessor:     true,
	casedomain.RoleCustomer:     true,
}

type Service struct {
	repo repository.Repository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
}

func New(repo repository.Repository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// SignIn verifies credentials and returns a token pair. Credential failures
// are indistinguishable from unknown users.
func (s *Service) SignIn(ctx context.Context, req transport.SignInRequest) (transport.TokenPairResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return transport.TokenPairResponse{}, apperr.Unauthorized("invalid credentials")
	}
	if err := password.Compare(user.PasswordHash, req.Password); err != nil {
		s.log.AuthEvent("sign_in", user.Email, false, "wrong password")
		return transport.TokenPairResponse{}, apperr.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		return transport.TokenPairResponse{}, apperr.Forbidden("account is deactivated")
	}

	s.log.AuthEvent("sign_in", user.Email, true, "")
	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued.
func (s *Service) Refresh(ctx context.Context, req transport.RefreshRequest) (transport.TokenPairResponse, error) {
	hash := token.HashSHA256(req.RefreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return transport.TokenPairResponse{}, apperr.Unauthorized("invalid refresh token")
	}
	if time.Now().After(expiresAt) {
		_ = s.repo.RevokeRefreshToken(ctx, hash)
		return transport.TokenPairResponse{}, apperr.Unauthorized("refresh token expired")
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil {
		return transport.TokenPairResponse{}, err
	}
	return s.issueTokens(ctx, userID)
}

// SignOut revokes the presented refresh token.
func (s *Service) SignOut(ctx context.Context, req transport.SignOutRequest) error {
	return s.repo.RevokeRefreshToken(ctx, token.HashSHA256(req.RefreshToken))
}

// CreateUser registers a new portal user with the given role set.
func (s *Service) CreateUser(ctx context.Context, req transport.CreateUserRequest) (transport.UserResponse, error) {
	if err := validateRoles(req.Roles); err != nil {
		return transport.UserResponse{}, err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.UserResponse{}, err
	}

	user, err := s.repo.CreateUser(ctx, req.Email, req.FullName, hash)
	if err != nil {
		return transport.UserResponse{}, err
	}
	if err := s.repo.SetUserRoles(ctx, user.ID, req.Roles); err != nil {
		return transport.UserResponse{}, err
	}

	s.log.Info("user created", "id", user.ID, "email", user.Email, "roles", req.Roles)
	return transport.UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		IsActive: user.IsActive,
		Roles:    req.Roles,
	}, nil
}

// SetRoles replaces a user's role set and revokes their refresh tokens so
// the new claims take effect on the next sign-in.
func (s *Service) SetRoles(ctx context.Context, userID uuid.UUID, req transport.SetRolesRequest) error {
	if err := validateRoles(req.Roles); err != nil {
		return err
	}
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SetUserRoles(ctx, userID, req.Roles); err != nil {
		return err
	}
	return s.repo.RevokeAllRefreshTokens(ctx, userID)
}

// ListUsers returns all portal users with their roles.
func (s *Service) ListUsers(ctx context.Context) ([]transport.UserResponse, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]transport.UserResponse, len(users))
	for i, u := range users {
		roles, err := s.repo.GetUserRoles(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out[i] = transport.UserResponse{
			ID:       u.ID,
			Email:    u.Email,
			FullName: u.FullName,
			IsActive: u.IsActive,
			Roles:    roles,
		}
	}
	return out, nil
}

// SetActive enables or disables a user account. Deactivation also revokes
// outstanding refresh tokens.
func (s *Service) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return err
	}
	if !active {
		return s.repo.RevokeAllRefreshTokens(ctx, userID)
	}
	return nil
}

// SeedAdmin ensures a bootstrap admin account exists. A no-op when the seed
// credentials are not configured or the user already exists.
func (s *Service) SeedAdmin(ctx context.Context, email, plainPassword string) error {
	if email == "" || plainPassword == "" {
		return nil
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil
	}

	_, err := s.CreateUser(ctx, transport.CreateUserRequest{
		Email:    email,
		FullName: "Administrator",
		Password: plainPassword,
		Roles:    []string{casedomain.RoleAdmin},
	})
	if err != nil {
		return err
	}
	s.log.Info("seed admin created", "email", email)
	return nil
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID) (transport.TokenPairResponse, error) {
	roles, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return transport.TokenPairResponse{}, err
	}

	accessToken, err := s.signJWT(userID, roles)
	if err != nil {
		return transport.TokenPairResponse{}, err
	}

	refreshToken, err := token.GenerateRandomToken(48)
	if err != nil {
		return transport.TokenPairResponse{}, err
	}
	hash := token.HashSHA256(refreshToken)
	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, userID, hash, expiresAt); err != nil {
		return transport.TokenPairResponse{}, err
	}

	return transport.TokenPairResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) signJWT(userID uuid.UUID, roles []string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  accessTokenType,
		"roles": roles,
		"exp":   now.Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}

func validateRoles(roles []string) error {
	for _, r := range roles {
		if !knownRoles[r] {
			return apperr.Validation("unknown role: " + r)
		}
	}
	return nil
}
