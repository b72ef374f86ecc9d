package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"transit_portal_backend/internal/auth/repository"
	"transit_portal_backend/internal/auth/transport"
	casedomain "transit_portal_backend/internal/cases/domain"
	"transit_portal_backend/platform/apperr"
	"transit_portal_backend/platform/logger"
)

type fakeRepo struct {
	users  map[uuid.UUID]repository.User
	roles  map[uuid.UUID][]string
	tokens map[string]struct {
		userID    uuid.UUID
		expiresAt time.Time
	}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users: make(map[uuid.UUID]repository.User),
		roles: make(map[uuid.UUID][]string),
		tokens: make(map[string]struct {
			userID    uuid.UUID
			expiresAt time.Time
		}),
	}
}

func (f *fakeRepo) CreateUser(_ context.Context, email, fullName, passwordHash string) (repository.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return repository.User{}, apperr.Conflict("a user with this email already exists")
		}
	}
	u := repository.User{ID: uuid.New(), Email: email, FullName: fullName, PasswordHash: passwordHash, IsActive: true}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, apperr.NotFound("user not found")
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (repository.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeRepo) ListUsers(_ context.Context) ([]repository.User, error) {
	var out []repository.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.IsActive = active
	f.users[id] = u
	return nil
}

func (f *fakeRepo) SetUserRoles(_ context.Context, userID uuid.UUID, roles []string) error {
	f.roles[userID] = roles
	return nil
}

func (f *fakeRepo) GetUserRoles(_ context.Context, userID uuid.UUID) ([]string, error) {
	return f.roles[userID], nil
}

func (f *fakeRepo) CreateRefreshToken(_ context.Context, userID uuid.UUID, hash string, expiresAt time.Time) error {
	f.tokens[hash] = struct {
		userID    uuid.UUID
		expiresAt time.Time
	}{userID, expiresAt}
	return nil
}

func (f *fakeRepo) GetRefreshToken(_ context.Context, hash string) (uuid.UUID, time.Time, error) {
	t, ok := f.tokens[hash]
	if !ok {
		return uuid.Nil, time.Time{}, apperr.NotFound("refresh token not found")
	}
	return t.userID, t.expiresAt, nil
}

func (f *fakeRepo) RevokeRefreshToken(_ context.Context, hash string) error {
	delete(f.tokens, hash)
	return nil
}

func (f *fakeRepo) RevokeAllRefreshTokens(_ context.Context, userID uuid.UUID) error {
	for h, t := range f.tokens {
		if t.userID == userID {
			delete(f.tokens, h)
		}
	}
	return nil
}

type testCfg struct{}

func (testCfg) GetJWTAccessSecret() string         { return "test-secret" }
func (testCfg) GetAccessTokenTTL() time.Duration   { return 15 * time.Minute }
func (testCfg) GetRefreshTokenTTL() time.Duration  { return 24 * time.Hour }
func (testCfg) GetSeedAdminEmail() string          { return "" }
func (testCfg) GetSeedAdminPassword() string       { return "" }

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return New(repo, testCfg{}, logger.New("test")), repo
}

func TestSignInIssuesRoleClaims(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, transport.CreateUserRequest{
		Email:    "encoder@example.com",
		FullName: "Encoder",
		Password: "correct horse battery",
		Roles:    []string{casedomain.RoleDataEncoder},
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	pair, err := svc.SignIn(ctx, transport.SignInRequest{Email: "encoder@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	parsed, err := jwt.Parse(pair.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != user.ID.String() {
		t.Fatalf("sub claim = %v, want %s", claims["sub"], user.ID)
	}
	roles, _ := claims["roles"].([]interface{})
	if len(roles) != 1 || roles[0] != casedomain.RoleDataEncoder {
		t.Fatalf("roles claim = %v, want [DataEncoder]", claims["roles"])
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, transport.CreateUserRequest{
		Email:    "user@example.com",
		FullName: "User",
		Password: "the right password",
		Roles:    []string{casedomain.RoleAssessor},
	}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if _, err := svc.SignIn(ctx, transport.SignInRequest{Email: "user@example.com", Password: "wrong"}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("wrong password error = %v, want unauthorized", err)
	}
	if _, err := svc.SignIn(ctx, transport.SignInRequest{Email: "nobody@example.com", Password: "x"}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("unknown user error = %v, want unauthorized", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, transport.CreateUserRequest{
		Email:    "exec@example.com",
		FullName: "Executor",
		Password: "a fine password",
		Roles:    []string{casedomain.RoleCaseExecutor},
	}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	pair, err := svc.SignIn(ctx, transport.SignInRequest{Email: "exec@example.com", Password: "a fine password"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	next, err := svc.Refresh(ctx, transport.RefreshRequest{RefreshToken: pair.RefreshToken})
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The old token is revoked by rotation.
	if _, err := svc.Refresh(ctx, transport.RefreshRequest{RefreshToken: pair.RefreshToken}); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("reused refresh token error = %v, want unauthorized", err)
	}
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.CreateUser(context.Background(), transport.CreateUserRequest{
		Email:    "x@example.com",
		FullName: "X",
		Password: "long enough pass",
		Roles:    []string{"Superuser"},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown role error = %v, want validation error", err)
	}
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	if err := svc.SeedAdmin(ctx, "admin@example.com", "bootstrap password"); err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if err := svc.SeedAdmin(ctx, "admin@example.com", "bootstrap password"); err != nil {
		t.Fatalf("second SeedAdmin() error = %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("users after double seed = %d, want 1", len(repo.users))
	}
	if err := svc.SeedAdmin(ctx, "", ""); err != nil {
		t.Fatalf("unconfigured SeedAdmin() error = %v", err)
	}
}
