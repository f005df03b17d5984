package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roadwatch/damage-service/internal/config"
	"github.com/roadwatch/damage-service/internal/domain"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		SessionTTLHours: 24,
		BcryptCost:      bcrypt.MinCost,
	}
}

func newTestAuthService(users *fakeUserRepo, sessions *fakeSessionRepo) *AuthService {
	return NewAuthService(testAuthConfig(), AuthDependencies{
		UserRepo:    users,
		SessionRepo: sessions,
	})
}

func registerInput(username, email string) RegisterInput {
	return RegisterInput{
		Username: username,
		Email:    email,
		Password: "hunter22",
		FullName: "Test Reporter",
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users, newFakeSessionRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput("alice", "other@example.com"))
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users, newFakeSessionRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("alice", "shared@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput("bob", "shared@example.com"))
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestRegisterAssignsReporterRole(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo())

	user, err := svc.Register(context.Background(), registerInput("alice", "alice@example.com"))
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, user.Role)
	require.NotEqual(t, "hunter22", user.PasswordHash)
}

func TestLoginIssuesSession(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	svc := newTestAuthService(users, sessions)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	require.NoError(t, err)

	user, session, err := svc.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.NotEmpty(t, session.Token)
	// 32 random bytes, URL-safe base64 without padding.
	require.GreaterOrEqual(t, len(session.Token), 43)

	remaining := session.ExpiresAt - time.Now().Unix()
	require.InDelta(t, (24 * time.Hour).Seconds(), float64(remaining), 5)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	require.True(t, apperrors.IsCode(err, "AUTH_INVALID"))
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo())

	_, _, err := svc.Login(context.Background(), "ghost", "hunter22")
	require.True(t, apperrors.IsCode(err, "AUTH_INVALID"))
}

func TestVerifyResolvesUser(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	svc := newTestAuthService(users, sessions)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	require.NoError(t, err)
	_, session, err := svc.Login(ctx, "alice", "hunter22")
	require.NoError(t, err)

	user, err := svc.Verify(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
}

func TestVerifyUnknownToken(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo())

	_, err := svc.Verify(context.Background(), "not-a-token")
	require.True(t, apperrors.IsCode(err, "AUTH_INVALID"))
}

func TestVerifyMissingToken(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), newFakeSessionRepo())

	_, err := svc.Verify(context.Background(), "")
	require.True(t, apperrors.IsCode(err, "AUTH_MISSING"))
}

func TestVerifyExpiredSession(t *testing.T) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	svc := newTestAuthService(users, sessions)
	ctx := context.Background()

	owner, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	require.NoError(t, err)

	expired := &domain.Session{
		Token:     "stale-token",
		UserID:    owner.ID,
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}
	require.NoError(t, sessions.Create(ctx, expired))

	_, err = svc.Verify(ctx, "stale-token")
	require.True(t, apperrors.IsCode(err, "AUTH_EXPIRED"))
}

func TestVerifyOrphanedSession(t *testing.T) {
	sessions := newFakeSessionRepo()
	svc := newTestAuthService(newFakeUserRepo(), sessions)
	ctx := context.Background()

	orphan := &domain.Session{
		Token:     "orphan-token",
		UserID:    "user-gone",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, sessions.Create(ctx, orphan))

	_, err := svc.Verify(ctx, "orphan-token")
	require.True(t, apperrors.IsCode(err, "AUTH_INVALID"))
}

func TestSweepExpiredSessions(t *testing.T) {
	sessions := newFakeSessionRepo()
	svc := newTestAuthService(newFakeUserRepo(), sessions)
	ctx := context.Background()

	require.NoError(t, sessions.Create(ctx, &domain.Session{
		Token: "old", UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}))
	require.NoError(t, sessions.Create(ctx, &domain.Session{
		Token: "fresh", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}))

	removed, err := svc.SweepExpiredSessions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	_, err = sessions.GetByToken(ctx, "fresh")
	require.NoError(t, err)
}

func TestBootstrapAdmin(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users, newFakeSessionRepo())
	ctx := context.Background()

	cfg := testAuthConfig()
	cfg.BootstrapAdmin = true
	cfg.AdminUsername = "admin"
	cfg.AdminEmail = "admin@roaddamage.local"
	cfg.AdminPassword = "admin123"

	require.NoError(t, svc.BootstrapAdmin(ctx, cfg))

	admin, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)

	// Second boot is a no-op.
	require.NoError(t, svc.BootstrapAdmin(ctx, cfg))
	count, err := users.CountByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}
