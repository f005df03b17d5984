package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/roadwatch/damage-service/internal/auth"
	"github.com/roadwatch/damage-service/internal/config"
	"github.com/roadwatch/damage-service/internal/domain"
	"github.com/roadwatch/damage-service/internal/persistence"
	"github.com/roadwatch/damage-service/internal/repository"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

const uniqueViolation = "23505"

// AuthService coordinates registration, login and session verification.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	cache      *persistence.Redis
	logger     *zap.Logger
	bcryptCost int
	sessionTTL time.Duration
	cacheTTL   time.Duration
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Cache       *persistence.Redis
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.SessionRepo,
		cache:      deps.Cache,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		sessionTTL: cfg.SessionTTL(),
		cacheTTL:   cfg.SessionCacheTTL(),
	}
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Phone    *string
}

// Register creates a new reporter account. Username and email are
// globally unique; a duplicate of either fails with Conflict and leaves
// the existing account untouched.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": input.Username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewPersistenceError("user lookup", err)
	}
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewPersistenceError("user lookup", err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        input.Phone,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Unique indexes close the race the pre-checks cannot.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, apperrors.NewConflict("username or email already taken", nil)
		}
		return nil, apperrors.NewPersistenceError("user create", err)
	}
	return user, nil
}

// Login authenticates by username and password and issues a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewAuthInvalid("invalid credentials")
		}
		return nil, nil, apperrors.NewPersistenceError("user lookup", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewAuthInvalid("invalid credentials")
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// createSession issues an opaque token valid for the configured TTL.
func (s *AuthService) createSession(ctx context.Context, userID string) (*domain.Session, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	session := &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL).Unix(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.NewPersistenceError("session create", err)
	}
	return session, nil
}

// cachedPrincipal is the session cache entry. Expiry travels with the
// entry so a cached hit still honors the raw session deadline.
type cachedPrincipal struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	FullName  string          `json:"full_name"`
	Phone     *string         `json:"phone,omitempty"`
	Role      domain.UserRole `json:"role"`
	ExpiresAt int64           `json:"expires_at"`
}

// Verify resolves an opaque token to its owning user. Expired sessions
// fail with AUTH_EXPIRED; unknown tokens with AUTH_INVALID. Verification
// is read-through cached; cache failures fall back to the database.
func (s *AuthService) Verify(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.NewAuthMissing("no token provided")
	}

	if user, ok := s.cachedUser(ctx, token); ok {
		return user, nil
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAuthInvalid("invalid session token")
		}
		return nil, apperrors.NewPersistenceError("session lookup", err)
	}
	if session.Expired(time.Now()) {
		return nil, apperrors.NewAuthExpired("session expired")
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Weak reference: the user may have vanished independently.
			return nil, apperrors.NewAuthInvalid("session user no longer exists")
		}
		return nil, apperrors.NewPersistenceError("user lookup", err)
	}

	s.cacheUser(ctx, token, user, session.ExpiresAt)
	return user, nil
}

func (s *AuthService) cachedUser(ctx context.Context, token string) (*domain.User, bool) {
	if s.cache == nil || s.cache.Client == nil {
		return nil, false
	}
	raw, err := s.cache.Client.Get(ctx, sessionCacheKey(token)).Bytes()
	if err != nil {
		return nil, false
	}
	var entry cachedPrincipal
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if entry.ExpiresAt <= time.Now().Unix() {
		return nil, false
	}
	return &domain.User{
		ID:       entry.ID,
		Username: entry.Username,
		Email:    entry.Email,
		FullName: entry.FullName,
		Phone:    entry.Phone,
		Role:     entry.Role,
	}, true
}

func (s *AuthService) cacheUser(ctx context.Context, token string, user *domain.User, expiresAt int64) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	entry := cachedPrincipal{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Role:      user.Role,
		ExpiresAt: expiresAt,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	ttl := s.cacheTTL
	if remaining := time.Until(time.Unix(expiresAt, 0)); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	if err := s.cache.Client.Set(ctx, sessionCacheKey(token), raw, ttl).Err(); err != nil {
		s.logger.Debug("session cache write failed", zap.Error(err))
	}
}

func sessionCacheKey(token string) string {
	return "session:" + token
}

// BootstrapAdmin creates the default administrator account when no user
// with that username exists yet. Intended for first boot.
func (s *AuthService) BootstrapAdmin(ctx context.Context, cfg config.AuthConfig) error {
	if !cfg.BootstrapAdmin {
		return nil
	}
	if _, err := s.users.GetByUsername(ctx, cfg.AdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewPersistenceError("admin lookup", err)
	}

	hash, err := auth.HashPassword(cfg.AdminPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	admin := &domain.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		FullName:     "System Administrator",
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return apperrors.NewPersistenceError("admin create", err)
	}
	s.logger.Info("created default admin user", zap.String("username", cfg.AdminUsername))
	return nil
}

// SweepExpiredSessions removes sessions past their expiry timestamp.
// Expiry is otherwise lazy; this keeps the table from growing unbounded.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, time.Now().Unix())
	if err != nil {
		return 0, apperrors.NewPersistenceError("session sweep", err)
	}
	return removed, nil
}
