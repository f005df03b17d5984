package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/roadwatch/damage-service/internal/domain"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

const principalKey = "auth_principal"

// SessionVerifier resolves an opaque token to its owning user.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware validates session tokens and loads the calling user.
type AuthMiddleware struct {
	sessions SessionVerifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions SessionVerifier) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return apperrors.NewAuthMissing("authentication required")
	}

	user, err := m.sessions.Verify(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// extractToken reads the credential from the Authorization header, falling
// back to a token form field for multipart uploads.
func extractToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return header
	}
	return c.FormValue("token")
}

// PrincipalFromContext retrieves the authenticated user.
func PrincipalFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
