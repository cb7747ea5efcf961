package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-auth-service/internal/config"
	"github.com/spec-kit/portal-auth-service/internal/domain"
	apperrors "github.com/spec-kit/portal-auth-service/pkg/util"
)

const principalKey = "auth_principal"

// SessionResolver resolves an access token string to its principal.
type SessionResolver interface {
	ResolveAccessToken(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware authenticates requests from the access-token cookie.
type AuthMiddleware struct {
	sessions SessionResolver
	cookies  config.CookieConfig
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions SessionResolver, cookies config.CookieConfig) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, cookies: cookies}
}

// Handle enforces authentication for protected routes. Every failure mode
// (missing cookie, bad signature, expired token, unknown or inactive user)
// maps to the same 401 so callers cannot probe why a session is invalid.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := c.Cookies(m.cookies.AccessName)
	if token == "" {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := m.sessions.ResolveAccessToken(c.Context(), token)
	if err != nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	c.Locals(principalKey, user)
	return c.Next()
}

// RequireStaff restricts a route to staff principals. Must run after Handle.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !user.IsStaff {
			return apperrors.NewForbidden("staff access required")
		}
		return c.Next()
	}
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
