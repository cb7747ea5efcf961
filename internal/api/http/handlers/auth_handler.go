package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-auth-service/internal/api/dto"
	"github.com/spec-kit/portal-auth-service/internal/auth"
	"github.com/spec-kit/portal-auth-service/internal/config"
	"github.com/spec-kit/portal-auth-service/internal/service"
	apperrors "github.com/spec-kit/portal-auth-service/pkg/util"
)

// AuthHandler exposes the login, logout, refresh and me endpoints.
type AuthHandler struct {
	auth          *service.AuthService
	cookies       *auth.CookiePolicy
	cookieCfg     config.CookieConfig
	accessMaxAge  int
	refreshMaxAge int
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService, cookies *auth.CookiePolicy, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		auth:          authService,
		cookies:       cookies,
		cookieCfg:     cfg.Cookie,
		accessMaxAge:  int(cfg.Auth.AccessTokenTTL().Seconds()),
		refreshMaxAge: int(cfg.Auth.RefreshTokenTTL().Seconds()),
	}
}

// Login handles POST /login. The optional require_staff query flag rejects
// non-staff principals with 403, used by the intranet frontend.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username and password required")
	}

	requireStaff := strings.ToLower(c.Query("require_staff", "false")) == "true"

	user, pair, err := h.auth.Login(c.Context(), req.Username, req.Password, requireStaff)
	if err != nil {
		return err
	}

	h.setPersistentCookies(c, pair.Access, pair.Refresh)
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// Logout handles POST /logout. All three cookie names are cleared regardless
// of which were set, so it also ends diagnostic sessions.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(h.cookies.Expired(h.cookieCfg.AccessName))
	c.Cookie(h.cookies.Expired(h.cookieCfg.RefreshName))
	c.Cookie(h.cookies.Expired(h.cookieCfg.StaffAccessName))
	return c.JSON(fiber.Map{"detail": "logged out successfully"})
}

// Refresh handles POST /refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(h.cookieCfg.RefreshName)
	if refreshToken == "" {
		return apperrors.NewUnauthorized("refresh token not found")
	}

	pair, err := h.auth.Refresh(c.Context(), refreshToken)
	if err != nil {
		return err
	}

	h.setPersistentCookies(c, pair.Access, pair.Refresh)
	return c.JSON(fiber.Map{"detail": "token refreshed"})
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *AuthHandler) setPersistentCookies(c *fiber.Ctx, access, refresh string) {
	c.Cookie(h.cookies.Persistent(h.cookieCfg.AccessName, access, h.accessMaxAge))
	c.Cookie(h.cookies.Persistent(h.cookieCfg.RefreshName, refresh, h.refreshMaxAge))
}
