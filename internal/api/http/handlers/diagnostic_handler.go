package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-auth-service/internal/api/dto"
	"github.com/spec-kit/portal-auth-service/internal/auth"
	"github.com/spec-kit/portal-auth-service/internal/config"
	"github.com/spec-kit/portal-auth-service/internal/service"
	apperrors "github.com/spec-kit/portal-auth-service/pkg/util"
)

// DiagnosticHandler exposes the diagnostic-impersonation endpoints: issuing
// an exchange code on the intranet side, redeeming it on the customer side,
// and introspecting the staff identity of an active diagnostic session.
type DiagnosticHandler struct {
	auth      *service.AuthService
	cookies   *auth.CookiePolicy
	cookieCfg config.CookieConfig
}

// NewDiagnosticHandler constructs the handler.
func NewDiagnosticHandler(authService *service.AuthService, cookies *auth.CookiePolicy, cookieCfg config.CookieConfig) *DiagnosticHandler {
	return &DiagnosticHandler{auth: authService, cookies: cookies, cookieCfg: cookieCfg}
}

// Login handles POST /diagnostic-login (staff only). Returns an opaque
// one-time code; the tokens themselves never appear in the response body.
func (h *DiagnosticHandler) Login(c *fiber.Ctx) error {
	staff, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.DiagnosticLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.CustomerID == "" {
		return fiber.NewError(http.StatusBadRequest, "customer_id required")
	}

	// The staff member's own access token travels into the exchange record
	// exactly as their browser sent it.
	staffAccessToken := c.Cookies(h.cookieCfg.AccessName)

	code, customer, err := h.auth.IssueDiagnosticCode(c.Context(), staff, staffAccessToken, req.CustomerID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"code":     code,
		"customer": dto.NewUserResponse(customer),
	})
}

// Exchange handles POST /exchange. On success the three diagnostic cookies
// are session-scoped: they carry no MaxAge, so the browser drops them when
// the tab closes.
func (h *DiagnosticHandler) Exchange(c *fiber.Ctx) error {
	var req dto.ExchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, "exchange code is required")
	}

	session, err := h.auth.RedeemDiagnosticCode(c.Context(), req.Code)
	if err != nil {
		return err
	}

	c.Cookie(h.cookies.Session(h.cookieCfg.AccessName, session.CustomerAccess))
	c.Cookie(h.cookies.Session(h.cookieCfg.RefreshName, session.CustomerRefresh))
	c.Cookie(h.cookies.Session(h.cookieCfg.StaffAccessName, session.StaffAccess))

	return c.JSON(fiber.Map{
		"customer":   dto.NewUserResponse(session.Customer),
		"staff":      dto.NewUserResponse(session.Staff),
		"diagnostic": true,
	})
}

// Info handles GET /diagnostic-info. The customer frontend calls this after a
// page refresh to restore its diagnostic banner.
func (h *DiagnosticHandler) Info(c *fiber.Ctx) error {
	staffToken := c.Cookies(h.cookieCfg.StaffAccessName)
	if staffToken == "" {
		return apperrors.NewDomainError("NOT_FOUND", "no active diagnostic session", http.StatusNotFound, nil)
	}

	staff, err := h.auth.DiagnosticInfo(c.Context(), staffToken)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"staff":      dto.NewUserResponse(staff),
		"diagnostic": true,
	})
}
