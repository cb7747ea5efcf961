package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-auth-service/internal/api/dto"
	"github.com/spec-kit/portal-auth-service/internal/service"
)

// UsersHandler exposes the staff-only customer listing.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// List handles GET /users: active customers ordered by username.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.auth.ListCustomers(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponses(users))
}
