package dto

import "github.com/spec-kit/portal-auth-service/internal/domain"

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DiagnosticLoginRequest payload for issuing an exchange code.
type DiagnosticLoginRequest struct {
	CustomerID string `json:"customer_id"`
}

// ExchangeRequest payload for redeeming an exchange code.
type ExchangeRequest struct {
	Code string `json:"code"`
}

// UserResponse is the public shape of a principal.
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"is_staff"`
}

// NewUserResponse maps a domain user to its response shape.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsStaff:   user.IsStaff,
	}
}

// NewUserResponses maps a list of domain users.
func NewUserResponses(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}
