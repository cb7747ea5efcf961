package domain

import "time"

// User is the domain model for portal principals. Staff members sign in on
// the intranet; customers sign in on the customer portal.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	IsStaff      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
