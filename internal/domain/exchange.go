package domain

import "time"

// ExchangeRecord is a short-lived, single-use code used to transfer a
// diagnostic session from the intranet frontend to the customer frontend.
//
// Both the customer's token pair and the issuing staff member's access token
// are captured at creation time, so the customer-facing context can
// authenticate as the customer while still carrying the staff identity for
// audit logging.
type ExchangeRecord struct {
	ID                   string
	Code                 string
	StaffUserID          string
	CustomerUserID       string
	CustomerAccessToken  string
	CustomerRefreshToken string
	StaffAccessToken     string
	CreatedAt            time.Time
	Used                 bool
}
