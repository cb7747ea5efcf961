package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/portal-auth-service/internal/auth"
	"github.com/spec-kit/portal-auth-service/internal/config"
	"github.com/spec-kit/portal-auth-service/internal/domain"
	"github.com/spec-kit/portal-auth-service/internal/repository"
	apperrors "github.com/spec-kit/portal-auth-service/pkg/util"
)

// DiagnosticSession is the result of redeeming an exchange code: the two
// bound principals and the three token values to set as session cookies.
type DiagnosticSession struct {
	Customer        *domain.User
	Staff           *domain.User
	CustomerAccess  string
	CustomerRefresh string
	StaffAccess     string
}

// AuthService coordinates login, refresh and the diagnostic-impersonation
// flows.
type AuthService struct {
	users         repository.UserRepository
	codes         repository.ExchangeCodeRepository
	tokenMgr      *auth.TokenManager
	codeTTL       time.Duration
	rotateRefresh bool
}

// AuthDependencies encapsulates repo requirements for the auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	ExchangeCodeRepo repository.ExchangeCodeRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:         deps.UserRepo,
		codes:         deps.ExchangeCodeRepo,
		tokenMgr:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL()),
		codeTTL:       cfg.Auth.DiagnosticCodeTTL(),
		rotateRefresh: cfg.Auth.RotateRefreshTokens,
	}
}

// Login authenticates a principal by username and password and issues a token
// pair. Bad credentials and inactive accounts produce the same 401; only a
// valid customer login against a staff-only surface gets the distinct 403.
func (s *AuthService) Login(ctx context.Context, username, password string, requireStaff bool) (*domain.User, auth.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.TokenPair{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, auth.TokenPair{}, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, auth.TokenPair{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, auth.TokenPair{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if requireStaff && !user.IsStaff {
		return nil, auth.TokenPair{}, apperrors.NewForbidden("staff access required")
	}

	pair, err := s.tokenMgr.IssuePair(user.ID)
	if err != nil {
		return nil, auth.TokenPair{}, apperrors.NewInternalError(err)
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new access token. When rotation is
// enabled the refresh token is replaced with one carrying a new identity and
// expiry; otherwise the supplied token is returned unchanged.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (auth.TokenPair, error) {
	subjectID, err := s.tokenMgr.ParseRefresh(refreshToken)
	if err != nil {
		return auth.TokenPair{}, apperrors.NewUnauthorized("invalid refresh token")
	}

	access, err := s.tokenMgr.IssueAccess(subjectID)
	if err != nil {
		return auth.TokenPair{}, apperrors.NewInternalError(err)
	}

	refresh := refreshToken
	if s.rotateRefresh {
		refresh, err = s.tokenMgr.IssueRefresh(subjectID)
		if err != nil {
			return auth.TokenPair{}, apperrors.NewInternalError(err)
		}
	}
	return auth.TokenPair{Access: access, Refresh: refresh}, nil
}

// ResolveAccessToken verifies an access token and loads its principal. Every
// failure collapses into a single unauthorized outcome.
func (s *AuthService) ResolveAccessToken(ctx context.Context, token string) (*domain.User, error) {
	subjectID, err := s.tokenMgr.ParseAccess(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return user, nil
}

// ListCustomers returns all active non-staff users ordered by username.
func (s *AuthService) ListCustomers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.ListCustomers(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// IssueDiagnosticCode creates a one-time exchange code binding the issuing
// staff member to the target customer. The staff member's own access token is
// taken verbatim from their session cookie and stored in the record so the
// customer-facing context can later prove which staff member opened it.
func (s *AuthService) IssueDiagnosticCode(ctx context.Context, staff *domain.User, staffAccessToken, customerID string) (string, *domain.User, error) {
	customer, err := s.users.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, apperrors.NewNotFound("customer", nil)
		}
		return "", nil, apperrors.MapError(err)
	}
	if customer.IsStaff || !customer.IsActive {
		return "", nil, apperrors.NewNotFound("customer", nil)
	}

	pair, err := s.tokenMgr.IssuePair(customer.ID)
	if err != nil {
		return "", nil, apperrors.NewInternalError(err)
	}

	record := &domain.ExchangeRecord{
		StaffUserID:          staff.ID,
		CustomerUserID:       customer.ID,
		CustomerAccessToken:  pair.Access,
		CustomerRefreshToken: pair.Refresh,
		StaffAccessToken:     staffAccessToken,
	}
	if err := s.codes.Create(ctx, record); err != nil {
		return "", nil, apperrors.NewInternalError(err)
	}

	return record.Code, customer, nil
}

// RedeemDiagnosticCode consumes an exchange code and returns the diagnostic
// session it carries. Unknown, already-used and expired codes all yield the
// same 400; the caller learns nothing about why a code did not redeem.
func (s *AuthService) RedeemDiagnosticCode(ctx context.Context, code string) (*DiagnosticSession, error) {
	cutoff := time.Now().Add(-s.codeTTL)
	record, err := s.codes.Consume(ctx, code, cutoff)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return nil, invalidExchangeCode()
		}
		return nil, apperrors.NewInternalError(err)
	}

	customer, err := s.users.GetByID(ctx, record.CustomerUserID)
	if err != nil {
		return nil, invalidExchangeCode()
	}
	staff, err := s.users.GetByID(ctx, record.StaffUserID)
	if err != nil {
		return nil, invalidExchangeCode()
	}

	return &DiagnosticSession{
		Customer:        customer,
		Staff:           staff,
		CustomerAccess:  record.CustomerAccessToken,
		CustomerRefresh: record.CustomerRefreshToken,
		StaffAccess:     record.StaffAccessToken,
	}, nil
}

// DiagnosticInfo resolves the staff identity carried by a diagnostic session
// cookie. Any resolution failure reads as "no session" to the caller.
func (s *AuthService) DiagnosticInfo(ctx context.Context, staffToken string) (*domain.User, error) {
	staff, err := s.ResolveAccessToken(ctx, staffToken)
	if err != nil {
		return nil, apperrors.NewDomainError("NOT_FOUND", "no active diagnostic session", http.StatusNotFound, nil)
	}
	return staff, nil
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func invalidExchangeCode() error {
	return apperrors.NewValidationError("invalid or expired exchange code", nil)
}
