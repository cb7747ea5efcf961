package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for every token parse failure. Callers must not
// learn whether a token was malformed, expired, mis-signed, or of the wrong
// kind.
var ErrInvalidToken = errors.New("invalid token")

// TokenType distinguishes access from refresh tokens inside the signed claims.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenPair bundles the access and refresh tokens issued for one principal.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenManager issues and validates the HS256 JWTs carried in cookies.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Claims describes the JWT payload.
type Claims struct {
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// IssuePair generates a fresh access/refresh token pair for the subject.
func (tm *TokenManager) IssuePair(subjectID string) (TokenPair, error) {
	access, err := tm.issue(subjectID, TokenTypeAccess, tm.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := tm.issue(subjectID, TokenTypeRefresh, tm.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess generates a standalone access token for the subject.
func (tm *TokenManager) IssueAccess(subjectID string) (string, error) {
	return tm.issue(subjectID, TokenTypeAccess, tm.accessTTL)
}

// IssueRefresh generates a standalone refresh token with a new identity and
// expiry. Used when refresh-token rotation is enabled.
func (tm *TokenManager) IssueRefresh(subjectID string) (string, error) {
	return tm.issue(subjectID, TokenTypeRefresh, tm.refreshTTL)
}

func (tm *TokenManager) issue(subjectID string, kind TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ParseAccess validates an access token and returns the subject ID.
func (tm *TokenManager) ParseAccess(tokenStr string) (string, error) {
	return tm.parse(tokenStr, TokenTypeAccess)
}

// ParseRefresh validates a refresh token and returns the subject ID.
func (tm *TokenManager) ParseRefresh(tokenStr string) (string, error) {
	return tm.parse(tokenStr, TokenTypeRefresh)
}

func (tm *TokenManager) parse(tokenStr string, kind TokenType) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.TokenType != kind || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
