package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-auth-service/internal/config"
)

// CookiePolicy builds the auth cookies the service sets. Two kinds exist:
//
//   - Persistent cookies carry an explicit MaxAge, so the browser keeps them
//     across restarts. Used for regular logins.
//   - Session cookies carry no MaxAge and no Expires, so the browser discards
//     them when the browsing context closes. Used for diagnostic logins, which
//     must not outlive the tab they were opened in.
//
// HTTPOnly, SameSite and Secure come from one shared config and are applied
// to every cookie regardless of kind.
type CookiePolicy struct {
	cfg config.CookieConfig
}

// NewCookiePolicy constructs the policy.
func NewCookiePolicy(cfg config.CookieConfig) *CookiePolicy {
	return &CookiePolicy{cfg: cfg}
}

// Persistent builds a cookie with an explicit lifetime in seconds.
func (p *CookiePolicy) Persistent(name, value string, maxAgeSeconds int) *fiber.Cookie {
	cookie := p.base(name, value)
	cookie.MaxAge = maxAgeSeconds
	cookie.Expires = time.Now().Add(time.Duration(maxAgeSeconds) * time.Second)
	return cookie
}

// Session builds a cookie without MaxAge or Expires.
func (p *CookiePolicy) Session(name, value string) *fiber.Cookie {
	return p.base(name, value)
}

// Expired builds a cookie that instructs the browser to drop the named cookie.
func (p *CookiePolicy) Expired(name string) *fiber.Cookie {
	cookie := p.base(name, "")
	cookie.MaxAge = -1
	cookie.Expires = time.Now().Add(-time.Hour)
	return cookie
}

func (p *CookiePolicy) base(name, value string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: p.cfg.HTTPOnly,
		SameSite: p.cfg.SameSite,
		Secure:   p.cfg.Secure,
	}
}
