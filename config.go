package persontric

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Config controls session lifetime, cookie shape, and the observability side channels.
//
// Build callers typically start from [DefaultConfig] and override fields; a zero Config
// does not validate.
type Config struct {
	SessionTTL    time.Duration
	SessionCookie SessionCookieConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
SESSION COOKIE CONFIG
====================================
*/

// SessionCookieConfig describes the cookie that carries the session id.
//
// When Expires is false the cookie is issued with a two year max-age; the session TTL
// stored by the adapter is unaffected.
type SessionCookieConfig struct {
	Name       string
	Expires    bool
	Attributes CookieAttributes
}

// CookieAttributes are the overridable Set-Cookie attributes. HttpOnly is always set.
type CookieAttributes struct {
	SameSite http.SameSite // http.SameSiteLaxMode (default) or http.SameSiteStrictMode
	Domain   string
	Path     string
	Secure   bool
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters exposed through [Engine.MetricsSnapshot].
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	// DefaultSessionTTL is the lifetime of a new or renewed session.
	DefaultSessionTTL = 30 * 24 * time.Hour
	// DefaultCookieName is the session cookie name used when none is configured.
	DefaultCookieName = "auth_session"

	persistentCookieMaxAge = 2 * 365 * 24 * time.Hour
)

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used by [New].
func DefaultConfig() Config {
	return Config{
		SessionTTL: DefaultSessionTTL,
		SessionCookie: SessionCookieConfig{
			Name:    DefaultCookieName,
			Expires: true,
			Attributes: CookieAttributes{
				SameSite: http.SameSiteLaxMode,
				Path:     "/",
				Secure:   true,
			},
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found, or nil.
func (c *Config) Validate() error {
	if c.SessionTTL <= 0 {
		return errors.New("SessionTTL must be > 0")
	}

	if c.SessionCookie.Name == "" {
		return errors.New("SessionCookie Name must not be empty")
	}
	if !isCookieToken(c.SessionCookie.Name) {
		return errors.New("SessionCookie Name contains invalid characters")
	}

	switch c.SessionCookie.Attributes.SameSite {
	case http.SameSiteLaxMode, http.SameSiteStrictMode:
	default:
		return errors.New("SessionCookie SameSite must be Lax or Strict")
	}

	if !strings.HasPrefix(c.SessionCookie.Attributes.Path, "/") {
		return errors.New("SessionCookie Path must start with '/'")
	}
	if strings.ContainsAny(c.SessionCookie.Attributes.Path, ";\r\n") {
		return errors.New("SessionCookie Path contains invalid characters")
	}
	if strings.ContainsAny(c.SessionCookie.Attributes.Domain, "; \r\n") {
		return errors.New("SessionCookie Domain contains invalid characters")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

// isCookieToken reports whether name is an RFC 7230 token.
func isCookieToken(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}
