package persontric

import (
	"net/http"
	"time"
)

// SecurityReport is a read-only summary of the session settings in effect.
type SecurityReport struct {
	SessionTTL       time.Duration
	CookieName       string
	CookieMaxAge     time.Duration
	CookieSecure     bool
	CookieHTTPOnly   bool
	CookieSameSite   http.SameSite
	CookieDomain     string
	CookiePath       string
	AuditEnabled     bool
	AuditDropIfFull  bool
	MetricsEnabled   bool
	LatencyHistogram bool
}

// SecurityReport describes the cookie and lifetime settings of e.
func (e *Engine[S, P]) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	maxAge := e.config.SessionTTL
	if !e.config.SessionCookie.Expires {
		maxAge = persistentCookieMaxAge
	}

	attrs := e.config.SessionCookie.Attributes
	return SecurityReport{
		SessionTTL:       e.config.SessionTTL,
		CookieName:       e.config.SessionCookie.Name,
		CookieMaxAge:     maxAge,
		CookieSecure:     attrs.Secure,
		CookieHTTPOnly:   true,
		CookieSameSite:   attrs.SameSite,
		CookieDomain:     attrs.Domain,
		CookiePath:       attrs.Path,
		AuditEnabled:     e.config.Audit.Enabled,
		AuditDropIfFull:  e.config.Audit.DropIfFull,
		MetricsEnabled:   e.metrics.Enabled(),
		LatencyHistogram: e.metrics.LatencyEnabled(),
	}
}
