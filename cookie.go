package persontric

import (
	"net/http"
	"strings"
	"time"
)

const bearerScheme = "Bearer"

// Cookie describes a Set-Cookie header for the session id. MaxAge is in seconds; a
// MaxAge of zero together with an Expires at the Unix epoch deletes the cookie.
type Cookie struct {
	Name     string
	Value    string
	MaxAge   int
	Expires  time.Time
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	Domain   string
	Path     string
}

// HTTPCookie converts c to a net/http cookie. A zero MaxAge is emitted as "Max-Age=0".
func (c Cookie) HTTPCookie() *http.Cookie {
	maxAge := c.MaxAge
	if maxAge == 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		MaxAge:   maxAge,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
	}
}

// String returns the Set-Cookie header value.
func (c Cookie) String() string {
	return c.HTTPCookie().String()
}

// CreateSessionCookie returns the cookie that carries sessionID. Its lifetime is the
// session TTL, or two years when SessionCookie.Expires is false.
func (e *Engine[S, P]) CreateSessionCookie(sessionID string) Cookie {
	maxAge := e.config.SessionTTL
	if !e.config.SessionCookie.Expires {
		maxAge = persistentCookieMaxAge
	}

	c := e.baseCookie(sessionID)
	c.MaxAge = int(maxAge / time.Second)
	c.Expires = e.now().Add(maxAge)
	return c
}

// CreateBlankSessionCookie returns a cookie that clears the session cookie in the client.
func (e *Engine[S, P]) CreateBlankSessionCookie() Cookie {
	c := e.baseCookie("")
	c.MaxAge = 0
	c.Expires = time.Unix(0, 0).UTC()
	return c
}

// ReadSessionCookie returns the session id carried by a Cookie request header, or ""
// when the configured cookie is absent.
func (e *Engine[S, P]) ReadSessionCookie(cookieHeader string) string {
	if cookieHeader == "" {
		return ""
	}

	req := &http.Request{Header: http.Header{"Cookie": {cookieHeader}}}
	c, err := req.Cookie(e.config.SessionCookie.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

// ReadBearerToken extracts the token from an Authorization header value of the form
// "Bearer <token>". Any other scheme, including a differently cased "bearer", yields "".
func (e *Engine[S, P]) ReadBearerToken(authorizationHeader string) string {
	scheme, token, ok := strings.Cut(authorizationHeader, " ")
	if !ok || scheme != bearerScheme {
		return ""
	}
	return token
}

// SessionCookieName returns the configured cookie name.
func (e *Engine[S, P]) SessionCookieName() string {
	return e.config.SessionCookie.Name
}

func (e *Engine[S, P]) baseCookie(value string) Cookie {
	attrs := e.config.SessionCookie.Attributes
	return Cookie{
		Name:     e.config.SessionCookie.Name,
		Value:    value,
		HTTPOnly: true,
		Secure:   attrs.Secure,
		SameSite: attrs.SameSite,
		Domain:   attrs.Domain,
		Path:     attrs.Path,
	}
}
