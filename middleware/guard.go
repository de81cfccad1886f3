package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/MrEthical07/persontric"
)

// TokenSource records where a guard found the session id.
type TokenSource int

const (
	SourceBearer TokenSource = iota + 1
	SourceCookie
)

// String returns the lower-case source name.
func (s TokenSource) String() string {
	switch s {
	case SourceBearer:
		return "bearer"
	case SourceCookie:
		return "cookie"
	default:
		return "unknown"
	}
}

// AuthResult is the validated session stored in the request context.
type AuthResult[S, P any] struct {
	Session *persontric.Session[S]
	Person  *persontric.Person[P]
	Source  TokenSource
}

type authResultContextKey struct{}

// AuthResultFromContext returns the result stored by a guard. The type parameters must
// match the guarding engine's.
func AuthResultFromContext[S, P any](ctx context.Context) (*AuthResult[S, P], bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*AuthResult[S, P])
	return res, ok
}

type guardOptions struct {
	bearer       bool
	cookie       bool
	checkOrigin  bool
	allowedHosts []string
}

// Guard authenticates with the bearer token when present, otherwise with the session
// cookie.
func Guard[S, P any](engine *persontric.Engine[S, P]) func(http.Handler) http.Handler {
	return guard(engine, guardOptions{bearer: true, cookie: true})
}

func guard[S, P any](engine *persontric.Engine[S, P], opts guardOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sessionID, source := resolveToken(engine, r, opts)
			if sessionID == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if source == SourceCookie && opts.checkOrigin && !VerifyRequestOrigin(r, opts.allowedHosts...) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := requestContext(r)
			session, person, err := engine.ValidateSession(ctx, sessionID)
			if err != nil {
				if errors.Is(err, persontric.ErrAdapterUnavailable) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			if session == nil {
				if source == SourceCookie {
					http.SetCookie(w, engine.CreateBlankSessionCookie().HTTPCookie())
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if session.Fresh && source == SourceCookie {
				http.SetCookie(w, engine.CreateSessionCookie(session.ID).HTTPCookie())
			}

			res := &AuthResult[S, P]{Session: session, Person: person, Source: source}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, authResultContextKey{}, res)))
		})
	}
}

func resolveToken[S, P any](engine *persontric.Engine[S, P], r *http.Request, opts guardOptions) (string, TokenSource) {
	if opts.bearer {
		if token := engine.ReadBearerToken(r.Header.Get("Authorization")); token != "" {
			return token, SourceBearer
		}
	}
	if opts.cookie {
		if c, err := r.Cookie(engine.SessionCookieName()); err == nil && c.Value != "" {
			return c.Value, SourceCookie
		}
	}
	return "", 0
}

// requestContext attaches the client address and user agent for audit events.
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	if ip := clientIP(r.RemoteAddr); ip != "" {
		ctx = persontric.WithClientIP(ctx, ip)
	}
	if ua := r.UserAgent(); ua != "" {
		ctx = persontric.WithUserAgent(ctx, ua)
	}
	return ctx
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
