package middleware

import (
	"net/http"

	"github.com/MrEthical07/persontric"
)

// RequireCookie accepts only the session cookie and rejects state-changing requests
// whose Origin is not the request host or one of allowedHosts.
func RequireCookie[S, P any](engine *persontric.Engine[S, P], allowedHosts ...string) func(http.Handler) http.Handler {
	return guard(engine, guardOptions{cookie: true, checkOrigin: true, allowedHosts: allowedHosts})
}
