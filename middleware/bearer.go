package middleware

import (
	"net/http"

	"github.com/MrEthical07/persontric"
)

// RequireBearer accepts only "Authorization: Bearer <session id>". Cookies are
// ignored, so rejected requests never receive a blank Set-Cookie.
func RequireBearer[S, P any](engine *persontric.Engine[S, P]) func(http.Handler) http.Handler {
	return guard(engine, guardOptions{bearer: true})
}
