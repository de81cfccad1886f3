package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// VerifyRequestOrigin reports whether r may carry cookie credentials. Safe methods
// always pass. Other methods need an Origin header whose host equals r.Host or one of
// allowedHosts. Allowed hosts may be bare hosts ("example.com:8443") or URLs.
func VerifyRequestOrigin(r *http.Request, allowedHosts ...string) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	if r.Host != "" && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range allowedHosts {
		if strings.EqualFold(u.Host, hostOf(allowed)) {
			return true
		}
	}
	return false
}

func hostOf(value string) string {
	if strings.Contains(value, "://") {
		if u, err := url.Parse(value); err == nil {
			return u.Host
		}
	}
	return value
}
