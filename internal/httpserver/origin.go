package httpserver

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/samber/lo"
)

// newCheckOrigin - allows empty origin (non-browser clients), same origin and explicitly allowed origins.
func newCheckOrigin(allowed []string, log *slog.Logger) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
			return true
		}
		if lo.Contains(allowed, origin) {
			return true
		}
		log.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}
