package featurehttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

const (
	refreshRateLimit  = 6
	refreshRateWindow = time.Minute
)

// MountRoutes registers the resolution API under the given router. The
// refresh endpoint is rate limited per client so a misbehaving caller
// cannot hammer the remote distribution host.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(refreshRateLimit, refreshRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Get("/features", h.handleResolve)
	r.Get("/features/stream", h.handleResolveStream)
	r.Get("/config", h.handleGetConfig)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/config/refresh", h.handleRefresh)
	})
}
