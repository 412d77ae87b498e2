// Package featurehttp exposes feature resolution over HTTP.
package featurehttp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/featureconfig"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/observability"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/platform/httpx"
)

// Handler serves the resolution and configuration endpoints.
type Handler struct {
	logger     *slog.Logger
	repo       *featureconfig.Repository
	resolution *featureconfig.ResolutionService
	metrics    *observability.Metrics
	validator  *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, repo *featureconfig.Repository, resolution *featureconfig.ResolutionService, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:     logger,
		repo:       repo,
		resolution: resolution,
		metrics:    metrics,
		validator:  validator.New(),
	}
}

type resolveQuery struct {
	Acting  string `validate:"required"`
	Target  string `validate:"required"`
	Plan    string `validate:"required"`
	Refresh bool
}

type resolveResponse struct {
	Selection featureconfig.Selection    `json:"selection"`
	Rows      []featureconfig.FeatureRow `json:"rows"`
}

type configResponse struct {
	Document  featureconfig.Document `json:"document"`
	IsDefault bool                   `json:"is_default"`
}

type refreshResponse struct {
	Version   int  `json:"version"`
	IsDefault bool `json:"is_default"`
}

func (h *Handler) parseResolveQuery(r *http.Request) (resolveQuery, error) {
	q := r.URL.Query()
	refresh, _ := strconv.ParseBool(q.Get("refresh"))
	rq := resolveQuery{
		Acting:  q.Get("acting"),
		Target:  q.Get("target"),
		Plan:    q.Get("plan"),
		Refresh: refresh,
	}
	if err := h.validator.Struct(rq); err != nil {
		return resolveQuery{}, fmt.Errorf("%w: acting, target and plan are required", httpx.ErrValidation)
	}
	return rq, nil
}

// selection maps wire values onto the closed enums. Unrecognized values
// degrade to Unknown rather than rejecting the request; resolution over
// Unknown yields no rows.
func (q resolveQuery) selection() featureconfig.Selection {
	return featureconfig.Selection{
		Acting: featureconfig.ParseRole(q.Acting),
		Target: featureconfig.ParseRole(q.Target),
		Plan:   featureconfig.ParsePlanID(q.Plan),
	}
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	rq, err := h.parseResolveQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sel := rq.selection()

	ctx := r.Context()
	var doc featureconfig.Document
	if rq.Refresh || h.repo.IsDefault(ctx) {
		doc = h.repo.FetchAndPersist(ctx)
	} else {
		doc = h.repo.Get(ctx)
	}

	rows := featureconfig.Resolve(doc, sel)
	h.metrics.CountResolution()
	httpx.JSON(w, http.StatusOK, resolveResponse{Selection: sel, Rows: rows})
}

// handleResolveStream drives the resolution service and streams its
// publications to the client as server-sent events. Each query on the
// stream supersedes the previous one; the connection sees only outcomes
// published after it attached.
func (h *Handler) handleResolveStream(w http.ResponseWriter, r *http.Request) {
	rq, err := h.parseResolveQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "streaming unsupported")
		return
	}

	outcomes, unsubscribe := h.resolution.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.resolution.Request(rq.selection(), rq.Refresh)

	for {
		select {
		case <-r.Context().Done():
			return
		case outcome, open := <-outcomes:
			if !open {
				return
			}
			h.writeOutcomeEvent(w, outcome)
			flusher.Flush()
		}
	}
}

func (h *Handler) writeOutcomeEvent(w http.ResponseWriter, outcome featureconfig.Outcome) {
	if outcome.Err != nil {
		payload, _ := encodeEvent(map[string]string{
			"request_id": outcome.RequestID.String(),
			"error":      outcome.Err.Error(),
		})
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
		return
	}
	h.metrics.CountResolution()
	payload, _ := encodeEvent(resolveResponse{Selection: outcome.Selection, Rows: outcome.Rows})
	fmt.Fprintf(w, "event: rows\ndata: %s\n\n", payload)
}

func encodeEvent(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	doc := h.repo.Get(r.Context())
	httpx.JSON(w, http.StatusOK, configResponse{Document: doc, IsDefault: doc.IsDefault()})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	doc := h.repo.FetchAndPersist(r.Context())
	h.logger.Info("config refresh requested",
		slog.Int("version", doc.Version),
		slog.Bool("is_default", doc.IsDefault()))
	httpx.JSON(w, http.StatusOK, refreshResponse{Version: doc.Version, IsDefault: doc.IsDefault()})
}
