// Package api implements the HTTP handlers for the alerts service.
//
// Routes:
//
//	GET    /alerts                  → list alert rules
//	POST   /alerts                  → create a rule
//	GET    /alerts/{id}             → fetch one rule
//	PATCH  /alerts/{id}             → merge a partial update
//	DELETE /alerts/{id}             → delete a rule (history is kept)
//	POST   /alerts/{id}/toggle      → flip or set enabled
//	GET    /notifications?limit=N   → newest history records
//	POST   /match                   → run the matcher over a posted job list
//	POST   /jobs/changed            → announce that the job list changed
//	GET    /push/permission         → current push permission
//	POST   /push/permission         → record a push permission decision
//	GET    /toasts                  → pending in-app toasts
//	DELETE /toasts/{id}             → dismiss a toast
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"jobmate/alerts-service/internal/alerts"
	"jobmate/alerts-service/internal/events"
	"jobmate/alerts-service/internal/model"
	"jobmate/alerts-service/internal/notify"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	rules   *alerts.RuleStore
	history *alerts.HistoryStore
	matcher *alerts.Matcher
	perms   *notify.PermissionStore
	inbox   *notify.Inbox
	bus     events.Publisher
	log     *zap.Logger
}

// Deps bundles the components the handler serves.
type Deps struct {
	Rules       *alerts.RuleStore
	History     *alerts.HistoryStore
	Matcher     *alerts.Matcher
	Permissions *notify.PermissionStore
	Inbox       *notify.Inbox
	Bus         events.Publisher
	Log         *zap.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	bus := d.Bus
	if bus == nil {
		bus = events.Discard{}
	}
	return &Handler{
		rules:   d.Rules,
		history: d.History,
		matcher: d.Matcher,
		perms:   d.Permissions,
		inbox:   d.Inbox,
		bus:     bus,
		log:     log,
	}
}

// RegisterRoutes mounts all alerts-service routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/alerts", h.handleAlerts)
	mux.HandleFunc("/alerts/", h.handleAlert)
	mux.HandleFunc("/notifications", h.handleNotifications)
	mux.HandleFunc("/match", h.handleMatch)
	mux.HandleFunc("/jobs/changed", h.handleJobsChanged)
	mux.HandleFunc("/push/permission", h.handlePermission)
	mux.HandleFunc("/toasts", h.handleToasts)
	mux.HandleFunc("/toasts/", h.handleToast)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleAlerts handles GET|POST /alerts
func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonOK(w, h.rules.List(r.Context()))
	case http.MethodPost:
		h.createRule(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAlert handles /alerts/{id} and /alerts/{id}/toggle
func (h *Handler) handleAlert(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	id := parts[1]

	if len(parts) == 3 {
		if parts[2] != "toggle" {
			jsonError(w, fmt.Sprintf("unknown action %q", parts[2]), http.StatusNotFound)
			return
		}
		if r.Method != http.MethodPost {
			jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.toggleRule(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rule, ok := h.rules.Get(r.Context(), id)
		if !ok {
			jsonError(w, alerts.ErrRuleNotFound.Error(), http.StatusNotFound)
			return
		}
		jsonOK(w, rule)
	case http.MethodPatch:
		h.updateRule(w, r, id)
	case http.MethodDelete:
		if !h.rules.Delete(r.Context(), id) {
			jsonError(w, alerts.ErrRuleNotFound.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ─── Rule handlers ────────────────────────────────────────────────────────────

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var in model.RuleInput
	if err := decodeBody(r, &in, false); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := alerts.ValidateRuleInput(in); err != nil {
		writeError(w, err)
		return
	}
	rule := h.rules.Create(r.Context(), in)
	jsonStatus(w, http.StatusCreated, rule)
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request, id string) {
	var patch model.RuleInput
	if err := decodeBody(r, &patch, false); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	existing, ok := h.rules.Get(r.Context(), id)
	if !ok {
		jsonError(w, alerts.ErrRuleNotFound.Error(), http.StatusNotFound)
		return
	}
	if err := alerts.ValidateRulePatch(existing, patch); err != nil {
		writeError(w, err)
		return
	}
	rule, ok := h.rules.Update(r.Context(), id, patch)
	if !ok {
		jsonError(w, alerts.ErrRuleNotFound.Error(), http.StatusNotFound)
		return
	}
	jsonOK(w, rule)
}

func (h *Handler) toggleRule(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := decodeBody(r, &body, true); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	rule, ok := h.rules.Toggle(r.Context(), id, body.Enabled)
	if !ok {
		jsonError(w, alerts.ErrRuleNotFound.Error(), http.StatusNotFound)
		return
	}
	jsonOK(w, rule)
}

// ─── History, matching, events ────────────────────────────────────────────────

// handleNotifications handles GET /notifications?limit=N
func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	jsonOK(w, h.history.List(r.Context(), limit))
}

// handleMatch handles POST /match
func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Jobs   []model.Job `json:"jobs"`
		Notify bool        `json:"notify"`
	}
	if err := decodeBody(r, &body, false); err != nil {
		jsonError(w, "body must contain a jobs array", http.StatusBadRequest)
		return
	}

	opts := alerts.MatchOptions{Notify: body.Notify}
	if body.Notify && h.inbox != nil {
		opts.OnInAppNotify = func(n alerts.Notification) { h.inbox.Push(n.Message) }
	}
	matches := h.matcher.Match(r.Context(), body.Jobs, opts)
	jsonOK(w, map[string]any{"matches": matches})
}

// handleJobsChanged handles POST /jobs/changed
func (h *Handler) handleJobsChanged(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Action string `json:"action"`
		ID     string `json:"id"`
	}
	if err := decodeBody(r, &body, true); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	h.log.Debug("jobs changed", zap.String("action", body.Action), zap.String("job_id", body.ID))
	h.bus.Publish(events.Event{Kind: events.KindJobsChange, Action: body.Action, ID: body.ID})
	jsonStatus(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// ─── Push permission ──────────────────────────────────────────────────────────

// handlePermission handles GET|POST /push/permission
func (h *Handler) handlePermission(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		jsonOK(w, map[string]model.PushPermission{"state": h.perms.State(r.Context())})
	case http.MethodPost:
		var body struct {
			Decision string `json:"decision"`
		}
		if err := decodeBody(r, &body, false); err != nil {
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		decision := model.PushPermission(body.Decision)
		if decision != model.PermissionGranted && decision != model.PermissionDenied {
			jsonError(w, `decision must be "granted" or "denied"`, http.StatusBadRequest)
			return
		}
		jsonOK(w, map[string]model.PushPermission{"state": h.perms.Request(r.Context(), decision)})
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ─── Toasts ──────────────────────────────────────────────────────────────────

// handleToasts handles GET /toasts
func (h *Handler) handleToasts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	jsonOK(w, h.inbox.List())
}

// handleToast handles DELETE /toasts/{id}
func (h *Handler) handleToast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/toasts/")
	if id == "" || strings.Contains(id, "/") {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}
	if !h.inbox.Remove(id) {
		jsonError(w, "toast not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// decodeBody reads a JSON body into dst. With optional set, an empty body is
// accepted and leaves dst untouched.
func decodeBody(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeError(w http.ResponseWriter, err error) {
	var ve *alerts.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, alerts.ErrRuleNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	default:
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	jsonStatus(w, http.StatusOK, v)
}

func jsonStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonStatus(w, code, map[string]string{"error": msg})
}
