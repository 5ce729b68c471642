// Package handler implements the HTTP handlers for the status service.
package handler

import (
	"net/http"
	"time"

	"github.com/matthewbaird/waypoint/internal/auth"
	"github.com/matthewbaird/waypoint/internal/service"
	"github.com/matthewbaird/waypoint/internal/store"
	"github.com/matthewbaird/waypoint/internal/transition"
	"github.com/matthewbaird/waypoint/internal/types"
)

// StatusHandler implements HTTP handlers for status reports.
type StatusHandler struct {
	svc *service.Service
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(svc *service.Service) *StatusHandler {
	return &StatusHandler{svc: svc}
}

type reportRequest struct {
	Status     string     `json:"status"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Accuracy   *float64   `json:"accuracy"`
	Heading    *float64   `json:"heading"`
	Speed      *float64   `json:"speed"`
	ReportedAt *time.Time `json:"reported_at"`
}

func (req reportRequest) report() types.Report {
	r := types.Report{
		State:       types.State(req.Status),
		Coordinates: types.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude},
		Accuracy:    req.Accuracy,
		Heading:     req.Heading,
		Speed:       req.Speed,
	}
	if req.ReportedAt != nil {
		r.ReportedAt = req.ReportedAt.UTC()
	}
	return r
}

type reportResponse struct {
	StatusUpdateID   string             `json:"status_update_id"`
	Status           types.State        `json:"status"`
	PrevStatus       *types.State       `json:"prev_status"`
	Context          transition.Context `json:"context"`
	FollowUpQuestion *types.Prompt      `json:"follow_up_question"`
	ConditionsPrompt *types.Prompt      `json:"conditions_prompt"`
	Message          string             `json:"message"`
}

// SubmitReport records a state report.
// POST /v1/status-updates
func (h *StatusHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(r, statusUpdateSchema, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.svc.SubmitReport(r.Context(), auth.ActorFrom(r.Context()), req.report())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := reportResponse{
		StatusUpdateID:   res.Record.ID,
		Status:           res.Record.State,
		Context:          res.Context,
		FollowUpQuestion: res.Record.Prompt,
		ConditionsPrompt: res.Record.Overlay,
		Message:          res.Message,
	}
	if prev := res.Record.PrevState(); prev != "" {
		resp.PrevStatus = &prev
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetStatusUpdate returns one of the caller's records.
// GET /v1/status-updates/{id}
func (h *StatusHandler) GetStatusUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.svc.Get(r.Context(), auth.ActorFrom(r.Context()), id.String())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListStatusUpdates returns the caller's audit history, newest first.
// GET /v1/status-updates
func (h *StatusHandler) ListStatusUpdates(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	recs, next, err := h.svc.History(r.Context(), auth.ActorFrom(r.Context()), store.QueryOptions{
		Limit:  p.Limit,
		Cursor: p.Cursor,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*types.StatusUpdate{}
	}
	writeJSON(w, http.StatusOK, struct {
		StatusUpdates []*types.StatusUpdate `json:"status_updates"`
		NextCursor    string                `json:"next_cursor,omitempty"`
	}{recs, next})
}

// ActorStatus returns the caller's authoritative current state.
// GET /v1/actors/me/status
func (h *StatusHandler) ActorStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.ActorStatus(r.Context(), auth.ActorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
