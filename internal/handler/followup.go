package handler

import (
	"net/http"
	"time"

	"github.com/matthewbaird/waypoint/internal/auth"
	"github.com/matthewbaird/waypoint/internal/service"
	"github.com/matthewbaird/waypoint/internal/types"
)

// FollowUpHandler implements HTTP handlers for prompt answers.
type FollowUpHandler struct {
	svc *service.Service
}

// NewFollowUpHandler creates a new FollowUpHandler.
func NewFollowUpHandler(svc *service.Service) *FollowUpHandler {
	return &FollowUpHandler{svc: svc}
}

type respondRequest struct {
	StatusUpdateID string  `json:"status_update_id"`
	ResponseValue  string  `json:"response_value"`
	ResponseText   *string `json:"response_text"`
	Category       *string `json:"category"`
}

type respondResponse struct {
	Success         bool         `json:"success"`
	Message         string       `json:"message"`
	StatusUpdateID  string       `json:"status_update_id"`
	StatusCorrected bool         `json:"status_corrected"`
	NewStatus       *types.State `json:"new_status,omitempty"`
}

// Respond records an answer to a prompt.
// POST /v1/follow-ups/respond
func (h *FollowUpHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := decodeJSON(r, followUpResponseSchema, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	ar := service.AnswerRequest{
		RecordID: req.StatusUpdateID,
		Value:    req.ResponseValue,
		Text:     req.ResponseText,
	}
	if req.Category != nil {
		ar.Category = types.Category(*req.Category)
	}

	res, err := h.svc.SubmitAnswer(r.Context(), auth.ActorFrom(r.Context()), ar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := respondResponse{
		Success:         true,
		Message:         res.Message,
		StatusUpdateID:  res.RecordID,
		StatusCorrected: res.Corrected,
	}
	if res.Corrected {
		resp.NewStatus = &res.NewState
	}
	writeJSON(w, http.StatusOK, resp)
}

type followUpEntry struct {
	StatusUpdateID string           `json:"status_update_id"`
	Status         types.State      `json:"status"`
	ReportedAt     time.Time        `json:"reported_at"`
	Slot           types.PromptSlot `json:"slot"`
	QuestionType   types.Category   `json:"question_type"`
	Text           string           `json:"text"`
	ResponseValue  *string          `json:"response_value"`
	ResponseText   *string          `json:"response_text,omitempty"`
	AnsweredAt     *time.Time       `json:"answered_at"`
}

func followUpEntries(recs []*types.StatusUpdate) []followUpEntry {
	out := make([]followUpEntry, 0, len(recs))
	for _, rec := range recs {
		for _, slot := range []types.PromptSlot{types.SlotPrimary, types.SlotOverlay} {
			prompt, ans := rec.PromptFor(slot)
			if prompt == nil {
				continue
			}
			e := followUpEntry{
				StatusUpdateID: rec.ID,
				Status:         rec.State,
				ReportedAt:     rec.ReportedAt,
				Slot:           slot,
				QuestionType:   prompt.Category,
				Text:           prompt.Text,
			}
			if ans != nil {
				e.ResponseValue = &ans.Value
				e.ResponseText = ans.Text
				e.AnsweredAt = &ans.AnsweredAt
			}
			out = append(out, e)
		}
	}
	return out
}

// History lists the caller's recent prompts with their answers.
// GET /v1/follow-ups/history
func (h *FollowUpHandler) History(w http.ResponseWriter, r *http.Request) {
	p := parsePagination(r)
	recs, err := h.svc.FollowUpHistory(r.Context(), auth.ActorFrom(r.Context()), p.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		FollowUps []followUpEntry `json:"follow_ups"`
	}{followUpEntries(recs)})
}
