package handler

import (
	"net/http"
	"time"

	"github.com/matthewbaird/waypoint/internal/activity"
	"github.com/matthewbaird/waypoint/internal/apperr"
	"github.com/matthewbaird/waypoint/internal/auth"
)

// ActivityHandler serves the caller's activity timeline.
type ActivityHandler struct {
	store activity.Store
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(store activity.Store) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// List returns the caller's timeline, newest first.
// GET /v1/activity?since=&until=&event_type=&min_weight=&q=&page_size=&cursor=
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := parsePagination(r)
	opts := activity.QueryOptions{
		EventTypes: q["event_type"],
		MinWeight:  q.Get("min_weight"),
		Text:       q.Get("q"),
		Limit:      p.Limit,
		Cursor:     p.Cursor,
	}
	if opts.MinWeight != "" {
		if _, ok := activity.WeightOrder[opts.MinWeight]; !ok {
			writeError(w, http.StatusBadRequest, apperr.CodeInvalidQuery, "min_weight must be one of info, moderate, strong")
			return
		}
	}
	for name, dst := range map[string]**time.Time{"since": &opts.Since, "until": &opts.Until} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, apperr.CodeInvalidQuery, name+" must be an RFC 3339 timestamp")
			return
		}
		*dst = &t
	}

	entries, next, err := h.store.QueryByActor(r.Context(), auth.ActorFrom(r.Context()), opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, struct {
		Activity   []activity.Entry `json:"activity"`
		NextCursor string           `json:"next_cursor,omitempty"`
	}{entries, next})
}
