package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/waypoint/internal/activity"
	"github.com/matthewbaird/waypoint/internal/auth"
	"github.com/matthewbaird/waypoint/internal/event"
	"github.com/matthewbaird/waypoint/internal/metrics"
	"github.com/matthewbaird/waypoint/internal/service"
	"github.com/matthewbaird/waypoint/internal/store"
)

var t0 = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

type testServer struct {
	t      *testing.T
	router http.Handler
}

// indexNow feeds events straight into the activity indexer.
type indexNow struct{ idx *activity.Indexer }

func (p indexNow) Publish(ctx context.Context, evt event.DomainEvent) {
	_ = p.idx.HandleEvent(ctx, evt)
}

func newTestServer(t *testing.T, v *auth.Validator) *testServer {
	t.Helper()
	m := metrics.New()
	timeline := activity.NewMemoryStore()
	svc := service.New(store.NewMemoryStore(),
		service.WithMetrics(m),
		service.WithPublisher(indexNow{activity.NewIndexer(timeline)}),
		service.WithClock(func() time.Time { return t0.Add(3 * time.Hour) }),
	)
	return &testServer{t: t, router: Router(Config{
		Service:        svc,
		Metrics:        m,
		Activity:       timeline,
		Validator:      v,
		DevActorHeader: "X-Actor",
	})}
}

func (s *testServer) do(method, path, actor string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Actor", actor)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func reportBody(status string, lat, lon float64, at time.Time) map[string]any {
	return map[string]any{
		"status":      status,
		"latitude":    lat,
		"longitude":   lon,
		"reported_at": at.Format(time.RFC3339),
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	rec, body := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodPost, "/v1/status-updates", "driver-1", reportBody("moving", 36.99, -120.09, t0))

	rec, _ := s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "waypoint_report_duration_seconds")
}

func TestStatusUpdates_CorrectionFlow(t *testing.T) {
	s := newTestServer(t, nil)

	rec, body := s.do(http.MethodPost, "/v1/status-updates", "driver-1", reportBody("waiting", 36.9960, -120.0968, t0))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, body["prev_status"])
	assert.Equal(t, "first_report_waiting", body["follow_up_question"].(map[string]any)["question_type"])

	rec, body = s.do(http.MethodPost, "/v1/status-updates", "driver-1", reportBody("resting", 36.9974, -120.0968, t0.Add(2*time.Hour+10*time.Minute)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "waiting", body["prev_status"])
	assert.Equal(t, "calling_it_a_night", body["follow_up_question"].(map[string]any)["question_type"])
	ctx := body["context"].(map[string]any)
	assert.Equal(t, true, ctx["is_same_location"])
	id := body["status_update_id"].(string)

	rec, body = s.do(http.MethodPost, "/v1/follow-ups/respond", "driver-1", map[string]any{
		"status_update_id": id,
		"response_value":   "still_waiting",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["status_corrected"])
	assert.Equal(t, "waiting", body["new_status"])

	rec, body = s.do(http.MethodGet, "/v1/actors/me/status", "driver-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "waiting", body["status"])

	rec, body = s.do(http.MethodPost, "/v1/follow-ups/respond", "driver-1", map[string]any{
		"status_update_id": id,
		"response_value":   "still_waiting",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_ANSWERED", body["code"])

	rec, body = s.do(http.MethodGet, "/v1/status-updates?page_size=2", "driver-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	updates := body["status_updates"].([]any)
	require.Len(t, updates, 2)
	assert.Equal(t, "system", updates[0].(map[string]any)["source"])
	assert.Equal(t, id, updates[0].(map[string]any)["corrects_record_id"])
	cursor, ok := body["next_cursor"].(string)
	require.True(t, ok)

	rec, body = s.do(http.MethodGet, "/v1/status-updates?page_size=2&cursor="+cursor, "driver-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["status_updates"].([]any), 1)
	assert.Nil(t, body["next_cursor"])

	rec, body = s.do(http.MethodGet, "/v1/follow-ups/history", "driver-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	followUps := body["follow_ups"].([]any)
	require.Len(t, followUps, 2)
	latest := followUps[0].(map[string]any)
	assert.Equal(t, "calling_it_a_night", latest["question_type"])
	assert.Equal(t, "still_waiting", latest["response_value"])
}

func TestStatusUpdates_Get(t *testing.T) {
	s := newTestServer(t, nil)
	_, body := s.do(http.MethodPost, "/v1/status-updates", "driver-1", reportBody("moving", 36.99, -120.09, t0))
	id := body["status_update_id"].(string)

	rec, body := s.do(http.MethodGet, "/v1/status-updates/"+id, "driver-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, body["id"])

	rec, _ = s.do(http.MethodGet, "/v1/status-updates/"+id, "driver-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = s.do(http.MethodGet, "/v1/status-updates/not-a-uuid", "driver-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", body["code"])
}

func TestStatusUpdates_RequestErrors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		path   string
		actor  string
		body   any
		status int
		code   string
	}{
		{"no actor", "/v1/status-updates", "", reportBody("moving", 1, 1, t0), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"malformed json", "/v1/status-updates", "driver-1", `{"status":`, http.StatusBadRequest, "INVALID_BODY"},
		{"missing latitude", "/v1/status-updates", "driver-1", map[string]any{"status": "moving", "longitude": 1}, http.StatusBadRequest, "INVALID_BODY"},
		{"unknown field", "/v1/status-updates", "driver-1", map[string]any{"status": "moving", "latitude": 1, "longitude": 1, "mood": "great"}, http.StatusBadRequest, "INVALID_BODY"},
		{"bad state", "/v1/status-updates", "driver-1", reportBody("parked", 1, 1, t0), http.StatusBadRequest, "INVALID_STATE"},
		{"bad location", "/v1/status-updates", "driver-1", reportBody("moving", 95, 1, t0), http.StatusBadRequest, "INVALID_LOCATION"},
		{"reported_at ahead of clock", "/v1/status-updates", "driver-1", reportBody("moving", 1, 1, t0.Add(4*time.Hour)), http.StatusBadRequest, "INVALID_TIMESTAMP"},
		{"answer bad id", "/v1/follow-ups/respond", "driver-1", map[string]any{"status_update_id": "nope", "response_value": "solid"}, http.StatusBadRequest, "INVALID_BODY"},
		{"answer unknown record", "/v1/follow-ups/respond", "driver-1", map[string]any{"status_update_id": uuid.NewString(), "response_value": "solid"}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(http.MethodPost, tt.path, tt.actor, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestActorStatus_BeforeFirstReport(t *testing.T) {
	s := newTestServer(t, nil)
	rec, body := s.do(http.MethodGet, "/v1/actors/me/status", "driver-9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestBearerToken(t *testing.T) {
	v := auth.NewValidator([]byte("s3cret"), "")
	s := newTestServer(t, v)
	token, err := v.Issue("driver-5", time.Hour)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(reportBody("moving", 36.99, -120.09, t0)))
	req := httptest.NewRequest(http.MethodPost, "/v1/status-updates", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := s.do(http.MethodGet, "/v1/actors/me/status", "driver-5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "driver-5", body["actor_id"])
}

func TestActivity(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(http.MethodPost, "/v1/status-updates", "driver-1", reportBody("waiting", 36.9960, -120.0968, t0))
	s.do(http.MethodPost, "/v1/status-updates", "driver-2", reportBody("moving", 36.99, -120.09, t0))
	_, body := s.do(http.MethodPost, "/v1/status-updates", "driver-1", reportBody("resting", 36.9974, -120.0968, t0.Add(2*time.Hour+10*time.Minute)))
	s.do(http.MethodPost, "/v1/follow-ups/respond", "driver-1", map[string]any{
		"status_update_id": body["status_update_id"],
		"response_value":   "still_waiting",
	})

	rec, body := s.do(http.MethodGet, "/v1/activity", "driver-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entries := body["activity"].([]any)
	require.Len(t, entries, 4)
	assert.Equal(t, event.TypeStatusCorrected, entries[0].(map[string]any)["event_type"])
	assert.Equal(t, activity.WeightModerate, entries[0].(map[string]any)["weight"])

	rec, body = s.do(http.MethodGet, "/v1/activity?min_weight=moderate", "driver-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["activity"].([]any), 1)

	rec, body = s.do(http.MethodGet, "/v1/activity?event_type=status_reported&page_size=1", "driver-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["activity"].([]any), 1)
	assert.NotEmpty(t, body["next_cursor"])

	rec, body = s.do(http.MethodGet, "/v1/activity?since=yesterday", "driver-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_QUERY", body["code"])

	rec, _ = s.do(http.MethodGet, "/v1/activity?min_weight=loud", "driver-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
