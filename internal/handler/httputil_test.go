package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/waypoint/internal/apperr"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Limit: 20}},
		{"page_size=5&cursor=12", Pagination{Limit: 5, Cursor: "12"}},
		{"limit=7", Pagination{Limit: 7}},
		{"page_size=500", Pagination{Limit: 100}},
		{"page_size=-1", Pagination{Limit: 20}},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/v1/status-updates?"+tt.query, nil)
		if got := parsePagination(r); got != tt.want {
			t.Errorf("parsePagination(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestDecodeJSON_ReportSchema(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"minimal", `{"status":"moving","latitude":36.9,"longitude":-120.1}`, false},
		{"full", `{"status":"resting","latitude":36.9,"longitude":-120.1,"accuracy":12,"heading":90,"speed":0,"reported_at":"2026-03-14T08:00:00Z"}`, false},
		{"null optionals", `{"status":"resting","latitude":36.9,"longitude":-120.1,"accuracy":null,"reported_at":null}`, false},
		{"latitude as string", `{"status":"moving","latitude":"36.9","longitude":-120.1}`, true},
		{"bad timestamp", `{"status":"moving","latitude":36.9,"longitude":-120.1,"reported_at":"yesterday"}`, true},
		{"not an object", `[]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/v1/status-updates", strings.NewReader(tt.body))
			var req reportRequest
			err := decodeJSON(r, statusUpdateSchema, &req)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, 36.9, req.Latitude)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeInvalidBody})
		})
	}
}

func TestWriteServiceError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestWriteServiceError_Retryable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodPost, "/", nil), apperr.Concurrency(nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"retryable":true`)
	assert.Contains(t, rec.Body.String(), `"code":"VERSION_CONFLICT"`)
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCompiledSchemas(t *testing.T) {
	for _, name := range []string{"status_update.schema.json", "follow_up_response.schema.json"} {
		_, err := compileSchema(name)
		assert.NoError(t, err, name)
	}
	_, err := compileSchema("missing.schema.json")
	assert.Error(t, err)
}
