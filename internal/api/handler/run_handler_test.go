package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mlenart/diary-insights/internal/artifact"
	"github.com/mlenart/diary-insights/internal/domain"
	"github.com/mlenart/diary-insights/internal/service"
)

func testRouter(h *RunHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/runs", h.Create)
	r.Get("/v1/runs/{runId}", h.GetByID)
	r.Get("/v1/snapshot", h.Snapshot)
	return r
}

func TestRunHandler_Create(t *testing.T) {
	pipeline := &mockPipeline{
		RunFunc: func(ctx context.Context, entries []domain.RawEntry) (*service.RunResult, error) {
			if len(entries) != 1 {
				t.Fatalf("pipeline received %d entries, want 1", len(entries))
			}
			return &service.RunResult{
				RunID:          "run-123",
				MetricsVersion: "m1",
				GeneratedAt:    time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC),
				Records:        []domain.SleepRecord{{Date: "2024-01-16"}},
				Insights:       domain.InsightSet{},
				Warnings:       []domain.Warning{},
				Meta:           map[string]any{},
			}, nil
		},
	}
	h := NewRunHandler(pipeline, &mockWriter{})

	body := `{"entries":[{"timestamp":"2024-01-16T09:00:00Z","bedtime_raw":"2330","wake_time_raw":"0730","mood":7}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var result service.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.RunID != "run-123" || len(result.Records) != 1 {
		t.Errorf("response = %+v", result)
	}
}

func TestRunHandler_Create_InvalidJSON(t *testing.T) {
	h := NewRunHandler(&mockPipeline{}, &mockWriter{})

	req := httptest.NewRequest(http.MethodPost, "/v1/runs", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %s, want application/problem+json", ct)
	}
}

func TestRunHandler_Create_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no entries field", `{}`},
		{"empty entries", `{"entries":[]}`},
		{"mood out of range", `{"entries":[{"timestamp":"2024-01-16T09:00:00Z","mood":11}]}`},
		{"energy below range", `{"entries":[{"timestamp":"2024-01-16T09:00:00Z","energy":0}]}`},
	}

	h := NewRunHandler(&mockPipeline{}, &mockWriter{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/runs", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			testRouter(h).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRunHandler_Create_PipelineError(t *testing.T) {
	pipeline := &mockPipeline{
		RunFunc: func(ctx context.Context, entries []domain.RawEntry) (*service.RunResult, error) {
			return nil, errors.New("artifact directory not writable")
		},
	}
	h := NewRunHandler(pipeline, &mockWriter{})

	body := `{"entries":[{"timestamp":"2024-01-16T09:00:00Z"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/runs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRunHandler_GetByID(t *testing.T) {
	writer := &mockWriter{
		ReadRunFunc: func(runID string) (*artifact.RunArtifact, error) {
			if runID != "run-123" {
				return nil, domain.ErrNotFound
			}
			return &artifact.RunArtifact{RunID: "run-123", MetricsVersion: "m1"}, nil
		},
	}
	h := NewRunHandler(&mockPipeline{}, writer)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/run-123", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var a artifact.RunArtifact
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if a.RunID != "run-123" {
		t.Errorf("run ID = %s, want run-123", a.RunID)
	}
}

func TestRunHandler_GetByID_NotFound(t *testing.T) {
	writer := &mockWriter{
		ReadRunFunc: func(runID string) (*artifact.RunArtifact, error) {
			return nil, domain.ErrNotFound
		},
	}
	h := NewRunHandler(&mockPipeline{}, writer)

	req := httptest.NewRequest(http.MethodGet, "/v1/runs/unknown", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRunHandler_Snapshot(t *testing.T) {
	duration := 480
	writer := &mockWriter{
		ReadSnapshotFunc: func() ([]domain.SleepRecord, error) {
			return []domain.SleepRecord{{Date: "2024-01-16", DurationMinutes: &duration}}, nil
		},
	}
	h := NewRunHandler(&mockPipeline{}, writer)

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp SnapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Rows) != 1 || resp.Rows[0].Date != "2024-01-16" {
		t.Errorf("rows = %+v", resp.Rows)
	}
}

func TestRunHandler_Snapshot_NotWrittenYet(t *testing.T) {
	writer := &mockWriter{
		ReadSnapshotFunc: func() ([]domain.SleepRecord, error) {
			return nil, domain.ErrNotFound
		},
	}
	h := NewRunHandler(&mockPipeline{}, writer)

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
