package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mlenart/diary-insights/internal/api/validation"
	"github.com/mlenart/diary-insights/internal/artifact"
	"github.com/mlenart/diary-insights/internal/domain"
	"github.com/mlenart/diary-insights/internal/service"
	"github.com/mlenart/diary-insights/pkg/problem"
)

// SubmitRunRequest is the request body for triggering a pipeline run:
// one run's full entry snapshot.
type SubmitRunRequest struct {
	Entries []domain.RawEntry `json:"entries" validate:"required,min=1,dive"`
}

// SnapshotResponse wraps the rolling snapshot rows.
type SnapshotResponse struct {
	Rows []domain.SleepRecord `json:"rows"`
}

type RunHandler struct {
	pipeline service.PipelineService
	writer   artifact.Writer
}

func NewRunHandler(pipeline service.PipelineService, writer artifact.Writer) *RunHandler {
	return &RunHandler{pipeline: pipeline, writer: writer}
}

// Create handles POST /v1/runs
// It executes a full pipeline run over the submitted entry snapshot
// and returns the derived records, summary, insights and warnings.
func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SubmitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w)
		return
	}

	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return
	}

	result, err := h.pipeline.Run(r.Context(), req.Entries)
	if err != nil {
		problem.InternalError("Failed to execute run").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// GetByID handles GET /v1/runs/{runId}
// It serves a previously written run artifact verbatim.
func (h *RunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")
	if runID == "" {
		problem.BadRequest("Missing run ID").Write(w)
		return
	}

	a, err := h.writer.ReadRun(runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Run not found").Write(w)
			return
		}
		problem.InternalError("Failed to read run artifact").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a)
}

// Snapshot handles GET /v1/snapshot
// It serves the rolling per-date snapshot from the latest run.
func (h *RunHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	rows, err := h.writer.ReadSnapshot()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("No snapshot has been written yet").Write(w)
			return
		}
		problem.InternalError("Failed to read snapshot").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SnapshotResponse{Rows: rows})
}
