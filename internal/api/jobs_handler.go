package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bjugstad/fleetsync/internal/jobs"
	"bjugstad/fleetsync/internal/logging"
)

// syncJob is the slice of a job the handler needs for manual triggering.
type syncJob interface {
	Event() string
	Run(ctx context.Context) error
}

// lastSyncReader reads last-run timestamps from sync history.
type lastSyncReader interface {
	GetLastSyncTime(ctx context.Context, event string) (*time.Time, error)
}

// JobsHandler exposes manual job triggering and status for operators.
type JobsHandler struct {
	jobs    map[string]syncJob
	order   []string
	history lastSyncReader
}

// NewJobsHandler creates a jobs handler over the running jobs container.
func NewJobsHandler(container *jobs.JobsContainer, history lastSyncReader) *JobsHandler {
	registered := []syncJob{
		container.CatSync,
		container.HydremaSync,
		container.CustomerSync,
	}

	byEvent := make(map[string]syncJob, len(registered))
	order := make([]string, 0, len(registered))
	for _, j := range registered {
		byEvent[j.Event()] = j
		order = append(order, j.Event())
	}

	return &JobsHandler{jobs: byEvent, order: order, history: history}
}

// TriggerJobResponse is the payload for a manual job run.
type TriggerJobResponse struct {
	Status      string `json:"status"`
	Job         string `json:"job"`
	TriggeredAt string `json:"triggered_at"`
	CompletedAt string `json:"completed_at"`
	DurationMs  int64  `json:"duration_ms"`
}

// TriggerJob runs the named job synchronously.
// POST /api/v1/admin/jobs/{job}/run
func (h *JobsHandler) TriggerJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "job")
		job, ok := h.jobs[name]
		if !ok {
			respondWithError(w, http.StatusNotFound, fmt.Sprintf("unknown job %q", name))
			return
		}

		logging.Info("job manually triggered", "job", name, "remote_addr", r.RemoteAddr)

		start := time.Now()
		if err := job.Run(r.Context()); err != nil {
			logging.Error("manual job run failed", "job", name, "error", err.Error())
			respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("job run failed: %v", err))
			return
		}
		done := time.Now()

		respondWithJSON(w, http.StatusOK, TriggerJobResponse{
			Status:      "ok",
			Job:         name,
			TriggeredAt: start.Format(time.RFC3339),
			CompletedAt: done.Format(time.RFC3339),
			DurationMs:  done.Sub(start).Milliseconds(),
		})
	}
}

// JobStatus describes one job in the status listing.
type JobStatus struct {
	Name     string `json:"name"`
	LastSync string `json:"last_sync,omitempty"`
}

// JobStatusResponse is the payload for the job status listing.
type JobStatusResponse struct {
	Status string      `json:"status"`
	Jobs   []JobStatus `json:"jobs"`
}

// GetJobStatus lists the registered jobs with their last recorded sync.
// GET /api/v1/admin/jobs/status
func (h *JobsHandler) GetJobStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := make([]JobStatus, 0, len(h.order))
		for _, name := range h.order {
			status := JobStatus{Name: name}
			if h.history != nil {
				last, err := h.history.GetLastSyncTime(r.Context(), name)
				if err != nil {
					logging.Warn("failed to read sync history", "job", name, "error", err.Error())
				} else if last != nil {
					status.LastSync = last.Format(time.RFC3339)
				}
			}
			statuses = append(statuses, status)
		}

		respondWithJSON(w, http.StatusOK, JobStatusResponse{Status: "ok", Jobs: statuses})
	}
}
