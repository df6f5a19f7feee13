package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjugstad/fleetsync/internal/constants"
	"bjugstad/fleetsync/internal/jobs"
	"bjugstad/fleetsync/internal/models/entities"
	"bjugstad/fleetsync/internal/providers"
)

type stubMachineProvider struct {
	rows []entities.MachineRow
	err  error
}

func (s *stubMachineProvider) Name() string { return "stub" }

func (s *stubMachineProvider) FetchAll(ctx context.Context) ([]entities.MachineRow, error) {
	return s.rows, s.err
}

type stubMachineStore struct {
	upserts int
}

func (s *stubMachineStore) UpsertMachines(ctx context.Context, rows []entities.MachineRow) (int64, error) {
	s.upserts++
	return int64(len(rows)), nil
}

type stubCustomerFetcher struct{}

func (stubCustomerFetcher) Name() string { return "stub" }

func (stubCustomerFetcher) FetchCustomers(ctx context.Context) ([]providers.BjugstadCustomer, error) {
	return nil, nil
}

type stubCustomerStore struct{}

func (stubCustomerStore) UpsertCustomers(ctx context.Context, rows []entities.CustomerRow) (int64, error) {
	return int64(len(rows)), nil
}

func (stubCustomerStore) ReplaceCustomerContacts(ctx context.Context, customerIDs []int64, rows []entities.CustomerContactRow) (int64, error) {
	return int64(len(rows)), nil
}

type stubHistory struct {
	times map[string]time.Time
}

func (s *stubHistory) GetLastSyncTime(ctx context.Context, event string) (*time.Time, error) {
	if t, ok := s.times[event]; ok {
		return &t, nil
	}
	return nil, nil
}

func newTestRouter(catProvider *stubMachineProvider, catStore *stubMachineStore, history lastSyncReader) http.Handler {
	container := &jobs.JobsContainer{
		CatSync: jobs.NewMachineSyncJob(
			constants.SyncEventCatMachines, catProvider, catStore, nil, nil),
		HydremaSync: jobs.NewMachineSyncJob(
			constants.SyncEventHydremaMachines, &stubMachineProvider{}, catStore, nil, nil),
		CustomerSync: jobs.NewCustomerSyncJob(
			constants.SyncEventCustomers, stubCustomerFetcher{}, stubCustomerStore{}, nil, nil),
	}

	handler := NewJobsHandler(container, history)

	r := chi.NewRouter()
	r.Post("/api/v1/admin/jobs/{job}/run", handler.TriggerJob())
	r.Get("/api/v1/admin/jobs/status", handler.GetJobStatus())
	return r
}

func TestJobsHandler_TriggerJob(t *testing.T) {
	store := &stubMachineStore{}
	provider := &stubMachineProvider{rows: []entities.MachineRow{{ID: "CAT:1"}}}
	router := newTestRouter(provider, store, &stubHistory{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/jobs/cat_machines/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.upserts)

	var resp TriggerJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cat_machines", resp.Job)
}

func TestJobsHandler_TriggerJob_Unknown(t *testing.T) {
	router := newTestRouter(&stubMachineProvider{}, &stubMachineStore{}, &stubHistory{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/jobs/nope/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobsHandler_TriggerJob_RunFailure(t *testing.T) {
	provider := &stubMachineProvider{err: assert.AnError}
	router := newTestRouter(provider, &stubMachineStore{}, &stubHistory{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/jobs/cat_machines/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestJobsHandler_GetJobStatus(t *testing.T) {
	lastRun := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)
	history := &stubHistory{times: map[string]time.Time{
		constants.SyncEventCatMachines: lastRun,
	}}
	router := newTestRouter(&stubMachineProvider{}, &stubMachineStore{}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/jobs/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp JobStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 3)

	byName := make(map[string]JobStatus, len(resp.Jobs))
	for _, j := range resp.Jobs {
		byName[j.Name] = j
	}

	assert.Equal(t, "2026-02-10T08:30:00Z", byName[constants.SyncEventCatMachines].LastSync)
	assert.Empty(t, byName[constants.SyncEventHydremaMachines].LastSync)
	assert.Empty(t, byName[constants.SyncEventCustomers].LastSync)
}
