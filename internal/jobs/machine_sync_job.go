package jobs

import (
	"context"
	"fmt"
	"time"

	"bjugstad/fleetsync/internal/logging"
	"bjugstad/fleetsync/internal/metrics"
	"bjugstad/fleetsync/internal/models/entities"
	"bjugstad/fleetsync/internal/providers"
)

// machineStore is the slice of the machine repository the job needs.
type machineStore interface {
	UpsertMachines(ctx context.Context, rows []entities.MachineRow) (int64, error)
}

// syncRecorder tracks last-run timestamps (sync history repository).
type syncRecorder interface {
	RecordSync(ctx context.Context, event string) error
	GetLastSyncTime(ctx context.Context, event string) (*time.Time, error)
}

// MachineSyncJob pulls one OEM's fleet and upserts it. One instance per
// provider; instances share nothing but the process-wide config cache.
type MachineSyncJob struct {
	event    string
	provider providers.MachineProvider
	store    machineStore
	history  syncRecorder
	metrics  *metrics.MetricsRegistry
}

func NewMachineSyncJob(
	event string,
	provider providers.MachineProvider,
	store machineStore,
	history syncRecorder,
	reg *metrics.MetricsRegistry,
) *MachineSyncJob {
	return &MachineSyncJob{
		event:    event,
		provider: provider,
		store:    store,
		history:  history,
		metrics:  reg,
	}
}

// Event returns the sync-history event name for this job.
func (j *MachineSyncJob) Event() string { return j.event }

// Run executes one fetch-map-upsert cycle. Run-level failures (auth,
// transport, store) propagate to the caller; record-level anomalies were
// already filtered inside the provider.
func (j *MachineSyncJob) Run(ctx context.Context) error {
	start := time.Now()
	log := logging.WithJob(j.event)
	log.Infow("sync started", "provider", j.provider.Name())

	rows, err := j.provider.FetchAll(ctx)
	if err != nil {
		j.observeFailure()
		return fmt.Errorf("%s: fetch failed: %w", j.event, err)
	}

	withPosition := 0
	for _, r := range rows {
		if r.HasPosition() {
			withPosition++
		}
	}
	log.Infow("fetch complete",
		"machines", len(rows),
		"with_position", withPosition,
	)

	affected, err := j.store.UpsertMachines(ctx, rows)
	if err != nil {
		j.observeFailure()
		return fmt.Errorf("%s: upsert failed: %w", j.event, err)
	}

	if j.history != nil {
		if err := j.history.RecordSync(ctx, j.event); err != nil {
			// History is advisory; a failed write must not fail the run.
			log.Warnw("failed to record sync history", "error", err.Error())
		}
	}

	j.observeSuccess(len(rows), affected, time.Since(start))
	log.Infow("sync complete",
		"fetched", len(rows),
		"upserted", affected,
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)
	return nil
}

func (j *MachineSyncJob) observeFailure() {
	if j.metrics == nil {
		return
	}
	j.metrics.SyncJobFailures.WithLabelValues(j.event).Inc()
}

func (j *MachineSyncJob) observeSuccess(fetched int, upserted int64, elapsed time.Duration) {
	if j.metrics == nil {
		return
	}
	j.metrics.SyncRecordsFetched.WithLabelValues(j.event).Add(float64(fetched))
	j.metrics.SyncRowsUpserted.WithLabelValues(j.event, "machines").Add(float64(upserted))
	j.metrics.SyncJobDuration.WithLabelValues(j.event).Observe(elapsed.Seconds())
	j.metrics.SyncJobLastSuccess.WithLabelValues(j.event).SetToCurrentTime()
}

// shouldRunOnStart suppresses the startup run when the last recorded sync
// is fresher than one interval, so rolling restarts don't hammer the OEMs.
func (j *MachineSyncJob) shouldRunOnStart(ctx context.Context, interval time.Duration) bool {
	if j.history == nil {
		return true
	}
	last, err := j.history.GetLastSyncTime(ctx, j.event)
	if err != nil {
		logging.WithJob(j.event).Warnw("failed to read sync history, running anyway", "error", err.Error())
		return true
	}
	if last == nil {
		return true
	}
	return time.Since(*last) > interval
}

// RunScheduled runs the job on a fixed interval. The offset delays the
// first activity so jobs against different providers never fire at the
// same instant.
func (j *MachineSyncJob) RunScheduled(ctx context.Context, interval, offset time.Duration) {
	log := logging.WithJob(j.event)

	if offset > 0 {
		select {
		case <-time.After(offset):
		case <-ctx.Done():
			return
		}
	}

	if j.shouldRunOnStart(ctx, interval) {
		if err := j.Run(ctx); err != nil {
			log.Errorw("initial run failed", "error", err.Error())
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				log.Errorw("scheduled run failed", "error", err.Error())
			}
		case <-ctx.Done():
			log.Infow("shutting down scheduled sync")
			return
		}
	}
}
