package jobs

import (
	"context"
	"time"

	"bjugstad/fleetsync/internal/config"
	"bjugstad/fleetsync/internal/constants"
	"bjugstad/fleetsync/internal/db/repositories"
	"bjugstad/fleetsync/internal/metrics"
	"bjugstad/fleetsync/internal/providers"
)

// Machine telemetry refreshes every 15 minutes; the customer list once a
// day. The offsets stagger the two OEM jobs so their batch windows never
// collide with each other or with the providers' own on-the-quarter-hour
// processing.
const (
	machineSyncInterval  = 15 * time.Minute
	customerSyncInterval = 24 * time.Hour

	catSyncOffset      = 0
	hydremaSyncOffset  = 5 * time.Minute
	customerSyncOffset = 1 * time.Minute
)

// JobsContainer exposes the running jobs to the ops handlers for manual
// triggering and status reporting.
type JobsContainer struct {
	CatSync      *MachineSyncJob
	HydremaSync  *MachineSyncJob
	CustomerSync *CustomerSyncJob
}

// InitializeJobs builds the three sync jobs and starts their schedules.
func InitializeJobs(
	ctx context.Context,
	cfg *config.Resolver,
	machineRepo *repositories.MachineRepository,
	customerRepo *repositories.CustomerRepository,
	historyRepo *repositories.SyncHistoryRepo,
	reg *metrics.MetricsRegistry,
) *JobsContainer {
	catSync := NewMachineSyncJob(
		constants.SyncEventCatMachines,
		providers.NewCatProvider(cfg),
		machineRepo,
		historyRepo,
		reg,
	)

	hydremaSync := NewMachineSyncJob(
		constants.SyncEventHydremaMachines,
		providers.NewHydremaProvider(cfg),
		machineRepo,
		historyRepo,
		reg,
	)

	customerSync := NewCustomerSyncJob(
		constants.SyncEventCustomers,
		providers.NewBjugstadProvider(cfg),
		customerRepo,
		historyRepo,
		reg,
	)

	go catSync.RunScheduled(ctx, machineSyncInterval, catSyncOffset)
	go hydremaSync.RunScheduled(ctx, machineSyncInterval, hydremaSyncOffset)
	go customerSync.RunScheduled(ctx, customerSyncInterval, customerSyncOffset)

	return &JobsContainer{
		CatSync:      catSync,
		HydremaSync:  hydremaSync,
		CustomerSync: customerSync,
	}
}
