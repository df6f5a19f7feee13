package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bjugstad/fleetsync/internal/logging"
	"bjugstad/fleetsync/internal/metrics"
	"bjugstad/fleetsync/internal/models/entities"
	"bjugstad/fleetsync/internal/phone"
	"bjugstad/fleetsync/internal/providers"
)

// customerStore is the slice of the customer repository the job needs.
type customerStore interface {
	UpsertCustomers(ctx context.Context, rows []entities.CustomerRow) (int64, error)
	ReplaceCustomerContacts(ctx context.Context, customerIDs []int64, rows []entities.CustomerContactRow) (int64, error)
}

// customerFetcher is the slice of the Bjugstad provider the job needs.
type customerFetcher interface {
	Name() string
	FetchCustomers(ctx context.Context) ([]providers.BjugstadCustomer, error)
}

// CustomerSyncJob pulls the business-customer list, upserts customers and
// atomically replaces each synced customer's contact set.
type CustomerSyncJob struct {
	event    string
	provider customerFetcher
	store    customerStore
	history  syncRecorder
	metrics  *metrics.MetricsRegistry
}

func NewCustomerSyncJob(
	event string,
	provider customerFetcher,
	store customerStore,
	history syncRecorder,
	reg *metrics.MetricsRegistry,
) *CustomerSyncJob {
	return &CustomerSyncJob{
		event:    event,
		provider: provider,
		store:    store,
		history:  history,
		metrics:  reg,
	}
}

// Event returns the sync-history event name for this job.
func (j *CustomerSyncJob) Event() string { return j.event }

// Run executes one customer sync cycle.
func (j *CustomerSyncJob) Run(ctx context.Context) error {
	start := time.Now()
	log := logging.WithJob(j.event)
	log.Infow("sync started", "provider", j.provider.Name())

	customers, err := j.provider.FetchCustomers(ctx)
	if err != nil {
		j.observeFailure()
		return fmt.Errorf("%s: fetch failed: %w", j.event, err)
	}

	customerRows, contactRows, dropped := mapCustomers(customers)

	if dropped > 0 {
		log.Warnw("dropped customers without a parseable id", "dropped", dropped)
		if j.metrics != nil {
			j.metrics.SyncRecordsDropped.WithLabelValues(j.event).Add(float64(dropped))
		}
	}

	customerIDs := make([]int64, 0, len(customerRows))
	for _, row := range customerRows {
		customerIDs = append(customerIDs, row.CustomerID)
	}

	upserted, err := j.store.UpsertCustomers(ctx, customerRows)
	if err != nil {
		j.observeFailure()
		return fmt.Errorf("%s: customer upsert failed: %w", j.event, err)
	}

	var contactsSynced int64
	if len(customerIDs) > 0 {
		contactsSynced, err = j.store.ReplaceCustomerContacts(ctx, customerIDs, contactRows)
		if err != nil {
			j.observeFailure()
			return fmt.Errorf("%s: contact replace failed: %w", j.event, err)
		}
	}

	if j.history != nil {
		if err := j.history.RecordSync(ctx, j.event); err != nil {
			log.Warnw("failed to record sync history", "error", err.Error())
		}
	}

	j.observeSuccess(len(customers), upserted, contactsSynced, time.Since(start))
	log.Infow("sync complete",
		"fetched", len(customers),
		"customers_upserted", upserted,
		"contacts_synced", contactsSynced,
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)
	return nil
}

func (j *CustomerSyncJob) observeFailure() {
	if j.metrics == nil {
		return
	}
	j.metrics.SyncJobFailures.WithLabelValues(j.event).Inc()
}

func (j *CustomerSyncJob) observeSuccess(fetched int, customers, contacts int64, elapsed time.Duration) {
	if j.metrics == nil {
		return
	}
	j.metrics.SyncRecordsFetched.WithLabelValues(j.event).Add(float64(fetched))
	j.metrics.SyncRowsUpserted.WithLabelValues(j.event, "customers").Add(float64(customers))
	j.metrics.SyncRowsUpserted.WithLabelValues(j.event, "customer_contacts").Add(float64(contacts))
	j.metrics.SyncJobDuration.WithLabelValues(j.event).Observe(elapsed.Seconds())
	j.metrics.SyncJobLastSuccess.WithLabelValues(j.event).SetToCurrentTime()
}

// mapCustomers converts the upstream payload into store rows. Customers
// without a parseable integer id are dropped (counted, not fatal); both
// customers and contacts are deduplicated by key, last occurrence wins.
// Output is sorted by id so upsert batches are deterministic.
func mapCustomers(customers []providers.BjugstadCustomer) ([]entities.CustomerRow, []entities.CustomerContactRow, int) {
	type contactKey struct {
		customerID int64
		contactID  int64
	}

	customerMap := make(map[int64]entities.CustomerRow, len(customers))
	contactMap := make(map[contactKey]entities.CustomerContactRow)
	dropped := 0

	for _, c := range customers {
		customerID, err := c.CustomerID.Int64()
		if err != nil {
			dropped++
			continue
		}

		row := entities.CustomerRow{
			CustomerID:         customerID,
			Name:               c.Name,
			Email:              c.Email,
			Address:            c.Address,
			PostalCode:         c.PostalCode,
			City:               c.City,
			Contact:            c.Contact,
			TelephoneNumber:    c.TelephoneNumber,
			OrganizationNumber: c.OrganizationNumber,
		}
		if n, err := c.CustomerNumber.Int64(); err == nil {
			row.CustomerNumber = &n
		}
		if c.TelephoneNumber != nil {
			row.PhoneNormalized = phone.Normalize(*c.TelephoneNumber)
		}
		customerMap[customerID] = row

		for _, person := range c.ContactPersons {
			contactID, err := person.ContactPersonID.Int64()
			if err != nil {
				continue
			}
			contact := entities.CustomerContactRow{
				CustomerID:      customerID,
				ContactPersonID: contactID,
				Name:            person.Name,
				TelephoneNumber: person.TelephoneNumber,
				Email:           person.Email,
			}
			if person.TelephoneNumber != nil {
				contact.PhoneNormalized = phone.Normalize(*person.TelephoneNumber)
			}
			contactMap[contactKey{customerID, contactID}] = contact
		}
	}

	customerRows := make([]entities.CustomerRow, 0, len(customerMap))
	for _, row := range customerMap {
		customerRows = append(customerRows, row)
	}
	sort.Slice(customerRows, func(i, k int) bool {
		return customerRows[i].CustomerID < customerRows[k].CustomerID
	})

	contactRows := make([]entities.CustomerContactRow, 0, len(contactMap))
	for _, row := range contactMap {
		contactRows = append(contactRows, row)
	}
	sort.Slice(contactRows, func(i, k int) bool {
		if contactRows[i].CustomerID != contactRows[k].CustomerID {
			return contactRows[i].CustomerID < contactRows[k].CustomerID
		}
		return contactRows[i].ContactPersonID < contactRows[k].ContactPersonID
	})

	return customerRows, contactRows, dropped
}

// shouldRunOnStart mirrors MachineSyncJob: skip the startup run when the
// last sync is fresher than one interval.
func (j *CustomerSyncJob) shouldRunOnStart(ctx context.Context, interval time.Duration) bool {
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

// RunScheduled runs the job on a fixed interval after an initial offset.
func (j *CustomerSyncJob) RunScheduled(ctx context.Context, interval, offset time.Duration) {
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
