package repositories

import (
	"context"
	"time"

	models "bjugstad/fleetsync/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// SyncHistoryRepo tracks the last successful run per sync job.
type SyncHistoryRepo struct {
	db *gormlib.DB
}

func NewSyncHistoryRepo(db *gormlib.DB) *SyncHistoryRepo {
	return &SyncHistoryRepo{db: db}
}

// RecordSync records a successful run of a job. One row per event name.
func (r *SyncHistoryRepo) RecordSync(ctx context.Context, event string) error {
	now := time.Now()

	history := models.SyncHistory{
		Event:      event,
		LastSyncAt: &now,
	}

	err := r.db.WithContext(ctx).
		Where("event = ?", event).
		Assign(models.SyncHistory{LastSyncAt: &now}).
		FirstOrCreate(&history).Error

	return err
}

// GetLastSyncTime retrieves when a job last completed, nil if it never has.
func (r *SyncHistoryRepo) GetLastSyncTime(ctx context.Context, event string) (*time.Time, error) {
	var history models.SyncHistory

	err := r.db.WithContext(ctx).
		Where("event = ?", event).
		First(&history).Error

	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return history.LastSyncAt, nil
}
