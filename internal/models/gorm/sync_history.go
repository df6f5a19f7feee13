package gorm

import "time"

// SyncHistory records the last successful run per sync job.
type SyncHistory struct {
	ID         uint       `gorm:"column:id;primaryKey;autoIncrement"`
	Event      string     `gorm:"column:event;type:varchar(64);uniqueIndex;not null"`
	LastSyncAt *time.Time `gorm:"column:last_sync_at"`
}

// TableName specifies the table name for GORM
func (SyncHistory) TableName() string {
	return "sync_history"
}

// AppSecret is a named secret the config resolver falls back to when a
// value is not present in the environment.
type AppSecret struct {
	Name  string `gorm:"column:name;primaryKey;type:varchar(128)"`
	Value string `gorm:"column:value;type:text;not null"`
}

// TableName specifies the table name for GORM
func (AppSecret) TableName() string {
	return "app_secrets"
}
