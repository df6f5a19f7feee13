package db

import (
	gormlib "gorm.io/gorm"
	"gorm.io/driver/postgres"

	models "bjugstad/fleetsync/internal/models/gorm"
)

var PgDB *gormlib.DB

// InitPostgresORM opens the GORM connection used for schema management and
// the sync-history repository. The sqlx pool handles the bulk upserts.
func InitPostgresORM(dsn string) (*gormlib.DB, error) {
	gdb, err := gormlib.Open(postgres.Open(dsn), &gormlib.Config{})
	if err != nil {
		return nil, err
	}
	PgDB = gdb
	return gdb, nil
}

// EnsureSchema migrates the pipeline's tables. The web portal owns richer
// migrations for its own tables; this covers only what the sync jobs touch
// so a fresh environment can run without a separate migration step.
func EnsureSchema(gdb *gormlib.DB) error {
	return gdb.AutoMigrate(
		&models.Machine{},
		&models.Customer{},
		&models.CustomerContactPerson{},
		&models.SyncHistory{},
		&models.AppSecret{},
	)
}
