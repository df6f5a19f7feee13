package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"bjugstad/fleetsync/internal/models/entities"
)

// MachineRepository owns the machines table writes.
type MachineRepository struct {
	db *sqlx.DB
}

func NewMachineRepository(db *sqlx.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

const machineCols = 6

// UpsertMachines bulk-upserts machine rows in a single statement.
//
// On conflict, name and oem_name are always overwritten with the incoming
// value (even to NULL) and last_updated is stamped, but each last-position
// column only overwrites when the incoming value is non-null: a sync cycle
// where the OEM reports no position must not erase the last known fix.
func (r *MachineRepository) UpsertMachines(ctx context.Context, rows []entities.MachineRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	values := make([]interface{}, 0, len(rows)*machineCols)
	placeholders := make([]string, 0, len(rows))

	for i, row := range rows {
		offset := i * machineCols
		values = append(values,
			row.ID,
			row.Name,
			row.OEMName,
			row.LastPosReportedAt,
			row.LastPosLatitude,
			row.LastPosLongitude,
		)
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d)",
			offset+1, offset+2, offset+3, offset+4, offset+5, offset+6,
		))
	}

	query := fmt.Sprintf(`
		INSERT INTO machines (
			id, name, oem_name, last_pos_reported_at, last_pos_latitude, last_pos_longitude
		)
		VALUES %s
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    oem_name = EXCLUDED.oem_name,
		    last_updated = now(),
		    last_pos_reported_at = COALESCE(EXCLUDED.last_pos_reported_at, machines.last_pos_reported_at),
		    last_pos_latitude    = COALESCE(EXCLUDED.last_pos_latitude,    machines.last_pos_latitude),
		    last_pos_longitude   = COALESCE(EXCLUDED.last_pos_longitude,   machines.last_pos_longitude)`,
		strings.Join(placeholders, ", "))

	res, err := r.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, fmt.Errorf("machine upsert failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return int64(len(rows)), nil
	}
	return affected, nil
}
