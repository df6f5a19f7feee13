package entities

import "time"

// MachineRow is the normalized shape every OEM adapter produces, one row
// per physical machine. Position fields are pointers: nil means "the OEM
// did not report a position this cycle" and must never erase a previously
// stored fix.
type MachineRow struct {
	ID                string     `db:"id"`
	Name              *string    `db:"name"`
	OEMName           *string    `db:"oem_name"`
	LastPosReportedAt *time.Time `db:"last_pos_reported_at"`
	LastPosLatitude   *float64   `db:"last_pos_latitude"`
	LastPosLongitude  *float64   `db:"last_pos_longitude"`
}

// HasPosition reports whether this row carries a position fix.
func (m MachineRow) HasPosition() bool {
	return m.LastPosReportedAt != nil || m.LastPosLatitude != nil || m.LastPosLongitude != nil
}
