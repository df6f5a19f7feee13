package gorm

import "time"

// Machine is the schema model for the machines table. Rows are created on
// first sync of an id and never deleted by the pipeline.
type Machine struct {
	ID                string     `gorm:"column:id;primaryKey;type:varchar(128)"`
	Name              *string    `gorm:"column:name;type:varchar(255)"`
	OEMName           *string    `gorm:"column:oem_name;type:varchar(128)"`
	FirstSeen         time.Time  `gorm:"column:first_seen;not null;default:now()"`
	LastUpdated       time.Time  `gorm:"column:last_updated;not null;default:now()"`
	LastPosReportedAt *time.Time `gorm:"column:last_pos_reported_at"`
	LastPosLatitude   *float64   `gorm:"column:last_pos_latitude;type:double precision"`
	LastPosLongitude  *float64   `gorm:"column:last_pos_longitude;type:double precision"`
}

// TableName specifies the table name for GORM
func (Machine) TableName() string {
	return "machines"
}
