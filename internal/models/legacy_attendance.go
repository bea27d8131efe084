package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LegacyAttendance is the pre-token attendance record, keyed by application
// rather than round. Kept for events that still print unsigned codes; the
// scan endpoint falls back to this shape when token verification fails.
type LegacyAttendance struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationID uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"application_id"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	JobID         uuid.UUID         `gorm:"type:uuid;not null;index" json:"job_id"`
	Location      string            `gorm:"type:text" json:"location,omitempty"`
	Extra         datatypes.JSONMap `gorm:"type:jsonb" json:"extra,omitempty"`
	ScannedAt     *time.Time        `json:"scanned_at,omitempty"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
}
