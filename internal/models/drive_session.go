package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a drive session.
type SessionStatus string

const (
	SessionActive     SessionStatus = "ACTIVE"
	SessionTempClosed SessionStatus = "TEMP_CLOSED"
	SessionPermClosed SessionStatus = "PERM_CLOSED"
)

// DriveSession is an admin-controlled window during which attendance tokens
// for a round are honored. At most one ACTIVE session exists per round
// (partial unique index), and PERM_CLOSED is terminal for the whole round.
type DriveSession struct {
	ID        uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RoundID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"round_id"`
	JobID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"job_id"`
	Status    SessionStatus `gorm:"type:text;not null" json:"status"`
	StartedAt time.Time     `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	CreatedBy string        `gorm:"type:text" json:"created_by"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`

	Round Round `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoundID;references:ID" json:"-"`
}
