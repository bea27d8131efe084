package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus is the recorded outcome of a student at a round.
type AttendanceStatus string

const (
	AttendanceAttended AttendanceStatus = "ATTENDED"
	AttendanceFailed   AttendanceStatus = "FAILED"
)

// RoundAttendance is the durable record of a student checking into a round.
// The (UserID, RoundID) unique index is the sole concurrency control for the
// confirm phase: the loser of a racing confirm sees the existing row.
type RoundAttendance struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_round_attendances_user_round" json:"user_id"`
	RoundID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_round_attendances_user_round" json:"round_id"`
	JobID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"job_id"`
	SessionID *uuid.UUID       `gorm:"type:uuid" json:"session_id,omitempty"`
	Status    AttendanceStatus `gorm:"type:text;not null" json:"status"`
	MarkedAt  time.Time        `gorm:"not null" json:"marked_at"`

	Round Round `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoundID;references:ID" json:"-"`
}
