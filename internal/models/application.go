package models

import (
	"time"

	"github.com/google/uuid"
)

// Application links a student to a job they applied for. Eligibility
// screening happens upstream; attendance verification only checks membership.
type Application struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_user_job" json:"user_id"`
	JobID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_user_job" json:"job_id"`
	// LegacyIdentifier is the code printed on old hall tickets, kept so
	// unsigned scans can still be resolved.
	LegacyIdentifier string    `gorm:"type:text;index" json:"legacy_identifier,omitempty"`
	IsRemoved        bool      `gorm:"not null;default:false" json:"is_removed"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`

	Job Job `gorm:"constraint:OnDelete:CASCADE;foreignKey:JobID;references:ID" json:"-"`
}
