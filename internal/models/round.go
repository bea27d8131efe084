package models

import (
	"time"

	"github.com/google/uuid"
)

// Round is one ordered stage of a job's hiring pipeline. SortOrder drives the
// prerequisite chain: a student may only attend a round after attending every
// active round with a lower SortOrder. Rounds are soft-removed, never deleted.
type Round struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID     uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	SortOrder int       `gorm:"not null" json:"sort_order"`
	IsRemoved bool      `gorm:"not null;default:false" json:"is_removed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Job Job `gorm:"constraint:OnDelete:CASCADE;foreignKey:JobID;references:ID" json:"-"`
}
