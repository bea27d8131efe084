package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is a hiring drive posted by a company. The portal's screening and
// application flows own this table; the attendance core reads it.
type Job struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Company   string    `gorm:"type:text;not null" json:"company"`
	Title     string    `gorm:"type:text;not null" json:"title"`
	IsRemoved bool      `gorm:"not null;default:false" json:"is_removed"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Rounds []Round `gorm:"constraint:OnDelete:CASCADE" json:"rounds,omitempty"`
}
