package models

import (
	"time"

	"github.com/google/uuid"
)

// KycStatus is the verification state of a student profile.
type KycStatus string

const (
	KycPending  KycStatus = "PENDING"
	KycVerified KycStatus = "VERIFIED"
	KycRejected KycStatus = "REJECTED"
)

// StudentProfile carries the identity facts the scan flow needs: display
// name, photo object key, and KYC state. Profile entry and KYC review are
// owned elsewhere in the portal.
type StudentProfile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	FullName  string    `gorm:"type:text;not null" json:"full_name"`
	Email     string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	PhotoKey  string    `gorm:"type:text" json:"-"`
	KycStatus KycStatus `gorm:"type:text;not null;default:'PENDING'" json:"kyc_status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
