// models/participant_mirror.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// ParticipantKey mirrors a registered credential key from the identity
// service. The credential verifier checks recovered claim signatures
// against PublicKey (hex of a compressed secp256k1 point).
// Populated via sync worker; the core never writes it.
type ParticipantKey struct {
	Participant string    `gorm:"primaryKey" json:"participant"`
	PublicKey   string    `gorm:"type:varchar(66);not null" json:"public_key"`
	Revoked     bool      `gorm:"not null;default:false" json:"revoked"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// ParticipantProfile is a local snapshot of profile data used to
// enrich reward responses. Owned solely by this service and populated
// via sync worker from the Profile Service.
type ParticipantProfile struct {
	Participant       string  `gorm:"primaryKey" json:"participant"`
	DisplayName       string  `gorm:"index" json:"display_name"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
