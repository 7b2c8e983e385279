package models

import "time"

// ReplayGuardEntry marks a claim fingerprint as consumed. Rows are
// write-once: once a fingerprint is present it stays consumed forever,
// which is what stops a replayed (event, participant, timestamp) proof
// even when the participant flag alone would not.
type ReplayGuardEntry struct {
	Fingerprint string    `gorm:"primaryKey;type:varchar(64)" json:"fingerprint"` // hex of the 32-byte digest
	Consumed    bool      `gorm:"not null;default:true" json:"consumed"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
