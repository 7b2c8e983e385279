package models

import "time"

// Participation is the per-(event, participant) claim record. Created
// at most once by a successful claim and never updated afterwards.
type Participation struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	EventID     uint64 `gorm:"not null;uniqueIndex:idx_event_participant" json:"event_id"`
	Participant string `gorm:"not null;uniqueIndex:idx_event_participant;index" json:"participant"`

	Claimed      bool  `gorm:"not null" json:"claimed"`
	PointsEarned int64 `gorm:"not null" json:"points_earned"`
	Tier         Tier  `gorm:"type:varchar(8);not null" json:"tier"`

	ClaimedAt time.Time `gorm:"autoCreateTime" json:"claimed_at"`
}
