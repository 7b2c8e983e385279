package models

import "time"

// Event is a scheduled gathering that participants prove presence at.
// IDs are sequential (bigserial) so event numbering stays monotonic.
type Event struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug string `gorm:"index" json:"slug"`
	Name string `gorm:"not null" json:"name"`

	Description string `gorm:"type:text" json:"description,omitempty"`
	ArtworkURL  string `gorm:"type:text" json:"artwork_url,omitempty"`

	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"` // invariant: start < end

	Active bool `gorm:"default:true" json:"active"`

	MaxParticipants     int `gorm:"not null" json:"max_participants"`          // > 0
	CurrentParticipants int `gorm:"default:0" json:"current_participants"`     // 0 ≤ n ≤ max, bumped only by successful claims

	// RewardTiers is the ordered point triple [gold, silver, bronze];
	// Tier.Index() addresses into it.
	RewardTiers Int64List  `gorm:"type:text" json:"reward_tiers"`
	SkillBadges StringList `gorm:"type:text" json:"skill_badges,omitempty"` // ≤ 3 labels
	BasePoints  int64      `gorm:"default:0" json:"base_points"`

	Timestamps
}
