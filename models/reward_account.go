package models

// RewardAccount is the per-participant running ledger: cumulative
// points plus per-tier claim counters. Created lazily on the first
// successful claim, credited by every claim after that and debited by
// redemptions (never below zero — the redeem path checks first).
type RewardAccount struct {
	Participant string `gorm:"primaryKey" json:"participant"`

	TotalPoints   int64      `gorm:"default:0" json:"total_points"`
	ClaimedBadges StringList `gorm:"type:text" json:"claimed_badges,omitempty"`

	GoldCount   int64 `gorm:"default:0" json:"gold_count"`
	SilverCount int64 `gorm:"default:0" json:"silver_count"`
	BronzeCount int64 `gorm:"default:0" json:"bronze_count"`

	Timestamps
}

// TierCount returns the counter for one tier.
func (a *RewardAccount) TierCount(t Tier) int64 {
	switch t {
	case TierGold:
		return a.GoldCount
	case TierSilver:
		return a.SilverCount
	default:
		return a.BronzeCount
	}
}

// BumpTier increments the counter for one tier.
func (a *RewardAccount) BumpTier(t Tier) {
	switch t {
	case TierGold:
		a.GoldCount++
	case TierSilver:
		a.SilverCount++
	default:
		a.BronzeCount++
	}
}
