package models

import "time"

// MarketplaceItem is a redeemable catalog entry priced in points.
// Quantity only ever moves down, one unit per redemption.
type MarketplaceItem struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	PointsRequired    int64 `gorm:"not null" json:"points_required"`    // ≥ 0
	AvailableQuantity int64 `gorm:"not null" json:"available_quantity"` // ≥ 0

	Timestamps
}

// Redemption is the history row written inside the redeem transaction.
// The ledger audit replays these against participations to check that
// every account balance still adds up.
type Redemption struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	ItemID      string    `gorm:"index;not null" json:"item_id"`
	Participant string    `gorm:"index;not null" json:"participant"`
	PointsSpent int64     `gorm:"not null" json:"points_spent"`
	RedeemedAt  time.Time `gorm:"autoCreateTime" json:"redeemed_at"`
}
