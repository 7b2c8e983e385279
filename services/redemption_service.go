package services

import (
	"fmt"
	"log"

	"presence-rewards-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RedemptionService debits the reward ledger against marketplace stock.
type RedemptionService struct {
	DB *gorm.DB
}

func NewRedemptionService(db *gorm.DB) *RedemptionService {
	return &RedemptionService{DB: db}
}

// Redeem spends item.PointsRequired from the participant's account and
// takes one unit of stock. Both rows are locked for the duration of
// the transaction, so two redemptions racing for the last unit cannot
// both succeed — the second sees quantity 0 and fails ErrInvalidReward.
func (s *RedemptionService) Redeem(itemID, participant string) error {
	canonical, err := CanonicalParticipant(participant)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReward, err)
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var item models.MarketplaceItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&item, "id = ?", itemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: item %s not found", ErrInvalidReward, itemID)
			}
			return err
		}

		var account models.RewardAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "participant = ?", canonical).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: no reward account for %s", ErrInvalidReward, canonical)
			}
			return err
		}

		if account.TotalPoints < item.PointsRequired {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientPoints, account.TotalPoints, item.PointsRequired)
		}
		if item.AvailableQuantity <= 0 {
			return fmt.Errorf("%w: item %s is out of stock", ErrInvalidReward, itemID)
		}

		account.TotalPoints -= item.PointsRequired
		item.AvailableQuantity--

		if err := tx.Save(&account).Error; err != nil {
			return err
		}
		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Redemption{
			ID:          uuid.NewString(),
			ItemID:      item.ID,
			Participant: canonical,
			PointsSpent: item.PointsRequired,
		}).Error; err != nil {
			return err
		}

		log.Printf("✅ Redemption settled: item=%s participant=%s points=%d remaining_stock=%d",
			item.ID, canonical, item.PointsRequired, item.AvailableQuantity)
		return nil
	})
}
