package services

import (
	"fmt"
	"log"
	"strings"

	"presence-rewards-system/models"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// MarketplaceService owns the redeemable catalog. Stock only moves
// down, and only through the redemption engine.
type MarketplaceService struct {
	DB    *gorm.DB
	Admin string
}

func NewMarketplaceService(db *gorm.DB, admin string) *MarketplaceService {
	return &MarketplaceService{DB: db, Admin: admin}
}

// AddItemInput carries the admin-supplied catalog parameters.
type AddItemInput struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	PointsRequired int64  `json:"points_required"`
	Quantity       int64  `json:"quantity"`
}

// AddItem registers a new marketplace item.
func (s *MarketplaceService) AddItem(callerID string, in AddItemInput) (*models.MarketplaceItem, error) {
	if callerID != s.Admin {
		return nil, fmt.Errorf("%w: add-marketplace-item", ErrOwnerOnly)
	}

	name := norm.NFC.String(strings.TrimSpace(in.Name))
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidReward)
	}
	if in.PointsRequired < 0 {
		return nil, fmt.Errorf("%w: points_required must be non-negative", ErrInvalidReward)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be non-negative", ErrInvalidReward)
	}

	item := models.MarketplaceItem{
		ID:                uuid.NewString(),
		Name:              name,
		Description:       norm.NFC.String(in.Description),
		PointsRequired:    in.PointsRequired,
		AvailableQuantity: in.Quantity,
	}
	if err := s.DB.Create(&item).Error; err != nil {
		return nil, err
	}

	log.Printf("✅ Marketplace item added: id=%s name=%q price=%d stock=%d",
		item.ID, item.Name, item.PointsRequired, item.AvailableQuantity)
	return &item, nil
}

// GetItem returns the item or nil when absent.
func (s *MarketplaceService) GetItem(itemID string) (*models.MarketplaceItem, error) {
	var item models.MarketplaceItem
	if err := s.DB.First(&item, "id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListItems returns the catalog, in-stock first.
func (s *MarketplaceService) ListItems() ([]models.MarketplaceItem, error) {
	var items []models.MarketplaceItem
	if err := s.DB.Order("available_quantity > 0 DESC, created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
