package services

import (
	"presence-rewards-system/models"

	"gorm.io/gorm"
)

// RewardsService reads the per-participant ledger.
type RewardsService struct {
	DB *gorm.DB
}

func NewRewardsService(db *gorm.DB) *RewardsService {
	return &RewardsService{DB: db}
}

// ParticipantRewards is the reward account plus the mirrored profile
// snapshot when the sync worker has one.
type ParticipantRewards struct {
	models.RewardAccount
	DisplayName       string  `json:"display_name,omitempty"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
}

// GetParticipantRewards returns the account or nil when the
// participant has never completed a claim.
func (s *RewardsService) GetParticipantRewards(participant string) (*ParticipantRewards, error) {
	canonical, err := CanonicalParticipant(participant)
	if err != nil {
		return nil, nil
	}

	var account models.RewardAccount
	if err := s.DB.First(&account, "participant = ?", canonical).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	out := ParticipantRewards{RewardAccount: account}
	var profile models.ParticipantProfile
	if err := s.DB.First(&profile, "participant = ?", canonical).Error; err == nil {
		out.DisplayName = profile.DisplayName
		out.ProfilePictureURL = profile.ProfilePictureURL
	}
	return &out, nil
}

// ListParticipations returns a participant's claim history newest-first.
func (s *RewardsService) ListParticipations(participant string) ([]models.Participation, error) {
	canonical, err := CanonicalParticipant(participant)
	if err != nil {
		return nil, nil
	}
	var parts []models.Participation
	if err := s.DB.Where("participant = ?", canonical).
		Order("claimed_at DESC").
		Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}
