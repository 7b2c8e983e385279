package services

import (
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"presence-rewards-system/models"
	"presence-rewards-system/utils"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const maxSkillBadges = 3

// EventService owns the event registry. Besides the claim
// orchestrator's occupancy increment, nothing else writes events.
type EventService struct {
	DB    *gorm.DB
	Admin string // the single owner principal, fixed at boot
}

func NewEventService(db *gorm.DB, admin string) *EventService {
	return &EventService{DB: db, Admin: admin}
}

// CreateEventInput carries the admin-supplied event parameters.
type CreateEventInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`

	MaxParticipants int      `json:"max_participants"`
	BasePoints      int64    `json:"base_points"`
	RewardTiers     []int64  `json:"reward_tiers"`
	SkillBadges     []string `json:"skill_badges,omitempty"`
}

// CreateEvent validates and registers a new event. Events start
// active with zero occupancy and keep their sequential id forever.
func (s *EventService) CreateEvent(callerID string, in CreateEventInput) (*models.Event, error) {
	if callerID != s.Admin {
		return nil, fmt.Errorf("%w: create-event", ErrOwnerOnly)
	}

	name := norm.NFC.String(strings.TrimSpace(in.Name))
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidEvent)
	}
	if !in.StartTime.Before(in.EndTime) {
		return nil, fmt.Errorf("%w: start_time must precede end_time", ErrInvalidEvent)
	}
	if in.MaxParticipants <= 0 {
		return nil, fmt.Errorf("%w: max_participants must be positive", ErrInvalidEvent)
	}
	if len(in.RewardTiers) != 3 {
		return nil, fmt.Errorf("%w: reward_tiers must be [gold, silver, bronze]", ErrInvalidReward)
	}
	for _, pts := range in.RewardTiers {
		if pts < 0 {
			return nil, fmt.Errorf("%w: tier points must be non-negative", ErrInvalidReward)
		}
	}
	if len(in.SkillBadges) > maxSkillBadges {
		return nil, fmt.Errorf("%w: at most %d skill badges", ErrInvalidEvent, maxSkillBadges)
	}
	badges := make(models.StringList, 0, len(in.SkillBadges))
	for _, b := range in.SkillBadges {
		b = norm.NFC.String(strings.TrimSpace(b))
		if b == "" {
			return nil, fmt.Errorf("%w: empty skill badge label", ErrInvalidEvent)
		}
		badges = append(badges, b)
	}

	event := models.Event{
		Slug:                slug.Make(name),
		Name:                name,
		Description:         norm.NFC.String(in.Description),
		StartTime:           in.StartTime,
		EndTime:             in.EndTime,
		Active:              true,
		MaxParticipants:     in.MaxParticipants,
		CurrentParticipants: 0,
		RewardTiers:         models.Int64List(in.RewardTiers),
		SkillBadges:         badges,
		BasePoints:          in.BasePoints,
	}
	if err := s.DB.Create(&event).Error; err != nil {
		return nil, err
	}

	log.Printf("✅ Event created: id=%d slug=%s window=[%s, %s] cap=%d tiers=%v",
		event.ID, event.Slug, event.StartTime.Format(time.RFC3339), event.EndTime.Format(time.RFC3339),
		event.MaxParticipants, event.RewardTiers)
	return &event, nil
}

// SetEventStatus flips the active flag. Occupancy, window and tiers
// are untouched — an inactive event simply rejects claims.
func (s *EventService) SetEventStatus(callerID string, eventID uint64, active bool) (bool, error) {
	if callerID != s.Admin {
		return false, fmt.Errorf("%w: set-event-status", ErrOwnerOnly)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: event %d not found", ErrInvalidEvent, eventID)
			}
			return err
		}
		event.Active = active
		return tx.Save(&event).Error
	})
	if err != nil {
		return false, err
	}
	return active, nil
}

// AttachArtwork uploads event artwork to R2 (local uploads/ fallback
// when R2 is not configured) and records the URL on the event.
func (s *EventService) AttachArtwork(callerID string, eventID uint64, file *multipart.FileHeader) (string, error) {
	if callerID != s.Admin {
		return "", fmt.Errorf("%w: attach-artwork", ErrOwnerOnly)
	}

	var event models.Event
	if err := s.DB.First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", fmt.Errorf("%w: event %d not found", ErrInvalidEvent, eventID)
		}
		return "", err
	}

	key := "events/artwork/" + uuid.NewString() + utils.ArtworkExt(file.Filename)

	var url string
	if utils.R2Enabled() {
		uploaded, err := utils.UploadFileToR2(file, key)
		if err != nil {
			return "", fmt.Errorf("failed to upload artwork: %w", err)
		}
		url = uploaded
	} else {
		dest := utils.GetUploadPath(key)
		if err := utils.SaveFile(file, dest); err != nil {
			return "", fmt.Errorf("failed to store artwork: %w", err)
		}
		url = "/" + dest
	}

	event.ArtworkURL = url
	if err := s.DB.Save(&event).Error; err != nil {
		return "", err
	}
	return url, nil
}

// GetEvent returns the event or nil when absent.
func (s *EventService) GetEvent(eventID uint64) (*models.Event, error) {
	var event models.Event
	if err := s.DB.First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListEvents returns events newest-first, optionally only active ones.
func (s *EventService) ListEvents(activeOnly bool) ([]models.Event, error) {
	var events []models.Event
	q := s.DB.Order("id DESC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
