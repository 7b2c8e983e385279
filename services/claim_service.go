package services

import (
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"presence-rewards-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimService is the claim orchestrator: it validates a proof of
// presence against the event registry, the replay guard and the
// participation ledger, then settles the reward in one transaction.
type ClaimService struct {
	DB       *gorm.DB
	Verifier CredentialVerifier
}

func NewClaimService(db *gorm.DB, verifier CredentialVerifier) *ClaimService {
	return &ClaimService{DB: db, Verifier: verifier}
}

// SubmitClaim validates and settles one proof-of-presence claim.
//
// Checks run in a fixed order, each with its own error, and nothing is
// written until every check has passed. The replay guard is consulted
// before the per-participant claimed flag, so an exact replay of an
// already-settled proof fails as ErrInvalidSignature rather than
// ErrAlreadyClaimed; a replayed fingerprint and a bad credential
// surface as the same error on purpose, so callers cannot tell which
// of the two checks rejected them.
//
// On success four records move together or not at all: the replay
// guard entry, the participation row, the event occupancy counter and
// the participant's reward account.
func (s *ClaimService) SubmitClaim(eventID uint64, participant string, credential []byte, timestamp int64) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&event, "id = ?", eventID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: event %d not found", ErrInvalidEvent, eventID)
			}
			return err
		}

		// The event must exist before the identity is judged: a garbled
		// participant against an unknown event is still an unknown event.
		canonical, err := CanonicalParticipant(participant)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}

		if !event.Active {
			return fmt.Errorf("%w: event %d", ErrEventInactive, eventID)
		}

		// Window bounds are inclusive on both ends.
		at := time.Unix(timestamp, 0)
		if at.Before(event.StartTime) || at.After(event.EndTime) {
			return fmt.Errorf("%w: timestamp %d outside event window", ErrInvalidEvent, timestamp)
		}

		if event.CurrentParticipants >= event.MaxParticipants {
			return fmt.Errorf("%w: event %d is full", ErrParticipantLimit, eventID)
		}

		fingerprint, err := ClaimFingerprint(eventID, canonical, timestamp)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		fingerprintHex := hex.EncodeToString(fingerprint[:])

		// Guard first: an exact replay reuses a consumed fingerprint and
		// must be indistinguishable from a bad credential, even though the
		// claimed flag below would also catch it.
		var guard models.ReplayGuardEntry
		err = tx.First(&guard, "fingerprint = ?", fingerprintHex).Error
		if err == nil {
			return fmt.Errorf("%w: proof not accepted", ErrInvalidSignature)
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		var existing models.Participation
		err = tx.Where("event_id = ? AND participant = ? AND claimed = ?", eventID, canonical, true).
			First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: event %d, participant %s", ErrAlreadyClaimed, eventID, canonical)
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		if !s.Verifier.Verify(canonical, credential, fingerprint) {
			return fmt.Errorf("%w: proof not accepted", ErrInvalidSignature)
		}

		// Tier comes from the pre-increment occupancy.
		tier := models.TierForFill(event.CurrentParticipants, event.MaxParticipants)
		points := event.RewardTiers[tier.Index()]

		if err := tx.Create(&models.ReplayGuardEntry{
			Fingerprint: fingerprintHex,
			Consumed:    true,
		}).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.Participation{
			ID:           uuid.NewString(),
			EventID:      eventID,
			Participant:  canonical,
			Claimed:      true,
			PointsEarned: points,
			Tier:         tier,
		}).Error; err != nil {
			return err
		}

		event.CurrentParticipants++
		if err := tx.Save(&event).Error; err != nil {
			return err
		}

		var account models.RewardAccount
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "participant = ?", canonical).Error
		if err == gorm.ErrRecordNotFound {
			account = models.RewardAccount{Participant: canonical}
		} else if err != nil {
			return err
		}
		account.TotalPoints += points
		account.BumpTier(tier)
		if err := tx.Save(&account).Error; err != nil {
			return err
		}

		log.Printf("✅ Claim settled: event=%d participant=%s tier=%s points=%d fill=%d/%d",
			eventID, canonical, tier, points, event.CurrentParticipants, event.MaxParticipants)
		return nil
	})
}

// HasClaimed reports whether (event, participant) already holds a
// claimed participation record.
func (s *ClaimService) HasClaimed(eventID uint64, participant string) (bool, error) {
	canonical, err := CanonicalParticipant(participant)
	if err != nil {
		return false, nil
	}
	var count int64
	if err := s.DB.Model(&models.Participation{}).
		Where("event_id = ? AND participant = ? AND claimed = ?", eventID, canonical, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClaimSkillBadges collects the event's skill-badge labels into the
// participant's reward account. Only gold-tier claimants qualify; the
// operation is idempotent — labels already on the account are skipped.
func (s *ClaimService) ClaimSkillBadges(eventID uint64, participant string) ([]string, error) {
	canonical, err := CanonicalParticipant(participant)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReward, err)
	}

	var collected []string
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: event %d not found", ErrInvalidEvent, eventID)
			}
			return err
		}

		var participation models.Participation
		if err := tx.Where("event_id = ? AND participant = ? AND claimed = ?", eventID, canonical, true).
			First(&participation).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: no claimed participation", ErrInvalidReward)
			}
			return err
		}
		if participation.Tier != models.TierGold {
			return fmt.Errorf("%w: skill badges require a gold-tier claim", ErrInvalidReward)
		}

		var account models.RewardAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&account, "participant = ?", canonical).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: no reward account", ErrInvalidReward)
			}
			return err
		}

		for _, label := range event.SkillBadges {
			if !account.ClaimedBadges.Contains(label) {
				account.ClaimedBadges = append(account.ClaimedBadges, label)
				collected = append(collected, label)
			}
		}
		if len(collected) == 0 {
			return nil
		}
		return tx.Save(&account).Error
	})
	if err != nil {
		return nil, err
	}
	return collected, nil
}
