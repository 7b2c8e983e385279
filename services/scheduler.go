// services/scheduler.go
package services

import (
	"log"
	"time"

	"presence-rewards-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartLedgerAudit runs a periodic conservation check: for every
// reward account, points earned (participations) minus points spent
// (redemptions) must equal the stored balance. The job only reads and
// logs — a mismatch means a bug or manual DB surgery, never something
// to auto-correct.
func (s *RewardsService) StartLedgerAudit(interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			mismatches, err := s.AuditLedger()
			if err != nil {
				log.Printf("[LedgerAudit] DB error: %v", err)
				return
			}
			if len(mismatches) == 0 {
				log.Println("[LedgerAudit] all reward accounts balance")
				return
			}
			for _, m := range mismatches {
				log.Printf("⚠️ [LedgerAudit] account %s holds %d points, history says %d (earned %d - spent %d)",
					m.Participant, m.Stored, m.Expected, m.Earned, m.Spent)
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// LedgerMismatch describes one account whose balance disagrees with
// its participation and redemption history.
type LedgerMismatch struct {
	Participant string `json:"participant"`
	Stored      int64  `json:"stored"`
	Expected    int64  `json:"expected"`
	Earned      int64  `json:"earned"`
	Spent       int64  `json:"spent"`
}

// AuditLedger recomputes every account balance from history.
func (s *RewardsService) AuditLedger() ([]LedgerMismatch, error) {
	var accounts []models.RewardAccount
	if err := s.DB.Find(&accounts).Error; err != nil {
		return nil, err
	}

	var mismatches []LedgerMismatch
	for _, acct := range accounts {
		var earned, spent int64
		if err := s.DB.Model(&models.Participation{}).
			Where("participant = ? AND claimed = ?", acct.Participant, true).
			Select("COALESCE(SUM(points_earned), 0)").
			Scan(&earned).Error; err != nil {
			return nil, err
		}
		if err := s.DB.Model(&models.Redemption{}).
			Where("participant = ?", acct.Participant).
			Select("COALESCE(SUM(points_spent), 0)").
			Scan(&spent).Error; err != nil {
			return nil, err
		}
		if expected := earned - spent; expected != acct.TotalPoints {
			mismatches = append(mismatches, LedgerMismatch{
				Participant: acct.Participant,
				Stored:      acct.TotalPoints,
				Expected:    expected,
				Earned:      earned,
				Spent:       spent,
			})
		}
	}
	return mismatches, nil
}
