package services

import (
	"fmt"
	"testing"
	"time"

	"presence-rewards-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite")
	require.NoError(t, db.AutoMigrate(
		&models.Event{},
		&models.Participation{},
		&models.ReplayGuardEntry{},
		&models.RewardAccount{},
		&models.MarketplaceItem{},
		&models.Redemption{},
		&models.ParticipantKey{},
		&models.ParticipantProfile{},
	), "failed to migrate")
	return db
}

// acceptAll stands in for a verified credential; credential contents
// are exercised separately in verifier_test.go.
type acceptAll struct{}

func (acceptAll) Verify(string, []byte, [32]byte) bool { return true }

type rejectAll struct{}

func (rejectAll) Verify(string, []byte, [32]byte) bool { return false }

func testParticipant(i int) string {
	return fmt.Sprintf("0x%040x", i+1)
}

func createTestEvent(t *testing.T, db *gorm.DB, maxParticipants int, tiers []int64) *models.Event {
	t.Helper()
	svc := NewEventService(db, "admin-1")
	// Whole-second window so timestamps at the exact bounds compare cleanly.
	now := time.Now().Truncate(time.Second)
	event, err := svc.CreateEvent("admin-1", CreateEventInput{
		Name:            "Gopher Meetup",
		StartTime:       now.Add(-time.Hour),
		EndTime:         now.Add(time.Hour),
		MaxParticipants: maxParticipants,
		RewardTiers:     tiers,
		SkillBadges:     []string{"go", "distributed-systems"},
	})
	require.NoError(t, err)
	return event
}

func TestClaimTierScenario(t *testing.T) {
	db := setupTestDB(t)
	event := createTestEvent(t, db, 9, []int64{30, 20, 10})
	claims := NewClaimService(db, acceptAll{})

	base := time.Now().Unix()
	wantTiers := []models.Tier{
		models.TierGold, models.TierGold, models.TierGold,
		models.TierSilver, models.TierSilver, models.TierSilver,
		models.TierBronze, models.TierBronze, models.TierBronze,
	}
	wantPoints := []int64{30, 30, 30, 20, 20, 20, 10, 10, 10}

	for i := 0; i < 9; i++ {
		p := testParticipant(i)
		require.NoError(t, claims.SubmitClaim(event.ID, p, []byte("cred"), base+int64(i)))

		var part models.Participation
		require.NoError(t, db.First(&part, "event_id = ? AND participant = ?", event.ID, p).Error)
		require.Equal(t, wantTiers[i], part.Tier, "claimant %d", i+1)
		require.Equal(t, wantPoints[i], part.PointsEarned, "claimant %d", i+1)

		var acct models.RewardAccount
		require.NoError(t, db.First(&acct, "participant = ?", p).Error)
		require.Equal(t, wantPoints[i], acct.TotalPoints)
		require.Equal(t, int64(1), acct.TierCount(wantTiers[i]))
	}

	var got models.Event
	require.NoError(t, db.First(&got, "id = ?", event.ID).Error)
	require.Equal(t, 9, got.CurrentParticipants)

	// 10th claim hits the capacity wall
	err := claims.SubmitClaim(event.ID, testParticipant(9), []byte("cred"), base+9)
	require.ErrorIs(t, err, ErrParticipantLimit)

	require.NoError(t, db.First(&got, "id = ?", event.ID).Error)
	require.Equal(t, 9, got.CurrentParticipants, "failed claim must not move occupancy")
}

func TestClaimDoubleClaimRejected(t *testing.T) {
	db := setupTestDB(t)
	event := createTestEvent(t, db, 9, []int64{30, 20, 10})
	claims := NewClaimService(db, acceptAll{})

	p := testParticipant(0)
	ts := time.Now().Unix()
	require.NoError(t, claims.SubmitClaim(event.ID, p, []byte("cred"), ts))

	// A different timestamp escapes the replay guard but not the
	// per-participant claimed flag.
	err := claims.SubmitClaim(event.ID, p, []byte("cred"), ts+1)
	require.ErrorIs(t, err, ErrAlreadyClaimed)

	var count int64
	require.NoError(t, db.Model(&models.Participation{}).
		Where("event_id = ? AND participant = ?", event.ID, p).
		Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestClaimReplayRejected(t *testing.T) {
	db := setupTestDB(t)
	event := createTestEvent(t, db, 9, []int64{30, 20, 10})
	claims := NewClaimService(db, acceptAll{})

	ts := time.Now().Unix()
	require.NoError(t, claims.SubmitClaim(event.ID, testParticipant(0), []byte("cred"), ts))

	// Identical (event, participant, timestamp): the consumed
	// fingerprint surfaces as a signature failure, same as a bad
	// credential would, and never as a double claim.
	err := claims.SubmitClaim(event.ID, testParticipant(0), []byte("cred"), ts)
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.NotErrorIs(t, err, ErrAlreadyClaimed)
}

func TestClaimPreconditionOrder(t *testing.T) {
	db := setupTestDB(t)
	claims := NewClaimService(db, acceptAll{})
	ts := time.Now().Unix()

	// Unknown event
	err := claims.SubmitClaim(42, testParticipant(0), []byte("cred"), ts)
	require.ErrorIs(t, err, ErrInvalidEvent)

	// Inactive event
	event := createTestEvent(t, db, 9, []int64{30, 20, 10})
	events := NewEventService(db, "admin-1")
	_, err = events.SetEventStatus("admin-1", event.ID, false)
	require.NoError(t, err)
	err = claims.SubmitClaim(event.ID, testParticipant(0), []byte("cred"), ts)
	require.ErrorIs(t, err, ErrEventInactive)
	_, err = events.SetEventStatus("admin-1", event.ID, true)
	require.NoError(t, err)

	// Outside the window, either side
	err = claims.SubmitClaim(event.ID, testParticipant(0), []byte("cred"), event.StartTime.Unix()-1)
	require.ErrorIs(t, err, ErrInvalidEvent)
	err = claims.SubmitClaim(event.ID, testParticipant(0), []byte("cred"), event.EndTime.Unix()+1)
	require.ErrorIs(t, err, ErrInvalidEvent)

	// Window bounds are inclusive
	require.NoError(t, claims.SubmitClaim(event.ID, testParticipant(0), []byte("cred"), event.StartTime.Unix()))
	require.NoError(t, claims.SubmitClaim(event.ID, testParticipant(1), []byte("cred"), event.EndTime.Unix()))
}

func TestClaimMalformedParticipant(t *testing.T) {
	db := setupTestDB(t)
	claims := NewClaimService(db, acceptAll{})
	ts := time.Now().Unix()

	// Event existence is judged before the participant identity.
	err := claims.SubmitClaim(42, "not-an-address", []byte("cred"), ts)
	require.ErrorIs(t, err, ErrInvalidEvent)

	event := createTestEvent(t, db, 9, []int64{30, 20, 10})
	for _, bad := range []string{"not-an-address", "0x1234", "", "0xzz" + testParticipant(0)[4:]} {
		err := claims.SubmitClaim(event.ID, bad, []byte("cred"), ts)
		require.ErrorIs(t, err, ErrInvalidSignature, "participant %q", bad)
	}

	var got models.Event
	require.NoError(t, db.First(&got, "id = ?", event.ID).Error)
	require.Equal(t, 0, got.CurrentParticipants)
}

func TestClaimRejectedCredentialLeavesStateUnchanged(t *testing.T) {
	db := setupTestDB(t)
	event := createTestEvent(t, db, 9, []int64{30, 20, 10})
	claims := NewClaimService(db, rejectAll{})

	err := claims.SubmitClaim(event.ID, testParticipant(0), []byte("bad"), time.Now().Unix())
	require.ErrorIs(t, err, ErrInvalidSignature)

	// Snapshot check: nothing moved in any of the four tables.
	var got models.Event
	require.NoError(t, db.First(&got, "id = ?", event.ID).Error)
	require.Equal(t, 0, got.CurrentParticipants)

	for _, model := range []interface{}{
		&models.Participation{}, &models.ReplayGuardEntry{}, &models.RewardAccount{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		require.Zero(t, count)
	}
}

func TestClaimFingerprintDeterminism(t *testing.T) {
	p := testParticipant(0)
	a, err := ClaimFingerprint(7, p, 1700000000)
	require.NoError(t, err)
	b, err := ClaimFingerprint(7, p, 1700000000)
	require.NoError(t, err)
	require.Equal(t, a, b)

	// Any field changing changes the digest
	c, err := ClaimFingerprint(8, p, 1700000000)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
	d, err := ClaimFingerprint(7, p, 1700000001)
	require.NoError(t, err)
	require.NotEqual(t, a, d)
	e, err := ClaimFingerprint(7, testParticipant(1), 1700000000)
	require.NoError(t, err)
	require.NotEqual(t, a, e)

	// Canonicalization: case and 0x prefix don't matter
	f, err := ClaimFingerprint(7, "0X"+p[2:], 1700000000)
	require.NoError(t, err)
	require.Equal(t, a, f)
}

func TestClaimSkillBadges(t *testing.T) {
	db := setupTestDB(t)
	event := createTestEvent(t, db, 9, []int64{30, 20, 10})
	claims := NewClaimService(db, acceptAll{})

	goldP := testParticipant(0)
	ts := time.Now().Unix()
	require.NoError(t, claims.SubmitClaim(event.ID, goldP, []byte("cred"), ts))

	collected, err := claims.ClaimSkillBadges(event.ID, goldP)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"go", "distributed-systems"}, collected)

	// Idempotent: second collection adds nothing
	collected, err = claims.ClaimSkillBadges(event.ID, goldP)
	require.NoError(t, err)
	require.Empty(t, collected)

	var acct models.RewardAccount
	require.NoError(t, db.First(&acct, "participant = ?", goldP).Error)
	require.Len(t, acct.ClaimedBadges, 2)

	// Fill past the gold band, then a silver claimant is refused
	for i := 1; i < 4; i++ {
		require.NoError(t, claims.SubmitClaim(event.ID, testParticipant(i), []byte("cred"), ts+int64(i)))
	}
	_, err = claims.ClaimSkillBadges(event.ID, testParticipant(3))
	require.ErrorIs(t, err, ErrInvalidReward)

	// No participation at all
	_, err = claims.ClaimSkillBadges(event.ID, testParticipant(8))
	require.ErrorIs(t, err, ErrInvalidReward)
}

func TestHasClaimed(t *testing.T) {
	db := setupTestDB(t)
	event := createTestEvent(t, db, 9, []int64{30, 20, 10})
	claims := NewClaimService(db, acceptAll{})

	p := testParticipant(0)
	claimed, err := claims.HasClaimed(event.ID, p)
	require.NoError(t, err)
	require.False(t, claimed)

	require.NoError(t, claims.SubmitClaim(event.ID, p, []byte("cred"), time.Now().Unix()))

	claimed, err = claims.HasClaimed(event.ID, p)
	require.NoError(t, err)
	require.True(t, claimed)

	// Mixed-case spelling of the same address still matches
	claimed, err = claims.HasClaimed(event.ID, "0X"+p[2:])
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestTierBoundaries(t *testing.T) {
	// cap = 9: fills 0-2 gold, 3-5 silver, 6-8 bronze
	for fill, want := range []models.Tier{
		models.TierGold, models.TierGold, models.TierGold,
		models.TierSilver, models.TierSilver, models.TierSilver,
		models.TierBronze, models.TierBronze, models.TierBronze,
	} {
		require.Equal(t, want, models.TierForFill(fill, 9), "fill=%d", fill)
	}

	// Capacity not divisible by three keeps integer-division thresholds:
	// cap = 10 → gold below 3, silver below 6, bronze from 6.
	require.Equal(t, models.TierGold, models.TierForFill(2, 10))
	require.Equal(t, models.TierSilver, models.TierForFill(3, 10))
	require.Equal(t, models.TierSilver, models.TierForFill(5, 10))
	require.Equal(t, models.TierBronze, models.TierForFill(6, 10))

	// Tiny event: cap/3 == 0, everyone lands in silver then bronze
	require.Equal(t, models.TierSilver, models.TierForFill(0, 2))
	require.Equal(t, models.TierBronze, models.TierForFill(1, 2))
}
