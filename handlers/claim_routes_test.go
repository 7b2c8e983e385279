package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"presence-rewards-system/models"
	"presence-rewards-system/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type acceptAll struct{}

func (acceptAll) Verify(string, []byte, [32]byte) bool { return true }

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Event{},
		&models.Participation{},
		&models.ReplayGuardEntry{},
		&models.RewardAccount{},
		&models.MarketplaceItem{},
		&models.Redemption{},
		&models.ParticipantProfile{},
	))

	app := fiber.New()
	SetupEventRoutes(app, services.NewEventService(db, "admin-1"))
	SetupClaimRoutes(app, services.NewClaimService(db, acceptAll{}), services.NewRewardsService(db))
	SetupMarketplaceRoutes(app, services.NewMarketplaceService(db, "admin-1"), services.NewRedemptionService(db))
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, userID string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func createEventViaAPI(t *testing.T, app *fiber.App) uint64 {
	t.Helper()
	resp := doJSON(t, app, "POST", "/admin/events", "admin-1", fiber.Map{
		"name":             "Community Day",
		"start_time":       time.Now().Add(-time.Hour).Format(time.RFC3339),
		"end_time":         time.Now().Add(time.Hour).Format(time.RFC3339),
		"max_participants": 3,
		"reward_tiers":     []int64{30, 20, 10},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		EventID uint64 `json:"event_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.EventID
}

func TestClaimRouteLifecycle(t *testing.T) {
	app, _ := setupTestApp(t)
	eventID := createEventViaAPI(t, app)

	participant := "0x" + fmt.Sprintf("%040x", 1)
	claim := fiber.Map{
		"participant": participant,
		"credential":  "0xdeadbeef",
		"timestamp":   time.Now().Unix(),
	}

	resp := doJSON(t, app, "POST", fmt.Sprintf("/events/%d/claims", eventID), "user-1", claim)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Replay of the same proof → 401 (indistinguishable from bad signature)
	resp = doJSON(t, app, "POST", fmt.Sprintf("/events/%d/claims", eventID), "user-1", claim)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// has-claimed flips to true
	resp = doJSON(t, app, "GET", fmt.Sprintf("/events/%d/claims/%s", eventID, participant), "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hasBody struct {
		Claimed bool `json:"claimed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hasBody))
	require.True(t, hasBody.Claimed)

	// Reward account is visible
	resp = doJSON(t, app, "GET", "/rewards/"+participant, "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rewards struct {
		TotalPoints int64 `json:"total_points"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rewards))
	require.Equal(t, int64(30), rewards.TotalPoints)
}

func TestClaimRouteErrorMapping(t *testing.T) {
	app, _ := setupTestApp(t)

	// Missing identity → 401 from user-context middleware
	resp := doJSON(t, app, "POST", "/events/1/claims", "", fiber.Map{})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unknown event → 404
	resp = doJSON(t, app, "POST", "/events/999/claims", "user-1", fiber.Map{
		"participant": "0x" + fmt.Sprintf("%040x", 2),
		"credential":  "0x00",
		"timestamp":   time.Now().Unix(),
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Event at capacity → 409
	eventID := createEventViaAPI(t, app)
	ts := time.Now().Unix()
	for i := 0; i < 3; i++ {
		resp = doJSON(t, app, "POST", fmt.Sprintf("/events/%d/claims", eventID), "user-1", fiber.Map{
			"participant": "0x" + fmt.Sprintf("%040x", i+10),
			"credential":  "0x00",
			"timestamp":   ts + int64(i),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp = doJSON(t, app, "POST", fmt.Sprintf("/events/%d/claims", eventID), "user-1", fiber.Map{
		"participant": "0x" + fmt.Sprintf("%040x", 99),
		"credential":  "0x00",
		"timestamp":   ts + 9,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAdminRoutesAreOwnerGated(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := doJSON(t, app, "POST", "/admin/events", "not-admin", fiber.Map{
		"name":             "Rogue Event",
		"start_time":       time.Now().Format(time.RFC3339),
		"end_time":         time.Now().Add(time.Hour).Format(time.RFC3339),
		"max_participants": 5,
		"reward_tiers":     []int64{3, 2, 1},
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, "POST", "/admin/marketplace/items", "not-admin", fiber.Map{
		"name": "Mug", "points_required": 5, "quantity": 1,
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRedemptionRoute(t *testing.T) {
	app, db := setupTestApp(t)

	participant := "0x" + fmt.Sprintf("%040x", 3)
	require.NoError(t, db.Create(&models.RewardAccount{Participant: participant, TotalPoints: 25}).Error)

	resp := doJSON(t, app, "POST", "/admin/marketplace/items", "admin-1", fiber.Map{
		"name": "Sticker", "points_required": 10, "quantity": 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var itemBody struct {
		ItemID string `json:"item_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&itemBody))

	resp = doJSON(t, app, "POST", "/marketplace/items/"+itemBody.ItemID+"/redemptions", "user-1", fiber.Map{
		"participant": participant,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Stock is gone → 404, balance short → 402
	resp = doJSON(t, app, "POST", "/marketplace/items/"+itemBody.ItemID+"/redemptions", "user-1", fiber.Map{
		"participant": participant,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
