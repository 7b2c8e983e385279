package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"presence-rewards-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeySyncClient pulls registered participant public keys from the
// identity service. The credential verifier never calls out over the
// network: it reads the participant_keys mirror this client maintains.
type KeySyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewKeySyncClient(db *gorm.DB) *KeySyncClient {
	baseURL := os.Getenv("SYNC_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("PRESENCE_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("PRESENCE_SERVICE_TOKEN environment variable is required for key sync")
	}

	return &KeySyncClient{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetChangedKeys fetches keys registered or revoked since the given time.
func (c *KeySyncClient) GetChangedKeys(ctx context.Context, since time.Time) ([]models.ParticipantKey, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/credential-keys", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call sync service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sync service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Keys []models.ParticipantKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode sync service response: %w", err)
	}

	return response.Keys, nil
}

// PollKeys keeps the participant_keys mirror current. A failed batch is
// retried over the same window on the next tick.
func PollKeys(ctx context.Context, client *KeySyncClient, pollInterval time.Duration) {
	log.Println("Starting credential key polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Credential key polling stopped.")
			return
		case <-ticker.C:
			logTime := time.Now().UTC()

			keys, err := client.GetChangedKeys(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling credential keys: %v", err)
				continue
			}

			count := len(keys)
			if count == 0 {
				continue
			}

			if err := client.DB.Clauses(
				clause.OnConflict{
					Columns: []clause.Column{{Name: "participant"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"public_key",
						"revoked",
						"updated_at",
					}),
				},
			).Create(&keys).Error; err != nil {
				log.Printf("❌ Failed to upsert %d credential key(s): %v", count, err)
				// Do NOT advance lastSyncTime on failure — retry same window next tick
				continue
			}

			lastSyncTime = logTime
			log.Printf("✅ Upserted %d credential key(s) into participant_keys.", count)
		}
	}
}
