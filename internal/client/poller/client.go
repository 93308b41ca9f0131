package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ridesync/internal/ports"
)

// Syncer fetches one status delta for a ride.
type Syncer interface {
	Sync(ctx context.Context, rideID string, lastCheck time.Time) (ports.SyncResult, error)
}

// SyncClient is the HTTP implementation of Syncer talking to the lifecycle
// service sync endpoint.
type SyncClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewSyncClient creates a sync client for the given lifecycle service base URL.
// token is the bearer token presented on every poll.
func NewSyncClient(baseURL, token string, timeout time.Duration) *SyncClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &SyncClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Sync calls GET /rides/{ride_id}/sync?last_check=<RFC3339>. A zero lastCheck
// omits the parameter and fetches the full history.
func (client *SyncClient) Sync(ctx context.Context, rideID string, lastCheck time.Time) (ports.SyncResult, error) {
	endpoint := client.baseURL + "/rides/" + url.PathEscape(rideID) + "/sync"
	if !lastCheck.IsZero() {
		endpoint += "?last_check=" + url.QueryEscape(lastCheck.UTC().Format(time.RFC3339Nano))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.SyncResult{}, err
	}
	if client.token != "" {
		req.Header.Set("Authorization", "Bearer "+client.token)
	}

	resp, err := client.http.Do(req)
	if err != nil {
		return ports.SyncResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return ports.SyncResult{}, fmt.Errorf("sync %s: unexpected status %d: %s", rideID, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result ports.SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ports.SyncResult{}, fmt.Errorf("sync %s: decode response: %w", rideID, err)
	}

	return result, nil
}
