// Package video talks to the external service that hosts audio/video
// rooms. The engine only forwards join/leave intents and pulls
// participant counts; this process never owns video state.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/c-pro/geche"
)

// Client is an HTTP client for the video service. Participant counts
// are cached with a short TTL to absorb room-badge polling. All calls
// are bounded by the request context; failures are reported, never
// fatal.
type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
	counts  geche.Geche[string, int]
}

func NewClient(ctx context.Context, log *slog.Logger, baseURL string, timeout, cacheTTL time.Duration) *Client {
	return &Client{
		log:     log,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		counts:  geche.NewMapTTLCache[string, int](ctx, cacheTTL, cacheTTL),
	}
}

// JoinNotify tells the video service that someone entered a room.
func (c *Client) JoinNotify(ctx context.Context, room string) error {
	return c.notify(ctx, room, "join")
}

// LeaveNotify is the symmetric notification.
func (c *Client) LeaveNotify(ctx context.Context, room string) error {
	return c.notify(ctx, room, "leave")
}

func (c *Client) notify(ctx context.Context, room, action string) error {
	if c.baseURL == "" {
		return nil // service not configured, drop the notification
	}

	u := fmt.Sprintf("%s/rooms/%s/%s", c.baseURL, url.PathEscape(room), action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("video %s notify: %w", action, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("video %s notify: unexpected status %d", action, resp.StatusCode)
	}
	return nil
}

// ListParticipantCounts returns live participant counts for the
// requested rooms. Rooms without participants are omitted. Cached
// counts are served without a round-trip; when the service cannot be
// reached the cached part of the answer is still returned along with
// the error.
func (c *Client) ListParticipantCounts(ctx context.Context, rooms []string) (map[string]int, error) {
	result := make(map[string]int)
	var missing []string
	for _, room := range rooms {
		if n, err := c.counts.Get(room); err == nil {
			if n > 0 {
				result[room] = n
			}
			continue
		}
		missing = append(missing, room)
	}
	if len(missing) == 0 || c.baseURL == "" {
		return result, nil
	}

	fetched, err := c.fetchCounts(ctx, missing)
	if err != nil {
		c.log.Debug("participant count fetch failed", "rooms", missing, "error", err)
		return result, err
	}
	for _, room := range missing {
		n := fetched[room]
		c.counts.Set(room, n)
		if n > 0 {
			result[room] = n
		}
	}
	return result, nil
}

func (c *Client) fetchCounts(ctx context.Context, rooms []string) (map[string]int, error) {
	u, err := url.Parse(c.baseURL + "/counts")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for _, room := range rooms {
		q.Add("room", room)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video counts: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video counts: unexpected status %d", resp.StatusCode)
	}

	var counts map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		return nil, fmt.Errorf("video counts: %w", err)
	}
	return counts, nil
}
