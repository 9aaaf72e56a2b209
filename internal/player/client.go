package player

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"photocast/internal/httputil"
)

// Client implements Controller against the HTTP cast control endpoint.
// Commands are rate limited so a burst of slideshow starts cannot flood a
// slow cast device.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httputil.NewClient(),
		limiter: rate.NewLimiter(10, 5),
	}
}

func (c *Client) Display(ctx context.Context, playerID, mediaURL string) error {
	payload := map[string]string{
		"media_content_type": "image/jpeg",
		"media_content_id":   mediaURL,
	}
	return c.post(ctx, playerID, "play", payload)
}

func (c *Client) PlayerState(ctx context.Context, playerID string) (State, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return State{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.playerURL(playerID, "state"), nil)
	if err != nil {
		return State{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return State{}, err
	}
	defer httputil.DrainBody(resp)
	if resp.StatusCode == http.StatusNotFound {
		return State{}, fmt.Errorf("player %s: not found", playerID)
	}
	if resp.StatusCode != http.StatusOK {
		return State{}, fmt.Errorf("player endpoint returned status %d", resp.StatusCode)
	}
	var st State
	if err := json.NewDecoder(io.LimitReader(resp.Body, httputil.MaxResponseBody)).Decode(&st); err != nil {
		return State{}, fmt.Errorf("decoding player state: %w", err)
	}
	return st, nil
}

func (c *Client) StopMedia(ctx context.Context, playerID string) error {
	return c.post(ctx, playerID, "stop", nil)
}

func (c *Client) PowerOff(ctx context.Context, playerID string) error {
	return c.post(ctx, playerID, "off", nil)
}

func (c *Client) post(ctx context.Context, playerID, action string, payload any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.playerURL(playerID, action), body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer httputil.DrainBody(resp)
	if resp.StatusCode >= 300 {
		// The device's own error text matters to the caller: incompatible
		// players are recognized by substring.
		b, _ := io.ReadAll(io.LimitReader(resp.Body, httputil.MaxResponseBody))
		slog.Debug("player: command failed", "player", playerID, "action", action, "status", resp.StatusCode)
		return fmt.Errorf("player %s %s: status %d: %s", playerID, action, resp.StatusCode, httputil.Truncate(b, 200))
	}
	return nil
}

func (c *Client) playerURL(playerID, action string) string {
	return c.baseURL + "/players/" + url.PathEscape(playerID) + "/" + action
}
