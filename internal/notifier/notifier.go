// Package notifier delivers user-facing slideshow events to configured
// channels. The engine fires and forgets; delivery failures are logged
// here and never surface into session logic.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"photocast/internal/httputil"
)

// Event is one user-visible notification about a slideshow.
type Event struct {
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	PlayerID   string    `json:"player_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	ChannelWebhook = "webhook"
	ChannelNtfy    = "ntfy"
	ChannelDiscord = "discord"
)

// Channel is one delivery target. URL is the webhook endpoint, or for ntfy
// the full server/topic URL.
type Channel struct {
	Type string
	Name string
	URL  string
}

type Service struct {
	client   *http.Client
	channels []Channel
}

func New(channels ...Channel) *Service {
	return &Service{
		client:   httputil.NewClientWithTimeout(httputil.NotifyTimeout),
		channels: channels,
	}
}

// Notify delivers ev to all channels in parallel. Failures are logged per
// channel and do not abort the others.
func (n *Service) Notify(ctx context.Context, ev Event) {
	if len(n.channels) == 0 {
		return
	}
	var wg sync.WaitGroup
	for _, ch := range n.channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			var err error
			switch ch.Type {
			case ChannelWebhook:
				err = n.sendWebhook(ctx, ch, ev)
			case ChannelNtfy:
				err = n.sendNtfy(ctx, ch, ev)
			case ChannelDiscord:
				err = n.sendDiscord(ctx, ch, ev)
			default:
				err = fmt.Errorf("unknown channel type: %s", ch.Type)
			}
			if err != nil {
				log.Printf("notifier: %s: %v", ch.Name, err)
			}
		}(ch)
	}
	wg.Wait()
}

func (n *Service) sendWebhook(ctx context.Context, ch Channel, ev Event) error {
	payload := map[string]any{
		"event":       "photocast",
		"title":       ev.Title,
		"message":     ev.Message,
		"player_id":   ev.PlayerID,
		"occurred_at": ev.OccurredAt.Format(time.RFC3339),
	}
	return n.postJSON(ctx, ch.URL, payload)
}

func (n *Service) sendNtfy(ctx context.Context, ch Channel, ev Event) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ch.URL, strings.NewReader(ev.Message))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Title", ev.Title)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *Service) sendDiscord(ctx context.Context, ch Channel, ev Event) error {
	payload := map[string]any{
		"embeds": []map[string]any{
			{
				"title":       ev.Title,
				"description": ev.Message,
				"timestamp":   ev.OccurredAt.Format(time.RFC3339),
				"footer": map[string]string{
					"text": "PhotoCast",
				},
			},
		},
	}
	return n.postJSON(ctx, ch.URL, payload)
}

func (n *Service) postJSON(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
