// Package player talks to the external cast control endpoint. It is the
// engine's only I/O boundary: issue a display command, query player state,
// stop media, power off.
package player

import "context"

// State is a point-in-time view of what a player is doing, as reported by
// the cast control endpoint.
type State struct {
	MediaID          string  `json:"media_content_id"`
	MediaType        string  `json:"media_content_type"`
	Position         float64 `json:"media_position"`
	Duration         float64 `json:"media_duration"`
	SupportsPlay     bool    `json:"supports_play"`
	SupportsPowerOff bool    `json:"supports_power_off"`
}

type Controller interface {
	Display(ctx context.Context, playerID, url string) error
	PlayerState(ctx context.Context, playerID string) (State, error)
	StopMedia(ctx context.Context, playerID string) error
	PowerOff(ctx context.Context, playerID string) error
}

// BusyWith reports whether the player is occupied by third-party media:
// something we did not cast, of a progressing video/music type. A player
// idle at position 0 with duration 0 is not busy.
func BusyWith(st State, ours func(mediaID string) bool) bool {
	if st.MediaID == "" || ours(st.MediaID) {
		return false
	}
	if st.MediaType != "video" && st.MediaType != "music" {
		return false
	}
	return !(st.Position == 0 && st.Duration == 0)
}
