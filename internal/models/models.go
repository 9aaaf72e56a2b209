package models

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrNotADirectory      = errors.New("not a directory")
	ErrConflict           = errors.New("already running")
	ErrIncompatiblePlayer = errors.New("incompatible player")
	ErrNoPhotos           = errors.New("no photos found")
)

// SortOrder controls how collected photos are ordered when not shuffling.
type SortOrder string

const (
	SortByName SortOrder = "name"
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

func (s SortOrder) Valid() bool {
	switch s {
	case SortByName, SortNewest, SortOldest, "":
		return true
	}
	return false
}

// CollectOptions configures a photo collection pass over a folder.
type CollectOptions struct {
	Recursive     bool
	Shuffle       bool
	GroupByFolder bool
	SortOrder     SortOrder
}

// StartRequest carries everything needed to start a slideshow on one player.
type StartRequest struct {
	PlayerID      string    `json:"player_id"`
	Folder        string    `json:"folder"`
	Interval      int       `json:"interval"` // seconds per photo, 0 = show indefinitely
	Recursive     bool      `json:"recursive"`
	Shuffle       bool      `json:"shuffle"`
	GroupByFolder bool      `json:"group_by_folder"`
	SortOrder     SortOrder `json:"sort_order"`
	Loop          bool      `json:"loop"`
	Force         bool      `json:"force"`
	MaxRuntime    int       `json:"max_runtime"` // minutes, 0 = unlimited
	Resume        bool      `json:"resume"`
	SyncGroup     string    `json:"sync_group"`
}

// PhotoOfTheDayRequest shows a single random photo for a bounded time.
type PhotoOfTheDayRequest struct {
	PlayerID   string `json:"player_id"`
	Folder     string `json:"folder"`
	MaxRuntime int    `json:"max_runtime"` // seconds
	Recursive  bool   `json:"recursive"`
	Force      bool   `json:"force"`
}

// WebShowRequest starts the browser slideshow, which runs independently of
// any cast session.
type WebShowRequest struct {
	Folder        string    `json:"folder"`
	Interval      int       `json:"interval"` // seconds per photo, 0 = default
	Recursive     bool      `json:"recursive"`
	Shuffle       bool      `json:"shuffle"`
	GroupByFolder bool      `json:"group_by_folder"`
	SortOrder     SortOrder `json:"sort_order"`
	Loop          bool      `json:"loop"`
	AutoRestart   bool      `json:"auto_restart"`
}

// SessionState is the lifecycle state of a slideshow session.
type SessionState string

const (
	SessionStarting  SessionState = "starting"
	SessionPlaying   SessionState = "playing"
	SessionWaiting   SessionState = "waiting"
	SessionPaused    SessionState = "paused"
	SessionCompleted SessionState = "completed"
	SessionCancelled SessionState = "cancelled"
	SessionFailed    SessionState = "failed"
)

// SessionStatus is the externally visible snapshot of one session.
type SessionStatus struct {
	PlayerID   string       `json:"player_id"`
	Folder     string       `json:"folder"`
	State      SessionState `json:"state"`
	Index      int          `json:"index"`
	PhotoCount int          `json:"photo_count"`
	Paused     bool         `json:"paused"`
	SyncGroup  string       `json:"sync_group,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
}

// ResumeEntry is one row of the persisted resume table.
type ResumeEntry struct {
	PlayerID  string    `json:"player_id"`
	LastIndex int       `json:"last_index"`
	UpdatedAt time.Time `json:"updated_at"`
}
