// Package slideshow is the playback engine: per-player session loops, the
// process-wide session registry, and sync-group tick coordination.
package slideshow

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"photocast/internal/models"
	"photocast/internal/notifier"
	"photocast/internal/player"
	"photocast/internal/store"
)

const (
	defaultBusyPoll     = 20 * time.Second
	defaultPausePoll    = 250 * time.Millisecond
	defaultTickInterval = 100 * time.Millisecond
	defaultWebWatchPoll = 10 * time.Second
)

// Notifier delivers user-facing events; delivery failures are the
// notifier's problem, not the engine's.
type Notifier interface {
	Notify(ctx context.Context, ev notifier.Event)
}

// Engine owns the player-id -> session registry and the sync-group table.
// It is the single writer of both: starts and stops are serialized so two
// sessions can never race for the same player slot.
type Engine struct {
	store   *store.Store
	act     *player.Actuator
	notif   Notifier
	baseURL string

	busyPoll     time.Duration
	pausePoll    time.Duration
	tickInterval time.Duration

	startMu sync.Mutex // serializes Start/Stop/Shutdown

	mu       sync.Mutex
	sessions map[string]*Session
	groups   map[string]*Group

	webMu          sync.Mutex
	web            *webShow
	webReq         models.WebShowRequest
	webWatchCancel context.CancelFunc
	webWatchDone   chan struct{}
	webWatchPoll   time.Duration

	subMu       sync.Mutex
	subscribers map[chan []models.SessionStatus]struct{}
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notif = n }
}

func WithBaseURL(base string) Option {
	return func(e *Engine) { e.baseURL = base }
}

func New(s *store.Store, ctrl player.Controller, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		act:          player.NewActuator(ctrl),
		baseURL:      "http://localhost:7980",
		busyPoll:     defaultBusyPoll,
		pausePoll:    defaultPausePoll,
		tickInterval: defaultTickInterval,
		webWatchPoll: defaultWebWatchPoll,
		sessions:     make(map[string]*Session),
		groups:       make(map[string]*Group),
		subscribers:  make(map[chan []models.SessionStatus]struct{}),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) IsRunning(playerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[playerID] != nil
}

func (e *Engine) session(playerID string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[playerID]
}

// SessionFolder returns the photo folder of the player's active session.
func (e *Engine) SessionFolder(playerID string) (string, bool) {
	s := e.session(playerID)
	if s == nil {
		return "", false
	}
	return s.folder, true
}

// Sessions returns status snapshots for every live session, sorted by
// player id.
func (e *Engine) Sessions() []models.SessionStatus {
	e.mu.Lock()
	sessions := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()

	statuses := make([]models.SessionStatus, 0, len(sessions))
	for _, s := range sessions {
		statuses = append(statuses, s.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].PlayerID < statuses[j].PlayerID
	})
	return statuses
}

// CurrentPhotoURL returns the URL of the photo currently on display by the
// first active session, for the web viewer.
func (e *Engine) CurrentPhotoURL() (string, bool) {
	for _, st := range e.Sessions() {
		s := e.session(st.PlayerID)
		if s == nil {
			continue
		}
		s.mu.Lock()
		urls, idx := s.urls, s.index
		s.mu.Unlock()
		if idx >= 0 && idx < len(urls) {
			return urls[idx], true
		}
	}
	return "", false
}

// Subscribe returns a channel receiving session snapshots on every state
// change. Slow consumers miss intermediate snapshots rather than blocking
// the engine.
func (e *Engine) Subscribe() chan []models.SessionStatus {
	ch := make(chan []models.SessionStatus, 1)
	e.subMu.Lock()
	e.subscribers[ch] = struct{}{}
	e.subMu.Unlock()
	return ch
}

func (e *Engine) Unsubscribe(ch chan []models.SessionStatus) {
	e.subMu.Lock()
	_, exists := e.subscribers[ch]
	delete(e.subscribers, ch)
	e.subMu.Unlock()
	if exists {
		close(ch)
	}
}

func (e *Engine) publish() {
	snapshot := e.Sessions()
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for ch := range e.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (e *Engine) notify(title, message, playerID string) {
	if e.notif == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	go func() {
		defer cancel()
		e.notif.Notify(ctx, notifier.Event{
			Title:      title,
			Message:    message,
			PlayerID:   playerID,
			OccurredAt: time.Now().UTC(),
		})
	}()
}

// retire cancels a session and awaits its full termination, including its
// cleanup. Safe to call for an already-finished session.
func (e *Engine) retire(s *Session) {
	s.cancel()
	<-s.done
}

// stopDevice best-effort stops whatever the player is showing and
// optionally powers it off. Runs on its own context: it is part of
// cleanup paths whose session context is usually already cancelled.
func (e *Engine) stopDevice(playerID string, turnOff bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ctrl := e.act.Controller()
	st, err := ctrl.PlayerState(ctx, playerID)
	if err != nil {
		log.Printf("slideshow: querying %s during stop: %v", playerID, err)
		return
	}
	if st.MediaID != "" {
		if err := ctrl.StopMedia(ctx, playerID); err != nil {
			log.Printf("slideshow: media stop failed for %s: %v", playerID, err)
		}
	}
	if !turnOff {
		return
	}
	if !st.SupportsPowerOff {
		log.Printf("slideshow: player %s does not support power off, skipped", playerID)
		return
	}
	if err := ctrl.PowerOff(ctx, playerID); err != nil {
		log.Printf("slideshow: failed to turn off %s: %v", playerID, err)
		e.notify("Player error", "Failed to turn off player "+playerID, playerID)
	}
}

// teardownGroup is run by the departing owner: remove the group entry,
// stop the coordinator, then deal with the members. Force-enabled members
// are actively stopped in parallel; non-forced watchers are left showing
// their last image and only deregistered.
func (e *Engine) teardownGroup(g *Group) {
	e.mu.Lock()
	if e.groups[g.name] == g {
		delete(e.groups, g.name)
	}
	e.mu.Unlock()

	g.setStopped()
	if g.cancel != nil {
		g.cancel()
		<-g.done
	}

	var eg errgroup.Group
	for _, id := range g.memberIDs() {
		if id == g.owner {
			continue
		}
		s := e.session(id)
		// The registry may already hold a replacement session under this
		// id; only sessions still attached to this group are ours to stop.
		if s == nil || s.group != g {
			continue
		}
		eg.Go(func() error {
			forced := s.force
			e.retire(s)
			if forced {
				e.stopDevice(s.playerID, false)
			}
			return nil
		})
	}
	eg.Wait()
	log.Printf("slideshow: sync group %q torn down", g.name)
}
