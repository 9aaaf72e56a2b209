package slideshow

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"photocast/internal/models"
	"photocast/internal/photos"
)

// Start resolves options, collects photos and installs a new session for
// the player, fully retiring any previous one first. Config problems are
// returned; once the session is launched, later failures surface through
// notifications only.
func (e *Engine) Start(ctx context.Context, req models.StartRequest) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	if req.PlayerID == "" {
		return fmt.Errorf("no player specified: %w", models.ErrNotFound)
	}
	if !req.SortOrder.Valid() {
		return fmt.Errorf("invalid sort order %q", req.SortOrder)
	}

	if existing := e.session(req.PlayerID); existing != nil {
		if !req.Force {
			log.Printf("slideshow: already running on %s and force=false; not starting", req.PlayerID)
			e.notify("Slideshow not started", fmt.Sprintf("A slideshow is already running on %s, but force=false; new slideshow will not start.", req.PlayerID), req.PlayerID)
			return fmt.Errorf("slideshow on %s: %w", req.PlayerID, models.ErrConflict)
		}
		log.Printf("slideshow: cancelling previous session on %s to start the new one", req.PlayerID)
		e.retire(existing)
	}

	st, err := e.act.Controller().PlayerState(ctx, req.PlayerID)
	if err != nil {
		return fmt.Errorf("player %s: %w", req.PlayerID, models.ErrNotFound)
	}
	if !st.SupportsPlay {
		return fmt.Errorf("player %s does not support media playback: %w", req.PlayerID, models.ErrIncompatiblePlayer)
	}

	list, err := photos.Collect(req.Folder, models.CollectOptions{
		Recursive:     req.Recursive,
		Shuffle:       req.Shuffle,
		GroupByFolder: req.GroupByFolder,
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("folder %s: %w", req.Folder, models.ErrNoPhotos)
	}

	s := &Session{
		engine:     e,
		playerID:   req.PlayerID,
		folder:     req.Folder,
		urls:       e.photoURLs(req.PlayerID, list),
		interval:   time.Duration(req.Interval) * time.Second,
		loop:       req.Loop,
		force:      req.Force,
		shuffle:    req.Shuffle,
		resume:     req.Resume,
		maxRuntime: time.Duration(req.MaxRuntime) * time.Minute,
		turnOffEnd: true,
		startedAt:  time.Now(),
		state:      models.SessionStarting,
		done:       make(chan struct{}),
	}
	s.urlSet = make(map[string]bool, len(s.urls))
	for _, u := range s.urls {
		s.urlSet[u] = true
	}

	if req.SyncGroup != "" {
		e.joinGroup(s, req.SyncGroup)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	e.mu.Lock()
	e.sessions[req.PlayerID] = s
	e.mu.Unlock()

	log.Printf("slideshow: started on %s (%d photos, interval=%ds, loop=%v, shuffle=%v, force=%v, resume=%v, group=%q)",
		req.PlayerID, len(s.urls), req.Interval, req.Loop, req.Shuffle, req.Force, req.Resume, req.SyncGroup)

	go s.run(runCtx)
	e.publish()
	return nil
}

// joinGroup attaches the session to a sync group, creating the group (and
// its coordinator) when the session is the first arrival, which makes it
// the owner.
func (e *Engine) joinGroup(s *Session, name string) {
	e.mu.Lock()
	g := e.groups[name]
	// A dying owner marks its group stopped before removing the entry;
	// joining such a group would end the new session immediately.
	if g != nil && g.isStopped() {
		g = nil
	}
	if g == nil {
		g = newGroup(name, s.playerID)
		ctx, cancel := context.WithCancel(context.Background())
		g.cancel = cancel
		e.groups[name] = g
		s.group = g
		s.isOwner = true
		e.mu.Unlock()
		go g.runCoordinator(ctx, e.tickInterval)
		log.Printf("slideshow: %s owns new sync group %q", s.playerID, name)
		return
	}
	e.mu.Unlock()
	g.join(s.playerID)
	s.group = g
	log.Printf("slideshow: %s joined sync group %q as watcher", s.playerID, name)
}

// Stop cancels the player's session, awaits its termination, then
// best-effort stops the device, powering it off when asked.
func (e *Engine) Stop(ctx context.Context, playerID string, turnOff bool) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	if playerID == "" {
		return fmt.Errorf("no player specified: %w", models.ErrNotFound)
	}
	if s := e.session(playerID); s != nil {
		e.retire(s)
	}
	e.stopDevice(playerID, turnOff)
	return nil
}

// Pause suspends the player's session; for a sync-group member this pauses
// the whole group.
func (e *Engine) Pause(playerID string) error {
	return e.setPaused(playerID, true)
}

// Resume lifts a pause set by Pause.
func (e *Engine) Resume(playerID string) error {
	return e.setPaused(playerID, false)
}

func (e *Engine) setPaused(playerID string, paused bool) error {
	s := e.session(playerID)
	if s == nil {
		return fmt.Errorf("no slideshow running on %s: %w", playerID, models.ErrNotFound)
	}
	s.setPaused(paused)
	log.Printf("slideshow: paused=%v on %s", paused, playerID)
	return nil
}

// ResetResume clears the persisted resume index for one player, or for all
// players when playerID is empty.
func (e *Engine) ResetResume(playerID string) error {
	if playerID == "" {
		if err := e.store.ClearResumeIndexes(); err != nil {
			return err
		}
		log.Printf("slideshow: resume indexes reset for all players")
		e.notify("Resume reset", "Resume indexes reset for all players.", "")
		return nil
	}
	if err := e.store.DeleteResumeIndex(playerID); err != nil {
		return err
	}
	log.Printf("slideshow: resume index reset for %s", playerID)
	e.notify("Resume reset", "Resume index reset for "+playerID+".", playerID)
	return nil
}

// PhotoOfTheDay shows one random photo from the folder for the requested
// time, reusing the plain session machinery with a single-entry list.
func (e *Engine) PhotoOfTheDay(ctx context.Context, req models.PhotoOfTheDayRequest) error {
	list, err := photos.Collect(req.Folder, models.CollectOptions{Recursive: req.Recursive})
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("folder %s: %w", req.Folder, models.ErrNoPhotos)
	}
	pick := list[rand.Intn(len(list))]
	log.Printf("slideshow: photo of the day on %s (%s, max_runtime=%ds)", req.PlayerID, pick, req.MaxRuntime)

	// One photo, shown for the whole runtime, no loop, no resume.
	return e.startPicked(ctx, req, pick)
}

func (e *Engine) startPicked(ctx context.Context, req models.PhotoOfTheDayRequest, pick string) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	if req.PlayerID == "" {
		return fmt.Errorf("no player specified: %w", models.ErrNotFound)
	}
	if existing := e.session(req.PlayerID); existing != nil {
		if !req.Force {
			e.notify("Photo of the Day not started", fmt.Sprintf("A slideshow is already running on %s, but force=false.", req.PlayerID), req.PlayerID)
			return fmt.Errorf("slideshow on %s: %w", req.PlayerID, models.ErrConflict)
		}
		e.retire(existing)
	}
	if _, err := e.act.Controller().PlayerState(ctx, req.PlayerID); err != nil {
		return fmt.Errorf("player %s: %w", req.PlayerID, models.ErrNotFound)
	}

	s := &Session{
		engine:     e,
		playerID:   req.PlayerID,
		folder:     req.Folder,
		urls:       e.photoURLs(req.PlayerID, []string{pick}),
		interval:   time.Duration(req.MaxRuntime) * time.Second,
		force:      req.Force,
		maxRuntime: time.Duration(req.MaxRuntime) * time.Second,
		turnOffEnd: true,
		startedAt:  time.Now(),
		state:      models.SessionStarting,
		done:       make(chan struct{}),
	}
	s.urlSet = map[string]bool{s.urls[0]: true}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	e.mu.Lock()
	e.sessions[req.PlayerID] = s
	e.mu.Unlock()

	go s.run(runCtx)
	e.publish()
	return nil
}

// Shutdown retires every live session and the web slideshow; device state
// is left as-is.
func (e *Engine) Shutdown() {
	e.StopWebShow()

	e.startMu.Lock()
	defer e.startMu.Unlock()

	for {
		e.mu.Lock()
		var s *Session
		for _, cand := range e.sessions {
			s = cand
			break
		}
		e.mu.Unlock()
		if s == nil {
			return
		}
		e.retire(s)
	}
}

// photoURLs maps relative photo paths to the addressable URLs handed to
// players, escaping each path segment.
func (e *Engine) photoURLs(playerID string, paths []string) []string {
	urls := make([]string, len(paths))
	prefix := strings.TrimRight(e.baseURL, "/") + "/photos/" + url.PathEscape(playerID) + "/"
	for i, p := range paths {
		segs := strings.Split(p, "/")
		for j, seg := range segs {
			segs[j] = url.PathEscape(seg)
		}
		urls[i] = prefix + strings.Join(segs, "/")
	}
	return urls
}
