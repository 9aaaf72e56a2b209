package slideshow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"sync"
	"time"

	"photocast/internal/models"
	"photocast/internal/player"
)

var (
	errMaxRuntime   = errors.New("max runtime reached")
	errGroupStopped = errors.New("sync group stopped")
)

// Session is one running slideshow bound to a single player. Its goroutine
// is the only writer of index/state; pause is toggled externally under mu.
type Session struct {
	engine   *Engine
	playerID string
	folder   string

	urls     []string
	urlSet   map[string]bool
	interval time.Duration

	loop       bool
	force      bool
	shuffle    bool
	resume     bool
	maxRuntime time.Duration
	turnOffEnd bool

	group   *Group
	isOwner bool

	startedAt time.Time

	mu     sync.Mutex
	paused bool
	index  int
	state  models.SessionState

	cancel context.CancelFunc
	done   chan struct{}
}

func (s *Session) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := models.SessionStatus{
		PlayerID:   s.playerID,
		Folder:     s.folder,
		State:      s.state,
		Index:      s.index,
		PhotoCount: len(s.urls),
		Paused:     s.paused,
		StartedAt:  s.startedAt,
	}
	if s.group != nil {
		st.SyncGroup = s.group.name
		st.Paused = st.Paused || s.group.isPaused()
	}
	return st
}

func (s *Session) setState(state models.SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) setIndex(i int) {
	s.mu.Lock()
	s.index = i
	s.mu.Unlock()
}

func (s *Session) currentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) setPaused(paused bool) {
	if s.group != nil {
		s.group.setPaused(paused)
	} else {
		s.mu.Lock()
		s.paused = paused
		s.mu.Unlock()
	}
	s.engine.publish()
}

func (s *Session) isPaused() bool {
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()
	if paused {
		return true
	}
	return s.group != nil && s.group.isPaused()
}

func (s *Session) ownsURL(mediaID string) bool {
	return s.urlSet[mediaID]
}

// run drives the session to termination and routes every exit path through
// the same cleanup.
func (s *Session) run(ctx context.Context) {
	defer s.cleanup()

	var err error
	switch {
	case s.group == nil:
		err = s.runStandalone(ctx)
	case s.isOwner:
		err = s.runOwner(ctx)
	default:
		err = s.runWatcher(ctx)
	}

	switch {
	case err == nil:
		// A non-looping pass visited every photo once.
		if derr := s.engine.store.DeleteResumeIndex(s.playerID); derr != nil {
			log.Printf("slideshow: clearing resume index for %s: %v", s.playerID, derr)
		}
		s.engine.stopDevice(s.playerID, s.turnOffEnd)
		s.setState(models.SessionCompleted)
		log.Printf("slideshow: completed on %s; all photos were displayed once", s.playerID)
		s.engine.notify("Slideshow finished", fmt.Sprintf("Slideshow on %s completed: all photos displayed.", s.playerID), s.playerID)
	case errors.Is(err, errMaxRuntime):
		s.engine.stopDevice(s.playerID, s.turnOffEnd)
		s.setState(models.SessionCompleted)
	case errors.Is(err, context.Canceled), errors.Is(err, errGroupStopped):
		s.setState(models.SessionCancelled)
		log.Printf("slideshow: session on %s was cancelled", s.playerID)
	case player.Incompatible(err):
		// Abort without power-off: the player is on, it just cannot show photos.
		s.engine.stopDevice(s.playerID, false)
		s.setState(models.SessionFailed)
		log.Printf("slideshow: aborted on %s: incompatible player: %v", s.playerID, err)
		s.engine.notify("Slideshow aborted", fmt.Sprintf("Incompatible media player %s; slideshow aborted.", s.playerID), s.playerID)
	default:
		s.engine.stopDevice(s.playerID, s.turnOffEnd)
		s.setState(models.SessionFailed)
		log.Printf("slideshow: error on %s: %v", s.playerID, err)
		s.engine.notify("Slideshow error", fmt.Sprintf("Slideshow on %s failed: %v", s.playerID, err), s.playerID)
	}
}

// cleanup is the guaranteed exit path: registry removal, group departure.
// It runs regardless of how the session ended and is not interruptible.
func (s *Session) cleanup() {
	e := s.engine
	e.mu.Lock()
	if e.sessions[s.playerID] == s {
		delete(e.sessions, s.playerID)
	}
	e.mu.Unlock()

	if s.group != nil {
		if s.isOwner {
			e.teardownGroup(s.group)
		} else {
			s.group.leave(s.playerID)
		}
	}

	close(s.done)
	e.publish()
	log.Printf("slideshow: resources cleaned for %s", s.playerID)
}

func (s *Session) runStandalone(ctx context.Context) error {
	start := 0
	if s.resume && !s.shuffle {
		if idx, ok, err := s.engine.store.GetResumeIndex(s.playerID); err == nil && ok && idx > 0 && idx < len(s.urls) {
			start = idx
			log.Printf("slideshow: resumed on %s from photo #%d", s.playerID, idx+1)
		}
	}
	s.setIndex(start)

	for {
		idx := s.currentIndex()
		if idx >= len(s.urls) {
			if !s.loop {
				return nil
			}
			s.setIndex(0)
			idx = 0
		}

		if err := s.checkRuntime(); err != nil {
			return err
		}
		if !s.force {
			if err := s.waitWhileBusy(ctx, s.urls[idx]); err != nil {
				return err
			}
		}
		if err := s.waitWhilePaused(ctx); err != nil {
			return err
		}

		s.setState(models.SessionPlaying)
		if err := s.engine.act.ShowPhoto(ctx, s.playerID, s.urls[idx], s.interval); err != nil {
			return err
		}
		if err := s.engine.store.SetResumeIndex(s.playerID, idx); err != nil {
			log.Printf("slideshow: persisting resume index for %s: %v", s.playerID, err)
		}
		s.setIndex(idx + 1)
		s.engine.publish()
	}
}

// runOwner publishes the shared state once, then displays whatever the
// coordinator's tick points at, reporting ready after each display. The
// owner alone enforces the group's runtime ceiling.
func (s *Session) runOwner(ctx context.Context) error {
	start := 0
	if s.resume && !s.shuffle {
		if idx, ok, err := s.engine.store.GetResumeIndex(s.playerID); err == nil && ok && idx > 0 && idx < len(s.urls) {
			start = idx
		}
	}
	s.group.publish(s.urls, s.interval, s.maxRuntime, start)

	lastShown := -1
	for {
		if err := s.checkRuntime(); err != nil {
			return err
		}
		if err := s.waitWhilePaused(ctx); err != nil {
			return err
		}

		tick, url := s.group.currentTick()
		if url == "" {
			return nil
		}
		if tick == lastShown {
			s.setState(models.SessionWaiting)
			if err := sleepFor(ctx, s.engine.tickInterval); err != nil {
				return err
			}
			continue
		}

		if !s.force {
			if err := s.waitWhileBusy(ctx, url); err != nil {
				return err
			}
		}
		s.setState(models.SessionPlaying)
		if err := s.engine.act.ShowPhoto(ctx, s.playerID, url, s.interval); err != nil {
			return err
		}
		if err := s.engine.store.SetResumeIndex(s.playerID, tick); err != nil {
			log.Printf("slideshow: persisting resume index for %s: %v", s.playerID, err)
		}
		s.setIndex(tick)
		lastShown = tick
		s.group.markReady(s.playerID)
		s.engine.publish()
	}
}

// runWatcher follows the group's tick. A busy non-forced watcher skips the
// display but still reports ready so it cannot stall the whole group.
func (s *Session) runWatcher(ctx context.Context) error {
	if err := s.group.waitInitialized(ctx); err != nil {
		return err
	}
	urls, interval := s.group.shared()
	s.mu.Lock()
	s.urls = urls
	s.interval = interval
	s.urlSet = make(map[string]bool, len(urls))
	for _, u := range urls {
		s.urlSet[u] = true
	}
	s.mu.Unlock()

	lastShown := -1
	for {
		if s.group.isStopped() {
			return errGroupStopped
		}
		if err := s.waitWhilePaused(ctx); err != nil {
			return err
		}

		tick, url := s.group.currentTick()
		if url == "" || tick == lastShown {
			s.setState(models.SessionWaiting)
			if err := sleepFor(ctx, s.engine.tickInterval); err != nil {
				return err
			}
			continue
		}

		if s.force || !s.busyNow(ctx) {
			s.setState(models.SessionPlaying)
			if err := s.engine.act.ShowPhoto(ctx, s.playerID, url, interval); err != nil {
				return err
			}
			if err := s.engine.store.SetResumeIndex(s.playerID, tick); err != nil {
				log.Printf("slideshow: persisting resume index for %s: %v", s.playerID, err)
			}
			s.setIndex(tick)
		}
		lastShown = tick
		s.group.markReady(s.playerID)
		s.engine.publish()
	}
}

// checkRuntime enforces the wall-clock ceiling; 0 means unlimited.
func (s *Session) checkRuntime() error {
	if s.maxRuntime <= 0 {
		return nil
	}
	if elapsed := time.Since(s.startedAt); elapsed >= s.maxRuntime {
		log.Printf("slideshow: maximum runtime reached on %s (%s elapsed)", s.playerID, elapsed.Round(time.Second))
		return errMaxRuntime
	}
	return nil
}

// waitWhileBusy blocks until the player is no longer occupied by
// third-party media, polling at the engine's busy interval. It keeps
// honoring cancellation and the runtime ceiling while waiting.
func (s *Session) waitWhileBusy(ctx context.Context, next string) error {
	logged := false
	for {
		if !s.busyNow(ctx) {
			if logged {
				log.Printf("slideshow: %s is free again, resuming with %s", s.playerID, path.Base(next))
			}
			return nil
		}
		if !logged {
			log.Printf("slideshow: %s is busy with other media, checking every %s", s.playerID, s.engine.busyPoll)
			logged = true
		}
		s.setState(models.SessionWaiting)
		if err := s.checkRuntime(); err != nil {
			return err
		}
		if err := sleepFor(ctx, s.engine.busyPoll); err != nil {
			return err
		}
	}
}

// busyNow is a single busy probe. A failed state query counts as not busy:
// the display attempt itself will surface a real problem.
func (s *Session) busyNow(ctx context.Context) bool {
	st, err := s.engine.act.Controller().PlayerState(ctx, s.playerID)
	if err != nil {
		return false
	}
	return player.BusyWith(st, s.ownsURL)
}

func (s *Session) waitWhilePaused(ctx context.Context) error {
	for s.isPaused() {
		s.setState(models.SessionPaused)
		if err := s.checkRuntime(); err != nil {
			return err
		}
		if err := sleepFor(ctx, s.engine.pausePoll); err != nil {
			return err
		}
	}
	return nil
}

func sleepFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
