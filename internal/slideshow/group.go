package slideshow

import (
	"context"
	"sync"
	"time"
)

// Group is the shared state for a named set of sessions displaying the same
// photo index in lock-step. Exactly one member (the owner) publishes the
// URL list, interval and runtime ceiling; the coordinator goroutine owns
// tick advancement. All fields are guarded by mu; cross-goroutine access
// goes through the accessors below.
type Group struct {
	name  string
	owner string

	mu          sync.Mutex
	urls        []string
	interval    time.Duration
	maxRuntime  time.Duration
	tick        int
	advancedAt  time.Time
	members     map[string]bool
	ready       map[string]bool
	paused      bool
	stopped     bool
	initialized bool

	initCh    chan struct{}
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

func newGroup(name, owner string) *Group {
	return &Group{
		name:    name,
		owner:   owner,
		members: map[string]bool{owner: true},
		ready:   make(map[string]bool),
		initCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// publish installs the owner's shared state and unblocks waiting watchers.
func (g *Group) publish(urls []string, interval, maxRuntime time.Duration, startTick int) {
	g.mu.Lock()
	g.urls = urls
	g.interval = interval
	g.maxRuntime = maxRuntime
	g.tick = startTick
	g.startedAt = time.Now()
	g.initialized = true
	g.mu.Unlock()
	close(g.initCh)
}

// waitInitialized blocks until the owner has published the shared state.
func (g *Group) waitInitialized(ctx context.Context) error {
	select {
	case <-g.initCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Group) shared() (urls []string, interval time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.urls, g.interval
}

func (g *Group) join(playerID string) {
	g.mu.Lock()
	g.members[playerID] = true
	g.mu.Unlock()
}

// leave drops a non-owner member from the membership and ready sets.
func (g *Group) leave(playerID string) {
	g.mu.Lock()
	delete(g.members, playerID)
	delete(g.ready, playerID)
	g.mu.Unlock()
}

func (g *Group) memberIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, len(g.members))
	for id := range g.members {
		ids = append(ids, id)
	}
	return ids
}

func (g *Group) markReady(playerID string) {
	g.mu.Lock()
	if g.members[playerID] {
		g.ready[playerID] = true
	}
	g.mu.Unlock()
}

func (g *Group) currentTick() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.urls) == 0 {
		return 0, ""
	}
	return g.tick, g.urls[g.tick]
}

func (g *Group) setPaused(paused bool) {
	g.mu.Lock()
	g.paused = paused
	g.mu.Unlock()
}

func (g *Group) isPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

func (g *Group) setStopped() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()
}

func (g *Group) isStopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

// advanceIfReady moves the tick forward one step when every current member
// has reported ready, clearing the ready set. Reports whether it advanced.
func (g *Group) advanceIfReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused || g.stopped || len(g.members) == 0 || len(g.urls) == 0 {
		return false
	}
	for id := range g.members {
		if !g.ready[id] {
			return false
		}
	}
	g.tick = (g.tick + 1) % len(g.urls)
	g.ready = make(map[string]bool)
	g.advancedAt = time.Now()
	return true
}

// runCoordinator is the background tick-advance task, one per group. It
// polls at a short fixed interval until cancelled.
func (g *Group) runCoordinator(ctx context.Context, tickInterval time.Duration) {
	defer close(g.done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.advanceIfReady()
		}
	}
}
