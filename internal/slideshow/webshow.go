package slideshow

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"photocast/internal/models"
	"photocast/internal/photos"
)

const defaultWebInterval = 5 * time.Second

// webShow is the browser slideshow: its own photo list and advance loop,
// fully independent of any cast session. The browser polls the current
// index; nothing is pushed to a device.
type webShow struct {
	folder   string
	paths    []string
	interval time.Duration
	loop     bool

	mu    sync.Mutex
	index int

	cancel context.CancelFunc
	done   chan struct{}
}

// current returns the relative path on display. After a non-looping pass
// finishes the last photo stays up, matching a picture frame going idle.
func (ws *webShow) current() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if len(ws.paths) == 0 {
		return ""
	}
	if ws.index >= len(ws.paths) {
		return ws.paths[len(ws.paths)-1]
	}
	return ws.paths[ws.index]
}

func (ws *webShow) run(ctx context.Context, e *Engine) {
	defer close(ws.done)
	for {
		ws.mu.Lock()
		idx := ws.index
		ws.mu.Unlock()

		if idx >= len(ws.paths) {
			if !ws.loop {
				log.Printf("slideshow: web slideshow finished, all photos were displayed")
				e.notify("Web slideshow finished", "Web slideshow finished: all photos displayed.", "")
				return
			}
			ws.mu.Lock()
			ws.index = 0
			ws.mu.Unlock()
		}

		if err := sleepFor(ctx, ws.interval); err != nil {
			return
		}
		ws.mu.Lock()
		ws.index++
		ws.mu.Unlock()
	}
}

// StartWebShow collects photos and replaces any running web slideshow.
// With AutoRestart set, a watchdog revives the show whenever its loop ends
// on its own.
func (e *Engine) StartWebShow(ctx context.Context, req models.WebShowRequest) error {
	if !req.SortOrder.Valid() {
		return fmt.Errorf("invalid sort order %q", req.SortOrder)
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

	interval := time.Duration(req.Interval) * time.Second
	if interval <= 0 {
		interval = defaultWebInterval
	}

	ws := &webShow{
		folder:   req.Folder,
		paths:    list,
		interval: interval,
		loop:     req.Loop,
		done:     make(chan struct{}),
	}
	runCtx, cancel := context.WithCancel(context.Background())
	ws.cancel = cancel

	e.webMu.Lock()
	if old := e.web; old != nil {
		log.Printf("slideshow: previous web slideshow is being cancelled")
		old.cancel()
		<-old.done
	}
	e.web = ws
	e.webReq = req
	if req.AutoRestart && e.webWatchCancel == nil {
		watchCtx, watchCancel := context.WithCancel(context.Background())
		e.webWatchCancel = watchCancel
		e.webWatchDone = make(chan struct{})
		go e.runWebWatchdog(watchCtx, e.webWatchDone)
	}
	e.webMu.Unlock()

	go ws.run(runCtx, e)

	log.Printf("slideshow: web slideshow started (%d photos, interval=%s, shuffle=%v, loop=%v, auto_restart=%v)",
		len(list), interval, req.Shuffle, req.Loop, req.AutoRestart)
	e.notify("Web slideshow", "Your slideshow is available at: "+strings.TrimRight(e.baseURL, "/")+"/web", "")
	return nil
}

// StopWebShow ends the web slideshow and its watchdog. Safe to call when
// nothing is running.
func (e *Engine) StopWebShow() {
	e.webMu.Lock()
	ws := e.web
	watchCancel := e.webWatchCancel
	watchDone := e.webWatchDone
	e.web = nil
	e.webWatchCancel = nil
	e.webWatchDone = nil
	e.webMu.Unlock()

	// Await outside the lock: the watchdog takes it when restarting.
	if watchCancel != nil {
		watchCancel()
		<-watchDone
	}
	if ws != nil {
		ws.cancel()
		<-ws.done
		log.Printf("slideshow: web slideshow stopped by user")
	}
}

// WebCurrent returns the relative URL of the photo the web slideshow is
// showing. False when no web slideshow has been started.
func (e *Engine) WebCurrent() (string, bool) {
	e.webMu.Lock()
	ws := e.web
	e.webMu.Unlock()
	if ws == nil {
		return "", false
	}
	p := ws.current()
	if p == "" {
		return "", false
	}
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return "/web/photos/" + strings.Join(segs, "/"), true
}

// WebFolder returns the folder the web slideshow serves from.
func (e *Engine) WebFolder() (string, bool) {
	e.webMu.Lock()
	defer e.webMu.Unlock()
	if e.web == nil {
		return "", false
	}
	return e.web.folder, true
}

// runWebWatchdog revives a naturally-finished web slideshow with the last
// start parameters. A user stop cancels the watchdog along with the show.
func (e *Engine) runWebWatchdog(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.webWatchPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.webMu.Lock()
			ws := e.web
			req := e.webReq
			e.webMu.Unlock()
			if ws == nil {
				continue
			}
			select {
			case <-ws.done:
			default:
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Printf("slideshow: web slideshow not running, restarting automatically")
			if err := e.StartWebShow(context.Background(), req); err != nil {
				log.Printf("slideshow: web slideshow restart failed: %v", err)
			}
		}
	}
}
