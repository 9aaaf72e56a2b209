package slideshow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"photocast/internal/models"
)

func TestWebShowCurrentAndStop(t *testing.T) {
	e, _, _ := newTestEngine(t, newFakeController())
	folder := photoFolder(t, "a.jpg")

	require.NoError(t, e.StartWebShow(context.Background(), models.WebShowRequest{
		Folder: folder, Interval: 1, Loop: true,
	}))

	url, ok := e.WebCurrent()
	require.True(t, ok)
	require.Equal(t, "/web/photos/a.jpg", url)

	got, ok := e.WebFolder()
	require.True(t, ok)
	require.Equal(t, folder, got)

	e.StopWebShow()
	_, ok = e.WebCurrent()
	require.False(t, ok, "stopped web slideshow must report no current photo")
	_, ok = e.WebFolder()
	require.False(t, ok)
}

func TestWebShowStartErrors(t *testing.T) {
	e, _, _ := newTestEngine(t, newFakeController())

	err := e.StartWebShow(context.Background(), models.WebShowRequest{
		Folder: filepath.Join(t.TempDir(), "nope"),
	})
	require.ErrorIs(t, err, models.ErrNotADirectory)

	err = e.StartWebShow(context.Background(), models.WebShowRequest{Folder: t.TempDir()})
	require.ErrorIs(t, err, models.ErrNoPhotos)
}

func TestWebShowEscapesCurrentURL(t *testing.T) {
	e, _, _ := newTestEngine(t, newFakeController())
	folder := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(folder, "summer trip"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "summer trip", "day 1.jpg"), []byte("x"), 0o644))

	require.NoError(t, e.StartWebShow(context.Background(), models.WebShowRequest{
		Folder: folder, Interval: 1, Recursive: true, Loop: true,
	}))

	url, ok := e.WebCurrent()
	require.True(t, ok)
	require.Equal(t, "/web/photos/summer%20trip/day%201.jpg", url)
}

func TestWebShowAdvancesAndWraps(t *testing.T) {
	e, _, _ := newTestEngine(t, newFakeController())
	ws := &webShow{
		paths:    []string{"a.jpg", "b.jpg"},
		interval: 2 * time.Millisecond,
		loop:     true,
		done:     make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	ws.cancel = cancel
	go ws.run(ctx, e)

	seen := map[string]bool{}
	waitFor(t, "both photos to cycle through", func() bool {
		seen[ws.current()] = true
		return seen["a.jpg"] && seen["b.jpg"]
	})

	cancel()
	<-ws.done
}

func TestWebShowCompletionNotifies(t *testing.T) {
	e, _, fn := newTestEngine(t, newFakeController())
	ws := &webShow{
		paths:    []string{"a.jpg", "b.jpg"},
		interval: 2 * time.Millisecond,
		done:     make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	ws.cancel = cancel
	go ws.run(ctx, e)

	select {
	case <-ws.done:
	case <-time.After(5 * time.Second):
		t.Fatal("non-looping web slideshow never finished")
	}

	// The last photo stays up after the pass completes.
	require.Equal(t, "b.jpg", ws.current())
	waitFor(t, "completion notification", func() bool {
		for _, title := range fn.titles() {
			if title == "Web slideshow finished" {
				return true
			}
		}
		return false
	})
}

func TestWebShowAutoRestart(t *testing.T) {
	e, _, _ := newTestEngine(t, newFakeController())
	e.webWatchPoll = 5 * time.Millisecond
	folder := photoFolder(t, "a.jpg")

	require.NoError(t, e.StartWebShow(context.Background(), models.WebShowRequest{
		Folder: folder, Interval: 1, Loop: true, AutoRestart: true,
	}))

	e.webMu.Lock()
	old := e.web
	e.webMu.Unlock()
	require.NotNil(t, old)

	// Kill the loop out from under the watchdog; it must bring a fresh
	// show up with the saved parameters.
	old.cancel()
	<-old.done

	waitFor(t, "watchdog restart", func() bool {
		e.webMu.Lock()
		defer e.webMu.Unlock()
		return e.web != nil && e.web != old
	})

	url, ok := e.WebCurrent()
	require.True(t, ok)
	require.Equal(t, "/web/photos/a.jpg", url)

	// A user stop ends both the show and the watchdog for good.
	e.StopWebShow()
	time.Sleep(30 * time.Millisecond)
	_, ok = e.WebCurrent()
	require.False(t, ok, "watchdog must not revive a user-stopped slideshow")
}
