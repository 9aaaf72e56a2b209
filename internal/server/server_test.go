package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"photocast/internal/player"
	"photocast/internal/slideshow"
	"photocast/internal/store"
)

// stubController records display commands and reports a cooperative player.
type stubController struct {
	mu       sync.Mutex
	byPlayer map[string][]string
	stateErr error
}

func newStubController() *stubController {
	return &stubController{byPlayer: make(map[string][]string)}
}

func (c *stubController) Display(ctx context.Context, playerID, url string) error {
	c.mu.Lock()
	c.byPlayer[playerID] = append(c.byPlayer[playerID], url)
	c.mu.Unlock()
	return nil
}

func (c *stubController) PlayerState(ctx context.Context, playerID string) (player.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stateErr != nil {
		return player.State{}, c.stateErr
	}
	return player.State{SupportsPlay: true, SupportsPowerOff: true}, nil
}

func (c *stubController) StopMedia(ctx context.Context, playerID string) error { return nil }
func (c *stubController) PowerOff(ctx context.Context, playerID string) error  { return nil }

func (c *stubController) displayed(playerID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.byPlayer[playerID]))
	copy(out, c.byPlayer[playerID])
	return out
}

func newTestServer(t *testing.T) (*Server, *store.Store, *slideshow.Engine, *stubController) {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, f, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(f), "..", "..", "migrations")
	if err := s.Migrate(dir); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctrl := newStubController()
	eng := slideshow.New(s, ctrl, slideshow.WithBaseURL("http://host:7980"))
	t.Cleanup(eng.Shutdown)

	return NewServer(s, eng), s, eng, ctrl
}

func photoFolder(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("jpegbytes"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHealth(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"status":"ok"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	eng := slideshow.New(s, newStubController())
	t.Cleanup(eng.Shutdown)
	srv := NewServer(s, eng, WithCORSOrigin("http://example.test"))

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.test" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}
}
