package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWebViewer(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/web", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type: %q", ct)
	}
	if !strings.Contains(w.Body.String(), "/web/current") {
		t.Fatal("viewer page must poll /web/current")
	}
}

func TestWebCurrent(t *testing.T) {
	srv, _, _, ctrl := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/web/current", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("no session: expected 404, got %d", w.Code)
	}

	startSession(t, srv, photoFolder(t, "a.jpg"))
	waitFor(t, "first display", func() bool { return len(ctrl.displayed("media_player.tv")) > 0 })

	var cur map[string]string
	waitFor(t, "current photo", func() bool {
		req = httptest.NewRequest(http.MethodGet, "/web/current", nil)
		w = httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		return w.Code == http.StatusOK
	})
	if err := json.NewDecoder(w.Body).Decode(&cur); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(cur["url"], "/photos/media_player.tv/") {
		t.Fatalf("unexpected current url: %q", cur["url"])
	}
}

func TestWebShowStartStop(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	folder := photoFolder(t, "a.jpg")

	w := postJSON(t, srv, "/api/web/start", fmt.Sprintf(`{"folder": %q, "interval": 1, "loop": true}`, folder))
	if w.Code != http.StatusAccepted {
		t.Fatalf("start: expected 202, got %d: %s", w.Code, w.Body.String())
	}

	w = getPath(srv, "/web/current")
	if w.Code != http.StatusOK {
		t.Fatalf("current: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cur map[string]string
	if err := json.NewDecoder(w.Body).Decode(&cur); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cur["url"] != "/web/photos/a.jpg" {
		t.Fatalf("unexpected current url: %q", cur["url"])
	}

	w = getPath(srv, "/web/photos/a.jpg")
	if w.Code != http.StatusOK {
		t.Fatalf("photo: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "jpegbytes" {
		t.Fatalf("unexpected body: %q", got)
	}

	w = postJSON(t, srv, "/api/web/stop", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w = getPath(srv, "/web/current"); w.Code != http.StatusNotFound {
		t.Fatalf("after stop: expected 404, got %d", w.Code)
	}
	if w = getPath(srv, "/web/photos/a.jpg"); w.Code != http.StatusNotFound {
		t.Fatalf("after stop: expected 404, got %d", w.Code)
	}
}

func TestWebShowStartBadFolder(t *testing.T) {
	srv, _, _, _ := newTestServer(t)

	w := postJSON(t, srv, "/api/web/start", fmt.Sprintf(`{"folder": %q}`, filepath.Join(t.TempDir(), "nope")))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestWebShowFileTraversalRejected(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	folder := photoFolder(t, "a.jpg")
	if err := os.WriteFile(filepath.Join(filepath.Dir(folder), "secret.jpg"), []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := postJSON(t, srv, "/api/web/start", fmt.Sprintf(`{"folder": %q, "interval": 1, "loop": true}`, folder))
	if w.Code != http.StatusAccepted {
		t.Fatalf("start: expected 202, got %d: %s", w.Code, w.Body.String())
	}

	w = getPath(srv, "/web/photos/../secret.jpg")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	w = getPath(srv, "/web/photos/%2e%2e/secret.jpg")
	if w.Code != http.StatusForbidden {
		t.Fatalf("escaped traversal: expected 403, got %d: %s", w.Code, w.Body.String())
	}
}
