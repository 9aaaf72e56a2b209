package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"photocast/internal/models"
)

func TestListResume(t *testing.T) {
	srv, st, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/resume", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var entries []models.ResumeEntry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(entries))
	}

	if err := st.SetResumeIndex("media_player.a", 4); err != nil {
		t.Fatal(err)
	}
	if err := st.SetResumeIndex("media_player.b", 7); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/resume", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PlayerID != "media_player.a" || entries[0].LastIndex != 4 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
}

func TestResetResume(t *testing.T) {
	srv, st, _, _ := newTestServer(t)
	if err := st.SetResumeIndex("media_player.a", 4); err != nil {
		t.Fatal(err)
	}
	if err := st.SetResumeIndex("media_player.b", 7); err != nil {
		t.Fatal(err)
	}

	w := postJSON(t, srv, "/api/resume/reset", `{"player_id":"media_player.a"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok, _ := st.GetResumeIndex("media_player.a"); ok {
		t.Fatal("entry for media_player.a not deleted")
	}
	if _, ok, _ := st.GetResumeIndex("media_player.b"); !ok {
		t.Fatal("entry for media_player.b must survive")
	}

	// Empty player id clears everything.
	w = postJSON(t, srv, "/api/resume/reset", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, ok, _ := st.GetResumeIndex("media_player.b"); ok {
		t.Fatal("entries not cleared by empty reset")
	}
}
