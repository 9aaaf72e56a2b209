package store

import (
	"testing"
)

func TestResumeIndexRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.GetResumeIndex("media_player.frame"); err != nil || ok {
		t.Fatalf("expected no entry, got ok=%v err=%v", ok, err)
	}

	if err := s.SetResumeIndex("media_player.frame", 7); err != nil {
		t.Fatal(err)
	}
	idx, ok, err := s.GetResumeIndex("media_player.frame")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || idx != 7 {
		t.Fatalf("expected index 7, got ok=%v idx=%d", ok, idx)
	}
}

func TestResumeIndexOverwrite(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetResumeIndex("media_player.frame", 3); err != nil {
		t.Fatal(err)
	}
	if err := s.SetResumeIndex("media_player.frame", 12); err != nil {
		t.Fatal(err)
	}

	idx, ok, err := s.GetResumeIndex("media_player.frame")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || idx != 12 {
		t.Fatalf("expected last write to win with 12, got ok=%v idx=%d", ok, idx)
	}
}

func TestDeleteResumeIndex(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetResumeIndex("media_player.frame", 4); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteResumeIndex("media_player.frame"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.GetResumeIndex("media_player.frame"); ok {
		t.Fatal("expected entry to be gone after delete")
	}

	// Deleting a missing entry is not an error.
	if err := s.DeleteResumeIndex("media_player.frame"); err != nil {
		t.Fatal(err)
	}
}

func TestClearResumeIndexes(t *testing.T) {
	s := newTestStore(t)

	for i, id := range []string{"media_player.a", "media_player.b", "media_player.c"} {
		if err := s.SetResumeIndex(id, i); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.ClearResumeIndexes(); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListResumeIndexes()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty table, got %d entries", len(entries))
	}
}

func TestListResumeIndexes(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetResumeIndex("media_player.b", 2); err != nil {
		t.Fatal(err)
	}
	if err := s.SetResumeIndex("media_player.a", 1); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListResumeIndexes()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PlayerID != "media_player.a" || entries[0].LastIndex != 1 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].PlayerID != "media_player.b" || entries[1].LastIndex != 2 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if entries[0].UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be set")
	}
}
