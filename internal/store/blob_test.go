package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dukerupert/mobilityquest/internal/database"
	"github.com/dukerupert/mobilityquest/internal/persist"
)

func setupBlobTestDB(t *testing.T) *BlobStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBlobStore(db)
}

func TestBlobGetMissing(t *testing.T) {
	s := setupBlobTestDB(t)

	_, err := s.Get(persist.KeyProfile)
	if !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBlobSetGetRemove(t *testing.T) {
	s := setupBlobTestDB(t)

	if err := s.Set(persist.KeyLastReset, []byte(`"2026-03-10"`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(persist.KeyLastReset)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `"2026-03-10"` {
		t.Errorf("value = %s, want %q", got, `"2026-03-10"`)
	}

	// Upsert
	if err := s.Set(persist.KeyLastReset, []byte(`"2026-03-11"`)); err != nil {
		t.Fatalf("set again: %v", err)
	}
	got, _ = s.Get(persist.KeyLastReset)
	if string(got) != `"2026-03-11"` {
		t.Errorf("value = %s after upsert", got)
	}

	if err := s.Remove(persist.KeyLastReset); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Get(persist.KeyLastReset); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("err after remove = %v, want ErrNotFound", err)
	}

	// Removing a missing key is fine
	if err := s.Remove("nope"); err != nil {
		t.Errorf("remove missing: %v", err)
	}
}

func TestBlobWorksThroughBlobs(t *testing.T) {
	s := setupBlobTestDB(t)
	b := persist.NewBlobs(s, nil, nil)

	b.Save(persist.KeyDailyCompletions, []string{"2026-03-09", "2026-03-10"})
	got := persist.Load(b, persist.KeyDailyCompletions, []string{})
	if len(got) != 2 || got[1] != "2026-03-10" {
		t.Errorf("dates = %v", got)
	}
}

func TestBlobAllAndReplaceAll(t *testing.T) {
	s := setupBlobTestDB(t)
	s.Set("a", []byte(`1`))
	s.Set("b", []byte(`{"x":true}`))

	all, err := s.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}

	err = s.ReplaceAll(map[string]json.RawMessage{"c": json.RawMessage(`"new"`)})
	if err != nil {
		t.Fatalf("replace all: %v", err)
	}
	all, _ = s.All()
	if len(all) != 1 || string(all["c"]) != `"new"` {
		t.Errorf("after replace = %v", all)
	}
}

func TestBlobReplaceAllRejectsInvalidJSON(t *testing.T) {
	s := setupBlobTestDB(t)
	s.Set("keep", []byte(`true`))

	err := s.ReplaceAll(map[string]json.RawMessage{"bad": json.RawMessage(`{oops`)})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, err := s.Get("keep"); err != nil {
		t.Errorf("existing blob lost after failed replace: %v", err)
	}
}

func TestBlobStoreSnapshotRoundTrip(t *testing.T) {
	s := setupBlobTestDB(t)
	s.Set(persist.KeyProfile, []byte(`{"level":4}`))
	s.Set(persist.KeyLastReset, []byte(`"2026-03-09"`))

	snap, err := persist.ReadAll(s)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}

	s.Set(persist.KeyCompletions, []byte(`[]`))
	if err := persist.ReplaceAll(s, snap); err != nil {
		t.Fatalf("replace all: %v", err)
	}
	if _, err := s.Get(persist.KeyCompletions); !errors.Is(err, persist.ErrNotFound) {
		t.Errorf("completions err = %v, want ErrNotFound", err)
	}
	if got, _ := s.Get(persist.KeyProfile); string(got) != `{"level":4}` {
		t.Errorf("profile = %s", got)
	}
}
