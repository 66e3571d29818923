package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreRecordAndList(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, outcome := range []string{"success", "failed", "success"} {
		err := store.Record(ctx, Entry{
			BuildID:  "build-" + string(rune('a'+i)),
			Target:   "main",
			Started:  base.Add(time.Duration(i) * time.Minute),
			Duration: 1500 * time.Millisecond,
			Outcome:  outcome,
			ExitCode: i,
			Archive:  "/out/main.tar.gz",
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].BuildID != "build-c" || entries[1].BuildID != "build-b" {
		t.Errorf("expected newest first, got %s then %s", entries[0].BuildID, entries[1].BuildID)
	}
	if entries[1].Outcome != "failed" || entries[1].ExitCode != 1 {
		t.Errorf("unexpected entry: %+v", entries[1])
	}
	if entries[0].Duration != 1500*time.Millisecond {
		t.Errorf("expected duration to round-trip, got %s", entries[0].Duration)
	}
	if !entries[0].Started.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("expected start time to round-trip, got %s", entries[0].Started)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 entries, got %d", len(all))
	}
}

func TestSQLiteStoreRejectsDuplicateBuildID(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	e := Entry{BuildID: "same", Target: "main", Started: time.Now(), Outcome: "success"}
	if err := store.Record(t.Context(), e); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := store.Record(t.Context(), e); err == nil {
		t.Fatal("expected duplicate build id to be rejected")
	}
}

func TestSQLiteStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Record(t.Context(), Entry{BuildID: "x", Target: "paper", Started: time.Now(), Outcome: "success"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	_ = store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	entries, err := reopened.List(t.Context(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Target != "paper" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
