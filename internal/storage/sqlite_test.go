//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "houndsim.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer store.Close()

	want := sampleRun("run-sqlite", "2026-08-23T10:00:00Z")
	if err := store.SaveRun(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-sqlite")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatalf("expected run to exist")
	}
	if got.Counts != want.Counts || got.NumTrials != want.NumTrials {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	_, ok, err = store.GetRun(ctx, "absent")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if ok {
		t.Fatalf("expected missing run")
	}
}

func TestSQLiteStoreUpsertAndList(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "houndsim.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer store.Close()

	first := sampleRun("run-a", "2026-08-21T10:00:00Z")
	if err := store.SaveRun(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := sampleRun("run-b", "2026-08-22T10:00:00Z")
	if err := store.SaveRun(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	updated := first
	updated.Counts.Majority = 999
	if err := store.SaveRun(ctx, updated); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get after upsert: ok=%t err=%v", ok, err)
	}
	if got.Counts.Majority != 999 {
		t.Fatalf("expected upserted majority count 999, got %d", got.Counts.Majority)
	}

	ids, err := store.ListRunIDs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 2 || ids[0] != "run-b" || ids[1] != "run-a" {
		t.Fatalf("expected [run-b run-a], got %v", ids)
	}
}

func TestSQLiteStoreReset(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "houndsim.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer store.Close()

	if err := store.SaveRun(ctx, sampleRun("run-a", "2026-08-23T10:00:00Z")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	ids, err := store.ListRunIDs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty store after reset, got %v", ids)
	}
}
