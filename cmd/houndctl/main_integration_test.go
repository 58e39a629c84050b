//go:build sqlite

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"houndsim/internal/stats"
)

func TestRunCommandSQLitePersistsAndShows(t *testing.T) {
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	workdir := t.TempDir()
	if err := os.Chdir(workdir); err != nil {
		t.Fatalf("chdir tempdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origWD)
	})

	dbFile := filepath.Join(workdir, "houndsim.db")
	args := []string{
		"run",
		"--store", "sqlite",
		"--db-path", dbFile,
		"--run-id", "sqlite-run",
		"--probs", "0.5,0.9",
		"--trials", "1000",
		"--seed", "11",
		"--workers", "2",
		"--progress-interval", "250",
	}
	if err := run(context.Background(), args); err != nil {
		t.Fatalf("run command: %v", err)
	}

	if _, err := os.Stat(dbFile); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbFile, err)
	}

	entries, err := stats.ListRunIndex(runsDir)
	if err != nil {
		t.Fatalf("list run index: %v", err)
	}
	if len(entries) != 1 || entries[0].RunID != "sqlite-run" {
		t.Fatalf("expected indexed run sqlite-run, got %+v", entries)
	}

	// A fresh CLI invocation reads the record back from the same database.
	if err := run(context.Background(), []string{
		"show", "--store", "sqlite", "--db-path", dbFile, "--run-id", "sqlite-run",
	}); err != nil {
		t.Fatalf("show command: %v", err)
	}
	if err := run(context.Background(), []string{
		"show", "--store", "sqlite", "--db-path", dbFile, "--latest", "--json",
	}); err != nil {
		t.Fatalf("show latest command: %v", err)
	}

	if err := run(context.Background(), []string{"export", "--run-id", "sqlite-run"}); err != nil {
		t.Fatalf("export command: %v", err)
	}
	for _, file := range []string{"config.json", "results.json", "progress.csv"} {
		path := filepath.Join(exportsDir, "sqlite-run", file)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected exported file %s: %v", path, err)
		}
	}
}
