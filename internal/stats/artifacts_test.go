package stats

import (
	"os"
	"path/filepath"
	"testing"

	"houndsim/internal/model"
	"houndsim/internal/sim"
)

func sampleArtifacts(runID, createdAt string) RunArtifacts {
	return RunArtifacts{
		Config: RunConfig{
			RunID:            runID,
			NumPaths:         2,
			NumDogs:          2,
			NumTrials:        1000,
			Seed:             7,
			Workers:          4,
			ProgressInterval: 250,
			Tolerance:        0.005,
			Accuracies:       []float64{0.5, 0.9},
		},
		Results: RunResults{
			RunID:            runID,
			Counts:           model.StrategyCounts{Majority: 700, BestDog: 903, Random: 498},
			MajorityAccuracy: 0.700,
			BestDogAccuracy:  0.903,
			RandomAccuracy:   0.498,
			Tolerance:        0.005,
			CreatedAtUTC:     createdAt,
		},
		Progress: []sim.Checkpoint{
			{Trials: 250, MajorityAccuracy: 0.692, BestDogAccuracy: 0.9, RandomAccuracy: 0.504},
			{Trials: 500, MajorityAccuracy: 0.698, BestDogAccuracy: 0.902, RandomAccuracy: 0.5},
			{Trials: 750, MajorityAccuracy: 0.701, BestDogAccuracy: 0.904, RandomAccuracy: 0.497},
			{Trials: 1000, MajorityAccuracy: 0.7, BestDogAccuracy: 0.903, RandomAccuracy: 0.498},
		},
	}
}

func indexEntryFor(artifacts RunArtifacts) RunIndexEntry {
	return RunIndexEntry{
		RunID:            artifacts.Config.RunID,
		NumPaths:         artifacts.Config.NumPaths,
		NumDogs:          artifacts.Config.NumDogs,
		NumTrials:        artifacts.Config.NumTrials,
		Seed:             artifacts.Config.Seed,
		Workers:          artifacts.Config.Workers,
		MajorityAccuracy: artifacts.Results.MajorityAccuracy,
		BestDogAccuracy:  artifacts.Results.BestDogAccuracy,
		RandomAccuracy:   artifacts.Results.RandomAccuracy,
		CreatedAtUTC:     artifacts.Results.CreatedAtUTC,
	}
}

func TestWriteRunArtifactsAndReadBack(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := sampleArtifacts("run-a", "2026-08-23T10:00:00Z")

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if runDir != filepath.Join(baseDir, "run-a") {
		t.Fatalf("unexpected run dir %s", runDir)
	}

	for _, file := range []string{"config.json", "results.json", "progress.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected %s: %v", file, err)
		}
	}

	cfg, ok, err := ReadRunConfig(baseDir, "run-a")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.NumTrials != 1000 || cfg.Seed != 7 || len(cfg.Accuracies) != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	results, ok, err := ReadRunResults(baseDir, "run-a")
	if err != nil || !ok {
		t.Fatalf("read results: ok=%t err=%v", ok, err)
	}
	if results.Counts != artifacts.Results.Counts {
		t.Fatalf("expected counts %+v, got %+v", artifacts.Results.Counts, results.Counts)
	}

	progress, ok, err := ReadProgressSeries(baseDir, "run-a")
	if err != nil || !ok {
		t.Fatalf("read progress: ok=%t err=%v", ok, err)
	}
	if len(progress) != len(artifacts.Progress) {
		t.Fatalf("expected %d checkpoints, got %d", len(artifacts.Progress), len(progress))
	}
	for i := range progress {
		if progress[i] != artifacts.Progress[i] {
			t.Fatalf("checkpoint %d: expected %+v, got %+v", i, artifacts.Progress[i], progress[i])
		}
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	artifacts := sampleArtifacts("", "2026-08-23T10:00:00Z")
	if _, err := WriteRunArtifacts(t.TempDir(), artifacts); err == nil {
		t.Fatalf("expected error for missing run id")
	}
}

func TestReadRunResultsMissing(t *testing.T) {
	_, ok, err := ReadRunResults(t.TempDir(), "absent")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ok {
		t.Fatalf("expected missing results")
	}
}

func TestRunIndexNewestFirst(t *testing.T) {
	baseDir := t.TempDir()

	old := sampleArtifacts("run-old", "2026-08-21T10:00:00Z")
	newer := sampleArtifacts("run-new", "2026-08-23T10:00:00Z")
	mid := sampleArtifacts("run-mid", "2026-08-22T10:00:00Z")
	for _, artifacts := range []RunArtifacts{old, newer, mid} {
		if err := AppendRunIndex(baseDir, indexEntryFor(artifacts)); err != nil {
			t.Fatalf("append %s: %v", artifacts.Config.RunID, err)
		}
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"run-new", "run-mid", "run-old"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i].RunID != want[i] {
			t.Fatalf("expected order %v, got %+v", want, entries)
		}
	}
}

func TestRunIndexReplacesExistingEntry(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := sampleArtifacts("run-a", "2026-08-23T10:00:00Z")
	if err := AppendRunIndex(baseDir, indexEntryFor(artifacts)); err != nil {
		t.Fatalf("append: %v", err)
	}

	updated := indexEntryFor(artifacts)
	updated.MajorityAccuracy = 0.71
	if err := AppendRunIndex(baseDir, updated); err != nil {
		t.Fatalf("append update: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].MajorityAccuracy != 0.71 {
		t.Fatalf("expected updated entry, got %+v", entries[0])
	}
}

func TestRunIndexEmptyWhenMissing(t *testing.T) {
	entries, err := ListRunIndex(t.TempDir())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index, got %v", entries)
	}
}

func TestExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := t.TempDir()
	artifacts := sampleArtifacts("run-a", "2026-08-23T10:00:00Z")
	if _, err := WriteRunArtifacts(baseDir, artifacts); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	dst, err := ExportRunArtifacts(baseDir, "run-a", outDir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if dst != filepath.Join(outDir, "run-a") {
		t.Fatalf("unexpected export dir %s", dst)
	}

	for _, file := range []string{"config.json", "results.json", "progress.csv"} {
		src, err := os.ReadFile(filepath.Join(baseDir, "run-a", file))
		if err != nil {
			t.Fatalf("read source %s: %v", file, err)
		}
		copied, err := os.ReadFile(filepath.Join(dst, file))
		if err != nil {
			t.Fatalf("read export %s: %v", file, err)
		}
		if string(src) != string(copied) {
			t.Fatalf("export of %s differs from source", file)
		}
	}
}

func TestExportRunArtifactsMissingRun(t *testing.T) {
	if _, err := ExportRunArtifacts(t.TempDir(), "absent", t.TempDir()); err == nil {
		t.Fatalf("expected error for missing run")
	}
}

func TestProgressSeriesEmptyRun(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := sampleArtifacts("run-a", "2026-08-23T10:00:00Z")
	artifacts.Progress = nil
	if _, err := WriteRunArtifacts(baseDir, artifacts); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	progress, ok, err := ReadProgressSeries(baseDir, "run-a")
	if err != nil || !ok {
		t.Fatalf("read progress: ok=%t err=%v", ok, err)
	}
	if len(progress) != 0 {
		t.Fatalf("expected empty series, got %v", progress)
	}
}
