package houndsim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"houndsim/internal/model"
	"houndsim/internal/pack"
	"houndsim/internal/sim"
	"houndsim/internal/stats"
	"houndsim/internal/storage"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "houndsim.db"

	defaultNumPaths  = 2
	defaultNumTrials = 100000
	defaultWorkers   = 4
	defaultTolerance = 0.005
)

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string
}

// Client wraps the store, the simulation engine and the artifacts layer
// behind a single entry point used by the CLI.
type Client struct {
	store       storage.Store
	initialized bool

	runsDir    string
	exportsDir string
}

type RunRequest struct {
	RunID            string
	Probabilities    []float64
	NumPaths         int
	NumTrials        int
	Seed             int64
	Workers          int
	ProgressInterval int
	Tolerance        float64
}

type RunSummary struct {
	RunID                     string
	ArtifactsDir              string
	NumPaths                  int
	NumDogs                   int
	NumTrials                 int
	Seed                      int64
	Workers                   int
	Counts                    model.StrategyCounts
	MajorityAccuracy          float64
	BestDogAccuracy           float64
	RandomAccuracy            float64
	Tolerance                 float64
	EquivalentWithinTolerance bool
	Progress                  []sim.Checkpoint
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	NumPaths         int
	NumDogs          int
	NumTrials        int
	Seed             int64
	Workers          int
	MajorityAccuracy float64
	BestDogAccuracy  float64
	RandomAccuracy   float64
}

type ShowRequest struct {
	RunID  string
	Latest bool
}

type ShowSummary struct {
	RunID                     string
	CreatedAtUTC              string
	NumPaths                  int
	NumDogs                   int
	NumTrials                 int
	Seed                      int64
	Workers                   int
	Accuracies                []float64
	Counts                    model.StrategyCounts
	MajorityAccuracy          float64
	BestDogAccuracy           float64
	RandomAccuracy            float64
	Tolerance                 float64
	EquivalentWithinTolerance bool
	Progress                  []sim.Checkpoint
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		runsDir:    runsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

func (c *Client) Reset(ctx context.Context) error {
	if err := c.ensureStore(ctx); err != nil {
		return err
	}
	return c.store.Reset(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.NumPaths <= 0 {
		req.NumPaths = defaultNumPaths
	}
	if req.NumTrials <= 0 {
		req.NumTrials = defaultNumTrials
	}
	if req.Workers <= 0 {
		req.Workers = defaultWorkers
	}
	if req.Tolerance <= 0 {
		req.Tolerance = defaultTolerance
	}
	if req.ProgressInterval < 0 {
		return RunSummary{}, errors.New("progress interval must be >= 0")
	}

	dogs, err := pack.Build(req.Probabilities, req.NumPaths)
	if err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	engine := sim.New()
	result, err := engine.Run(ctx, sim.Config{
		Dogs:             dogs,
		NumPaths:         req.NumPaths,
		NumTrials:        req.NumTrials,
		Seed:             req.Seed,
		Workers:          req.Workers,
		ProgressInterval: req.ProgressInterval,
	})
	if err != nil {
		return RunSummary{}, err
	}

	trials := float64(req.NumTrials)
	majorityAccuracy := float64(result.Counts.Majority) / trials
	bestDogAccuracy := float64(result.Counts.BestDog) / trials
	randomAccuracy := float64(result.Counts.Random) / trials
	equivalent := math.Abs(bestDogAccuracy-majorityAccuracy) <= req.Tolerance

	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	accuracies := append([]float64(nil), req.Probabilities...)

	record := model.RunRecord{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:           runID,
		NumPaths:     req.NumPaths,
		NumDogs:      len(dogs),
		NumTrials:    req.NumTrials,
		Seed:         req.Seed,
		Workers:      req.Workers,
		Accuracies:   accuracies,
		Counts:       result.Counts,
		CreatedAtUTC: createdAt,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.runsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:            runID,
			NumPaths:         req.NumPaths,
			NumDogs:          len(dogs),
			NumTrials:        req.NumTrials,
			Seed:             req.Seed,
			Workers:          req.Workers,
			ProgressInterval: req.ProgressInterval,
			Tolerance:        req.Tolerance,
			Accuracies:       accuracies,
		},
		Results: stats.RunResults{
			RunID:                     runID,
			Counts:                    result.Counts,
			MajorityAccuracy:          majorityAccuracy,
			BestDogAccuracy:           bestDogAccuracy,
			RandomAccuracy:            randomAccuracy,
			Tolerance:                 req.Tolerance,
			EquivalentWithinTolerance: equivalent,
			CreatedAtUTC:              createdAt,
		},
		Progress: result.Progress,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.runsDir, stats.RunIndexEntry{
		RunID:            runID,
		NumPaths:         req.NumPaths,
		NumDogs:          len(dogs),
		NumTrials:        req.NumTrials,
		Seed:             req.Seed,
		Workers:          req.Workers,
		MajorityAccuracy: majorityAccuracy,
		BestDogAccuracy:  bestDogAccuracy,
		RandomAccuracy:   randomAccuracy,
		CreatedAtUTC:     createdAt,
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:                     runID,
		ArtifactsDir:              filepath.Clean(runDir),
		NumPaths:                  req.NumPaths,
		NumDogs:                   len(dogs),
		NumTrials:                 req.NumTrials,
		Seed:                      req.Seed,
		Workers:                   req.Workers,
		Counts:                    result.Counts,
		MajorityAccuracy:          majorityAccuracy,
		BestDogAccuracy:           bestDogAccuracy,
		RandomAccuracy:            randomAccuracy,
		Tolerance:                 req.Tolerance,
		EquivalentWithinTolerance: equivalent,
		Progress:                  result.Progress,
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			NumPaths:         e.NumPaths,
			NumDogs:          e.NumDogs,
			NumTrials:        e.NumTrials,
			Seed:             e.Seed,
			Workers:          e.Workers,
			MajorityAccuracy: e.MajorityAccuracy,
			BestDogAccuracy:  e.BestDogAccuracy,
			RandomAccuracy:   e.RandomAccuracy,
		})
	}
	return out, nil
}

func (c *Client) Show(ctx context.Context, req ShowRequest) (ShowSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ShowSummary{}, err
	}

	if err := c.ensureStore(ctx); err != nil {
		return ShowSummary{}, err
	}
	record, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ShowSummary{}, err
	}
	if !ok {
		return ShowSummary{}, fmt.Errorf("run not found: %s", runID)
	}

	summary := ShowSummary{
		RunID:            record.ID,
		CreatedAtUTC:     record.CreatedAtUTC,
		NumPaths:         record.NumPaths,
		NumDogs:          record.NumDogs,
		NumTrials:        record.NumTrials,
		Seed:             record.Seed,
		Workers:          record.Workers,
		Accuracies:       append([]float64(nil), record.Accuracies...),
		Counts:           record.Counts,
		MajorityAccuracy: ratio(record.Counts.Majority, record.NumTrials),
		BestDogAccuracy:  ratio(record.Counts.BestDog, record.NumTrials),
		RandomAccuracy:   ratio(record.Counts.Random, record.NumTrials),
	}

	results, ok, err := stats.ReadRunResults(c.runsDir, runID)
	if err != nil {
		return ShowSummary{}, err
	}
	if ok {
		summary.Tolerance = results.Tolerance
		summary.EquivalentWithinTolerance = results.EquivalentWithinTolerance
	}

	progress, ok, err := stats.ReadProgressSeries(c.runsDir, runID)
	if err != nil {
		return ShowSummary{}, err
	}
	if ok {
		summary.Progress = progress
	}

	return summary, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func ratio(count, trials int) float64 {
	if trials == 0 {
		return 0
	}
	return float64(count) / float64(trials)
}
