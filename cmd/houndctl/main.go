package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"houndsim/internal/storage"
	houndapi "houndsim/pkg/houndsim"
)

const (
	runsDir    = "runs"
	exportsDir = "exports"
	dbPath     = "houndsim.db"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPathFlag := fs.String("db-path", dbPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := houndapi.New(houndapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPathFlag,
		RunsDir:    runsDir,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPathFlag := fs.String("db-path", dbPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := houndapi.New(houndapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPathFlag,
		RunsDir:    runsDir,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config path (JSON or YAML)")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	paths := fs.Int("paths", 2, "number of paths at the fork")
	probs := fs.String("probs", "", "comma-separated ascending dog accuracies, e.g. 0.5,0.7,0.9")
	trials := fs.Int("trials", 100000, "trial count")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "worker count")
	progressInterval := fs.Int("progress-interval", 0, "checkpoint cadence in trials (0 disables)")
	tolerance := fs.Float64("tolerance", 0.005, "accuracy tolerance for the strategy comparison verdict")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPathFlag := fs.String("db-path", dbPath, "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	var probabilities []float64
	if *probs != "" {
		parsed, err := parseProbabilities(*probs)
		if err != nil {
			return err
		}
		probabilities = parsed
	}

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = houndapi.RunRequest{
			RunID:            *runID,
			Probabilities:    probabilities,
			NumPaths:         *paths,
			NumTrials:        *trials,
			Seed:             *seed,
			Workers:          *workers,
			ProgressInterval: *progressInterval,
			Tolerance:        *tolerance,
		}
	} else if err := overrideFromFlags(&req, setFlags, map[string]any{
		"run-id":            *runID,
		"probs":             probabilities,
		"paths":             *paths,
		"trials":            *trials,
		"seed":              *seed,
		"workers":           *workers,
		"progress-interval": *progressInterval,
		"tolerance":         *tolerance,
	}); err != nil {
		return err
	}

	client, err := houndapi.New(houndapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPathFlag,
		RunsDir:    runsDir,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaryJSON(summary))
	}

	printSummary(summary)
	fmt.Printf("artifacts_dir=%s\n", filepath.Clean(summary.ArtifactsDir))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := houndapi.New(houndapi.Options{RunsDir: runsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, houndapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		type runsItem struct {
			RunID            string  `json:"run_id"`
			CreatedAtUTC     string  `json:"created_at_utc"`
			NumPaths         int     `json:"num_paths"`
			NumDogs          int     `json:"num_dogs"`
			NumTrials        int     `json:"num_trials"`
			Seed             int64   `json:"seed"`
			Workers          int     `json:"workers"`
			MajorityAccuracy float64 `json:"majority_accuracy"`
			BestDogAccuracy  float64 `json:"best_dog_accuracy"`
			RandomAccuracy   float64 `json:"random_accuracy"`
		}
		out := make([]runsItem, 0, len(items))
		for _, item := range items {
			out = append(out, runsItem(item))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for _, item := range items {
		fmt.Printf("run_id=%s created_at=%s paths=%d dogs=%d trials=%s seed=%d majority=%.3f best_dog=%.3f random=%.3f\n",
			item.RunID,
			item.CreatedAtUTC,
			item.NumPaths,
			item.NumDogs,
			humanize.Comma(int64(item.NumTrials)),
			item.Seed,
			item.MajorityAccuracy,
			item.BestDogAccuracy,
			item.RandomAccuracy,
		)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run from run index")
	jsonOut := fs.Bool("json", false, "emit run details as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPathFlag := fs.String("db-path", dbPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("show requires --run-id or --latest")
	}

	client, err := houndapi.New(houndapi.Options{
		StoreKind:  *storeKind,
		DBPath:     *dbPathFlag,
		RunsDir:    runsDir,
		ExportsDir: exportsDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	shown, err := client.Show(ctx, houndapi.ShowRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(shownJSON(shown))
	}

	fmt.Printf("run_id=%s created_at=%s paths=%d dogs=%d trials=%s seed=%d workers=%d accuracies=%v\n",
		shown.RunID,
		shown.CreatedAtUTC,
		shown.NumPaths,
		shown.NumDogs,
		humanize.Comma(int64(shown.NumTrials)),
		shown.Seed,
		shown.Workers,
		shown.Accuracies,
	)
	printStrategies(shown.NumTrials, shown.Counts.Majority, shown.Counts.BestDog, shown.Counts.Random,
		shown.MajorityAccuracy, shown.BestDogAccuracy, shown.RandomAccuracy)
	fmt.Printf("tolerance=%.3f equivalent=%t\n", shown.Tolerance, shown.EquivalentWithinTolerance)
	for _, checkpoint := range shown.Progress {
		fmt.Printf("trials=%d majority=%.4f best_dog=%.4f random=%.4f\n",
			checkpoint.Trials,
			checkpoint.MajorityAccuracy,
			checkpoint.BestDogAccuracy,
			checkpoint.RandomAccuracy,
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	client, err := houndapi.New(houndapi.Options{RunsDir: runsDir, ExportsDir: exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, houndapi.ExportRequest{
		RunID:  *runID,
		Latest: *latest,
		OutDir: *outDir,
	})
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, filepath.Clean(exported.Directory))
	return nil
}

func printSummary(summary houndapi.RunSummary) {
	fmt.Printf("run completed run_id=%s paths=%d dogs=%d trials=%s seed=%d workers=%d\n",
		summary.RunID,
		summary.NumPaths,
		summary.NumDogs,
		humanize.Comma(int64(summary.NumTrials)),
		summary.Seed,
		summary.Workers,
	)
	for _, checkpoint := range summary.Progress {
		fmt.Printf("trials=%d majority=%.4f best_dog=%.4f random=%.4f\n",
			checkpoint.Trials,
			checkpoint.MajorityAccuracy,
			checkpoint.BestDogAccuracy,
			checkpoint.RandomAccuracy,
		)
	}
	printStrategies(summary.NumTrials, summary.Counts.Majority, summary.Counts.BestDog, summary.Counts.Random,
		summary.MajorityAccuracy, summary.BestDogAccuracy, summary.RandomAccuracy)
	fmt.Printf("tolerance=%.3f equivalent=%t\n", summary.Tolerance, summary.EquivalentWithinTolerance)
}

func printStrategies(trials, majority, bestDog, random int, majorityAcc, bestDogAcc, randomAcc float64) {
	total := humanize.Comma(int64(trials))
	fmt.Printf("strategy=majority correct=%d trials=%s accuracy=%.3f\n", majority, total, majorityAcc)
	fmt.Printf("strategy=best_dog correct=%d trials=%s accuracy=%.3f\n", bestDog, total, bestDogAcc)
	fmt.Printf("strategy=random correct=%d trials=%s accuracy=%.3f\n", random, total, randomAcc)
}

type runSummaryJSON struct {
	RunID                     string           `json:"run_id"`
	ArtifactsDir              string           `json:"artifacts_dir,omitempty"`
	NumPaths                  int              `json:"num_paths"`
	NumDogs                   int              `json:"num_dogs"`
	NumTrials                 int              `json:"num_trials"`
	Seed                      int64            `json:"seed"`
	Workers                   int              `json:"workers"`
	MajorityCorrect           int              `json:"majority_correct"`
	BestDogCorrect            int              `json:"best_dog_correct"`
	RandomCorrect             int              `json:"random_correct"`
	MajorityAccuracy          float64          `json:"majority_accuracy"`
	BestDogAccuracy           float64          `json:"best_dog_accuracy"`
	RandomAccuracy            float64          `json:"random_accuracy"`
	Tolerance                 float64          `json:"tolerance"`
	EquivalentWithinTolerance bool             `json:"equivalent_within_tolerance"`
	Progress                  []checkpointJSON `json:"progress,omitempty"`
}

type checkpointJSON struct {
	Trials           int     `json:"trials"`
	MajorityAccuracy float64 `json:"majority_accuracy"`
	BestDogAccuracy  float64 `json:"best_dog_accuracy"`
	RandomAccuracy   float64 `json:"random_accuracy"`
}

func summaryJSON(summary houndapi.RunSummary) runSummaryJSON {
	out := runSummaryJSON{
		RunID:                     summary.RunID,
		ArtifactsDir:              filepath.Clean(summary.ArtifactsDir),
		NumPaths:                  summary.NumPaths,
		NumDogs:                   summary.NumDogs,
		NumTrials:                 summary.NumTrials,
		Seed:                      summary.Seed,
		Workers:                   summary.Workers,
		MajorityCorrect:           summary.Counts.Majority,
		BestDogCorrect:            summary.Counts.BestDog,
		RandomCorrect:             summary.Counts.Random,
		MajorityAccuracy:          summary.MajorityAccuracy,
		BestDogAccuracy:           summary.BestDogAccuracy,
		RandomAccuracy:            summary.RandomAccuracy,
		Tolerance:                 summary.Tolerance,
		EquivalentWithinTolerance: summary.EquivalentWithinTolerance,
	}
	for _, checkpoint := range summary.Progress {
		out.Progress = append(out.Progress, checkpointJSON(checkpoint))
	}
	return out
}

func shownJSON(shown houndapi.ShowSummary) runSummaryJSON {
	out := runSummaryJSON{
		RunID:                     shown.RunID,
		NumPaths:                  shown.NumPaths,
		NumDogs:                   shown.NumDogs,
		NumTrials:                 shown.NumTrials,
		Seed:                      shown.Seed,
		Workers:                   shown.Workers,
		MajorityCorrect:           shown.Counts.Majority,
		BestDogCorrect:            shown.Counts.BestDog,
		RandomCorrect:             shown.Counts.Random,
		MajorityAccuracy:          shown.MajorityAccuracy,
		BestDogAccuracy:           shown.BestDogAccuracy,
		RandomAccuracy:            shown.RandomAccuracy,
		Tolerance:                 shown.Tolerance,
		EquivalentWithinTolerance: shown.EquivalentWithinTolerance,
	}
	for _, checkpoint := range shown.Progress {
		out.Progress = append(out.Progress, checkpointJSON(checkpoint))
	}
	return out
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: houndctl <init|reset|run|runs|show|export> [flags]", msg)
}
