package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"houndsim/internal/model"
	"houndsim/internal/sim"
)

const runIndexFile = "run_index.json"

// RunConfig is the persisted copy of the inputs a run was started with.
type RunConfig struct {
	RunID            string    `json:"run_id"`
	NumPaths         int       `json:"num_paths"`
	NumDogs          int       `json:"num_dogs"`
	NumTrials        int       `json:"num_trials"`
	Seed             int64     `json:"seed"`
	Workers          int       `json:"workers"`
	ProgressInterval int       `json:"progress_interval"`
	Tolerance        float64   `json:"tolerance"`
	Accuracies       []float64 `json:"accuracies"`
}

// RunResults holds the tallies and the derived per-strategy accuracy
// ratios for a completed run.
type RunResults struct {
	RunID                     string               `json:"run_id"`
	Counts                    model.StrategyCounts `json:"counts"`
	MajorityAccuracy          float64              `json:"majority_accuracy"`
	BestDogAccuracy           float64              `json:"best_dog_accuracy"`
	RandomAccuracy            float64              `json:"random_accuracy"`
	Tolerance                 float64              `json:"tolerance"`
	EquivalentWithinTolerance bool                 `json:"equivalent_within_tolerance"`
	CreatedAtUTC              string               `json:"created_at_utc"`
}

type RunArtifacts struct {
	Config   RunConfig        `json:"config"`
	Results  RunResults       `json:"results"`
	Progress []sim.Checkpoint `json:"progress,omitempty"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	NumPaths         int     `json:"num_paths"`
	NumDogs          int     `json:"num_dogs"`
	NumTrials        int     `json:"num_trials"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	MajorityAccuracy float64 `json:"majority_accuracy"`
	BestDogAccuracy  float64 `json:"best_dog_accuracy"`
	RandomAccuracy   float64 `json:"random_accuracy"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "results.json"), artifacts.Results); err != nil {
		return "", err
	}
	if err := WriteProgressSeries(runDir, artifacts.Progress); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadRunResults(baseDir, runID string) (RunResults, bool, error) {
	path := filepath.Join(baseDir, runID, "results.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunResults{}, false, nil
		}
		return RunResults{}, false, err
	}

	var results RunResults
	if err := json.Unmarshal(data, &results); err != nil {
		return RunResults{}, false, err
	}
	return results, true, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{"config.json", "results.json", "progress.csv"} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func WriteProgressSeries(runDir string, progress []sim.Checkpoint) error {
	path := filepath.Join(runDir, "progress.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"trials", "majority_accuracy", "best_dog_accuracy", "random_accuracy"}); err != nil {
		return err
	}
	for _, checkpoint := range progress {
		if err := writer.Write([]string{
			strconv.Itoa(checkpoint.Trials),
			strconv.FormatFloat(checkpoint.MajorityAccuracy, 'f', -1, 64),
			strconv.FormatFloat(checkpoint.BestDogAccuracy, 'f', -1, 64),
			strconv.FormatFloat(checkpoint.RandomAccuracy, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadProgressSeries(baseDir, runID string) ([]sim.Checkpoint, bool, error) {
	path := filepath.Join(baseDir, runID, "progress.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []sim.Checkpoint{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 4 {
		return nil, false, fmt.Errorf("progress series header must have at least 4 columns")
	}

	series := make([]sim.Checkpoint, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 4 {
			return nil, false, fmt.Errorf("progress series row must have at least 4 columns")
		}
		trials, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, false, err
		}
		majority, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		bestDog, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, false, err
		}
		random, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, sim.Checkpoint{
			Trials:           trials,
			MajorityAccuracy: majority,
			BestDogAccuracy:  bestDog,
			RandomAccuracy:   random,
		})
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
