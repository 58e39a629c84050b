package sim

import (
	"context"
	"fmt"
	"math"
	"sync"

	"houndsim/internal/model"
)

// CorrectPath is the designated ground-truth path. Pack distributions put
// each dog's accuracy mass on this path, so any fixed id works; 1 keeps the
// convention of the pack builder.
const CorrectPath = 1

type State string

const (
	StateNotStarted State = "not_started"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
)

// TrialDecisions carries the three per-trial strategy outcomes.
type TrialDecisions struct {
	Majority int
	BestDog  int
	Random   int
}

// Observer receives every trial's sampled choices and strategy decisions.
// The choices slice is reused between trials and only valid during the
// call. With Workers > 1 the observer is invoked concurrently.
type Observer func(trial int, choices []int, decisions TrialDecisions)

// Checkpoint is a cumulative accuracy snapshot taken every
// ProgressInterval trials.
type Checkpoint struct {
	Trials           int     `json:"trials"`
	MajorityAccuracy float64 `json:"majority_accuracy"`
	BestDogAccuracy  float64 `json:"best_dog_accuracy"`
	RandomAccuracy   float64 `json:"random_accuracy"`
}

type Config struct {
	Dogs      []model.Dog
	NumPaths  int
	NumTrials int
	Seed      int64

	// Workers sets the trial worker pool size; <= 0 runs sequentially.
	// Trials are striped across workers and every worker owns an
	// independent rand stream, so results are deterministic for a fixed
	// (Seed, Workers) pair.
	Workers int

	// ProgressInterval emits a cumulative accuracy checkpoint every N
	// trials; <= 0 disables checkpoints.
	ProgressInterval int

	Observer Observer
}

type Result struct {
	Counts   model.StrategyCounts
	Progress []Checkpoint
}

// Engine runs independent weighted-choice trials and tallies how often each
// strategy picks the ground-truth path.
type Engine struct {
	mu    sync.Mutex
	state State
}

func New() *Engine {
	return &Engine{state: StateNotStarted}
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run validates the configuration atomically, executes all trials, and
// returns the per-strategy correct counts. A validation failure aborts
// before any trial runs and leaves the engine in its prior state.
func (e *Engine) Run(ctx context.Context, cfg Config) (Result, error) {
	if err := validateConfig(cfg); err != nil {
		return Result{}, err
	}
	e.setState(StateRunning)
	defer e.setState(StateCompleted)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > cfg.NumTrials {
		workers = cfg.NumTrials
	}

	runners := make([]*trialRunner, workers)
	for w := 0; w < workers; w++ {
		runners[w] = newTrialRunner(cfg, w, workers)
	}

	batch := cfg.ProgressInterval
	if batch <= 0 {
		batch = cfg.NumTrials
	}

	var result Result
	for start := 0; start < cfg.NumTrials; start += batch {
		end := start + batch
		if end > cfg.NumTrials {
			end = cfg.NumTrials
		}

		var wg sync.WaitGroup
		wg.Add(len(runners))
		for _, runner := range runners {
			go func(r *trialRunner) {
				defer wg.Done()
				r.runRange(ctx, start, end)
			}(runner)
		}
		wg.Wait()

		counts := model.StrategyCounts{}
		for _, runner := range runners {
			if runner.err != nil {
				return Result{}, runner.err
			}
			counts.Majority += runner.counts.Majority
			counts.BestDog += runner.counts.BestDog
			counts.Random += runner.counts.Random
		}
		result.Counts = counts

		if cfg.ProgressInterval > 0 {
			done := float64(end)
			result.Progress = append(result.Progress, Checkpoint{
				Trials:           end,
				MajorityAccuracy: float64(counts.Majority) / done,
				BestDogAccuracy:  float64(counts.BestDog) / done,
				RandomAccuracy:   float64(counts.Random) / done,
			})
		}
	}

	return result, nil
}

func validateConfig(cfg Config) error {
	if cfg.NumPaths < 2 {
		return fmt.Errorf("%w: num paths must be >= 2, got %d", model.ErrInvalidArgument, cfg.NumPaths)
	}
	if cfg.NumTrials < 0 {
		return fmt.Errorf("%w: num trials must be >= 0, got %d", model.ErrInvalidArgument, cfg.NumTrials)
	}
	if len(cfg.Dogs) == 0 {
		return fmt.Errorf("%w: at least one dog is required", model.ErrInvalidArgument)
	}
	for i, dog := range cfg.Dogs {
		if len(dog.Distribution) != cfg.NumPaths {
			return fmt.Errorf("%w: dog %d has %d weights, want %d", model.ErrInvalidArgument, i+1, len(dog.Distribution), cfg.NumPaths)
		}
		if dog.Accuracy < 0 || dog.Accuracy > 1 {
			return fmt.Errorf("%w: dog %d accuracy out of range [0,1]: %f", model.ErrInvalidArgument, i+1, dog.Accuracy)
		}
		if i > 0 && dog.Accuracy < cfg.Dogs[i-1].Accuracy {
			return fmt.Errorf("%w: dogs must be ordered by ascending accuracy, got %f after %f", model.ErrInvalidArgument, dog.Accuracy, cfg.Dogs[i-1].Accuracy)
		}
		total := 0.0
		for j, weight := range dog.Distribution {
			if weight < 0 {
				return fmt.Errorf("%w: dog %d weight %d is negative: %f", model.ErrInvalidArgument, i+1, j+1, weight)
			}
			total += weight
		}
		if math.Abs(total-1.0) > 1e-9 {
			return fmt.Errorf("%w: dog %d weights sum to %f, want 1", model.ErrInvalidArgument, i+1, total)
		}
	}
	return nil
}
