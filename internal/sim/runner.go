package sim

import (
	"context"
	"math/rand"

	"houndsim/internal/model"
)

// trialRunner owns one worker's rand stream and scratch buffers. Worker w
// of W handles every trial t with t%W == w, so the stream a given trial
// draws from never depends on batch boundaries.
type trialRunner struct {
	cfg     Config
	worker  int
	stride  int
	rng     *rand.Rand
	choices []int

	counts model.StrategyCounts
	err    error
}

func newTrialRunner(cfg Config, worker, stride int) *trialRunner {
	return &trialRunner{
		cfg:     cfg,
		worker:  worker,
		stride:  stride,
		rng:     rand.New(rand.NewSource(cfg.Seed + int64(worker+1)*1000)),
		choices: make([]int, len(cfg.Dogs)),
	}
}

func (r *trialRunner) runRange(ctx context.Context, start, end int) {
	if r.err != nil {
		return
	}

	first := start + (r.worker-start%r.stride+r.stride)%r.stride

	for trial := first; trial < end; trial += r.stride {
		if err := ctx.Err(); err != nil {
			r.err = err
			return
		}
		r.runTrial(trial)
	}
}

func (r *trialRunner) runTrial(trial int) {
	for i, dog := range r.cfg.Dogs {
		r.choices[i] = sampleChoice(r.rng, dog.Distribution)
	}

	decisions := TrialDecisions{
		Majority: decideMajority(r.rng, r.choices, r.cfg.NumPaths),
		BestDog:  decideBestDog(r.choices),
		Random:   samplePath(r.rng, r.cfg.NumPaths),
	}

	if decisions.Majority == CorrectPath {
		r.counts.Majority++
	}
	if decisions.BestDog == CorrectPath {
		r.counts.BestDog++
	}
	if decisions.Random == CorrectPath {
		r.counts.Random++
	}

	if r.cfg.Observer != nil {
		r.cfg.Observer(trial, r.choices, decisions)
	}
}
