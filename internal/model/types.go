package model

import "errors"

// ErrInvalidArgument marks precondition violations detected before any
// trial executes. Callers test for it with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Dog is one noisy signal source. Distribution[0] is the probability of
// picking the ground-truth path (path 1); the remaining entries share the
// residual mass equally.
type Dog struct {
	Accuracy     float64   `json:"accuracy"`
	Distribution []float64 `json:"distribution"`
}

// StrategyCounts holds the number of trials each strategy chose the
// ground-truth path.
type StrategyCounts struct {
	Majority int `json:"majority"`
	BestDog  int `json:"best_dog"`
	Random   int `json:"random"`
}

// RunRecord is the persisted summary of one completed simulation run.
type RunRecord struct {
	VersionedRecord
	ID           string         `json:"id"`
	NumPaths     int            `json:"num_paths"`
	NumDogs      int            `json:"num_dogs"`
	NumTrials    int            `json:"num_trials"`
	Seed         int64          `json:"seed"`
	Workers      int            `json:"workers"`
	Accuracies   []float64      `json:"accuracies"`
	Counts       StrategyCounts `json:"counts"`
	CreatedAtUTC string         `json:"created_at_utc"`
}
