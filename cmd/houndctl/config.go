package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	houndapi "houndsim/pkg/houndsim"
)

// runFileConfig mirrors the run flags so a whole run can be described in a
// JSON or YAML file and replayed.
type runFileConfig struct {
	RunID            string    `json:"run_id" yaml:"run_id"`
	NumPaths         int       `json:"num_paths" yaml:"num_paths"`
	Probabilities    []float64 `json:"probabilities" yaml:"probabilities"`
	NumTrials        int       `json:"num_trials" yaml:"num_trials"`
	Seed             int64     `json:"seed" yaml:"seed"`
	Workers          int       `json:"workers" yaml:"workers"`
	ProgressInterval int       `json:"progress_interval" yaml:"progress_interval"`
	Tolerance        float64   `json:"tolerance" yaml:"tolerance"`
}

func loadRunRequestFromConfig(path string) (houndapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return houndapi.RunRequest{}, err
	}

	var cfg runFileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return houndapi.RunRequest{}, err
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return houndapi.RunRequest{}, err
		}
	}

	return houndapi.RunRequest{
		RunID:            cfg.RunID,
		Probabilities:    cfg.Probabilities,
		NumPaths:         cfg.NumPaths,
		NumTrials:        cfg.NumTrials,
		Seed:             cfg.Seed,
		Workers:          cfg.Workers,
		ProgressInterval: cfg.ProgressInterval,
		Tolerance:        cfg.Tolerance,
	}, nil
}

func loadOrDefaultRunRequest(configPath string) (houndapi.RunRequest, error) {
	if configPath == "" {
		return houndapi.RunRequest{}, nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return houndapi.RunRequest{}, fmt.Errorf("load config: %w", err)
	}
	return req, nil
}

func overrideFromFlags(req *houndapi.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "probs":
			req.Probabilities = v.([]float64)
		case "paths":
			req.NumPaths = v.(int)
		case "trials":
			req.NumTrials = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "workers":
			req.Workers = v.(int)
		case "progress-interval":
			req.ProgressInterval = v.(int)
		case "tolerance":
			req.Tolerance = v.(float64)
		}
	}
	return nil
}

// parseProbabilities accepts "0.5, 0.7,0.9" style input, whitespace ignored.
func parseProbabilities(s string) ([]float64, error) {
	cleaned := strings.ReplaceAll(s, " ", "")
	if cleaned == "" {
		return nil, fmt.Errorf("probabilities list is empty")
	}

	parts := strings.Split(cleaned, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("probabilities list has an empty entry: %q", s)
		}
		p, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("parse probability %q: %w", part, err)
		}
		out = append(out, p)
	}
	return out, nil
}
