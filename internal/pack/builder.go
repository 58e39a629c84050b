package pack

import (
	"fmt"

	"houndsim/internal/model"
)

// Build constructs one Dog per accuracy probability. Each dog picks the
// ground-truth path (path 1) with probability p and spreads the remaining
// mass evenly over the other numPaths-1 paths.
//
// Probabilities must be ascending; downstream strategy evaluation relies on
// the last dog being the most accurate one.
func Build(probabilities []float64, numPaths int) ([]model.Dog, error) {
	if err := Validate(probabilities, numPaths); err != nil {
		return nil, err
	}

	dogs := make([]model.Dog, 0, len(probabilities))
	for _, p := range probabilities {
		residual := (1 - p) / float64(numPaths-1)
		distribution := make([]float64, numPaths)
		distribution[0] = p
		for i := 1; i < numPaths; i++ {
			distribution[i] = residual
		}
		dogs = append(dogs, model.Dog{Accuracy: p, Distribution: distribution})
	}
	return dogs, nil
}

// Validate checks the pack-builder preconditions without building anything.
func Validate(probabilities []float64, numPaths int) error {
	if numPaths < 2 {
		return fmt.Errorf("%w: num paths must be >= 2, got %d", model.ErrInvalidArgument, numPaths)
	}
	if len(probabilities) == 0 {
		return fmt.Errorf("%w: at least one dog probability is required", model.ErrInvalidArgument)
	}
	for i, p := range probabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: probability %d out of range [0,1]: %f", model.ErrInvalidArgument, i+1, p)
		}
		if i > 0 && p < probabilities[i-1] {
			return fmt.Errorf("%w: probabilities must be ascending, got %f after %f", model.ErrInvalidArgument, p, probabilities[i-1])
		}
	}
	return nil
}
