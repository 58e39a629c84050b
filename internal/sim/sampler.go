package sim

import "math/rand"

// sampleChoice draws one path (1-based) from a categorical distribution by
// cumulative-distribution inversion. The weights are used exactly as given;
// floating-point residue at the top of the scan falls to the last path.
func sampleChoice(rng *rand.Rand, distribution []float64) int {
	target := rng.Float64()
	cumulative := 0.0
	for i, weight := range distribution {
		cumulative += weight
		if target < cumulative {
			return i + 1
		}
	}
	return len(distribution)
}

// samplePath draws a path uniformly from [1, numPaths].
func samplePath(rng *rand.Rand, numPaths int) int {
	return rng.Intn(numPaths) + 1
}
