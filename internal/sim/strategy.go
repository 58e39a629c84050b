package sim

import "math/rand"

// majorityVote returns the most frequent path among the choices and its
// count. Ties resolve to the smallest path id, so the vote is deterministic
// for a given set of choices.
func majorityVote(choices []int, numPaths int) (path, count int) {
	counts := make([]int, numPaths+1)
	for _, choice := range choices {
		counts[choice]++
	}
	path = 1
	count = counts[1]
	for candidate := 2; candidate <= numPaths; candidate++ {
		if counts[candidate] > count {
			path = candidate
			count = counts[candidate]
		}
	}
	return path, count
}

// decideMajority implements the consensus strategy: follow the pack only
// when the mode is a strict majority (count/len > 0.5, never plurality);
// otherwise draw a path uniformly at random.
func decideMajority(rng *rand.Rand, choices []int, numPaths int) int {
	path, count := majorityVote(choices, numPaths)
	if 2*count > len(choices) {
		return path
	}
	return samplePath(rng, numPaths)
}

// decideBestDog follows the most accurate dog, which is the last element of
// the ascending pack ordering.
func decideBestDog(choices []int) int {
	return choices[len(choices)-1]
}
