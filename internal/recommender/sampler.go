package recommender

import (
	"math"
)

// SampleIndex picks one candidate index from a set of similarity
// scores using softmax weighting at the given temperature. Higher
// temperatures spread probability across the candidates; temperature
// zero (or below) degrades to picking the best score, first index
// winning ties. The random source is injected so selection is
// reproducible in tests.
func SampleIndex(similarities []float32, temperature float64, rng RandSource) int {
	if len(similarities) == 0 {
		return -1
	}
	if len(similarities) == 1 {
		return 0
	}

	best := argmax(similarities)
	if temperature <= 0 {
		return best
	}

	// Normalize by the max score before exponentiating for numerical
	// stability.
	maxSim := float64(similarities[best])

	weights := make([]float64, len(similarities))
	var sum float64
	for i, s := range similarities {
		w := math.Exp((float64(s) - maxSim) / temperature)
		weights[i] = w
		sum += w
	}

	draw := rng.Float64() * sum
	var acc float64
	for i, w := range weights {
		acc += w
		if draw < acc {
			return i
		}
	}

	// Float accumulation can leave draw just past the total.
	return len(similarities) - 1
}

func argmax(similarities []float32) int {
	best := 0
	for i, s := range similarities {
		if s > similarities[best] {
			best = i
		}
	}
	return best
}
