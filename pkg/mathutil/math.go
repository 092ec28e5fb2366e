// Package mathutil provides the math helpers shared by search score
// normalization and pagination clamping.
package mathutil

import "math"

// CalcMeanStd calculates the mean and standard deviation of a slice
// of float32 values. Returns (0, 1) for empty slices so normalization
// never divides by zero.
func CalcMeanStd(scores []float32) (mean, std float32) {
	if len(scores) == 0 {
		return 0, 1
	}

	var sum float32
	for _, s := range scores {
		sum += s
	}
	mean = sum / float32(len(scores))

	var variance float32
	for _, s := range scores {
		diff := s - mean
		variance += diff * diff
	}
	variance /= float32(len(scores))
	std = float32(math.Sqrt(float64(variance)))

	if std == 0 {
		std = 1
	}

	return mean, std
}

// ZScore normalizes a score against a distribution.
func ZScore(score, mean, std float32) float32 {
	if std == 0 {
		return 0
	}
	return (score - mean) / std
}

// Sigmoid maps a z-score into (0, 1).
func Sigmoid(z float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(float64(-z))))
}

// ClampLimit validates a pagination limit, applying default and max
// constraints. If limit <= 0, returns defaultVal. If limit > maxVal,
// returns maxVal.
func ClampLimit(limit, defaultVal, maxVal int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit > maxVal {
		return maxVal
	}
	return limit
}
