package patch

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Same cut-off OpenCV uses to ignore thresholds that leave one class
// (numerically) empty.
const otsuEpsilon = 1.1920929e-07

var intensityLevels = func() []float64 {
	out := make([]float64, math.MaxUint8+1)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}()

// OtsuThreshold returns the intensity t that maximizes the between-class
// variance of {v <= t} and {v > t}. Ties keep the lowest t. If no threshold
// separates two non-empty classes (no values, or a single distinct value),
// the result is 0.
func OtsuThreshold(values []uint8) uint8 {
	if len(values) == 0 {
		return 0
	}

	counts := make([]float64, len(intensityLevels))
	for _, v := range values {
		counts[v]++
	}

	total := floats.Sum(counts)
	mu := stat.Mean(intensityLevels, counts)

	var threshold uint8
	var maxSigma, q1, sum1 float64

	for i, c := range counts {
		p := c / total
		q1 += p
		sum1 += float64(i) * p
		q2 := 1 - q1

		if math.Min(q1, q2) < otsuEpsilon || math.Max(q1, q2) > 1-otsuEpsilon {
			continue
		}

		mu1 := sum1 / q1
		mu2 := (mu - sum1) / q2

		sigma := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if sigma > maxSigma {
			maxSigma = sigma
			threshold = uint8(i)
		}
	}

	return threshold
}
