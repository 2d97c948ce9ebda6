package pkg

import "math"

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round2 rounds to two decimals, the precision scores are stored with.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// PopulationVariance returns 0 for fewer than two values.
func PopulationVariance(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	m := Mean(vs)
	var acc float64
	for _, v := range vs {
		d := v - m
		acc += d * d
	}
	return acc / float64(len(vs))
}

// SampleVariance divides by n-1 and returns 0 for fewer than two values.
func SampleVariance(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	return PopulationVariance(vs) * float64(len(vs)) / float64(len(vs)-1)
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
