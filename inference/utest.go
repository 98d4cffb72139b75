package inference

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"ablab/domain/core"
)

// mannWhitneyU runs a two-sided Mann-Whitney U test and returns the
// p-value from the normal approximation with midranks for ties, a
// tie-corrected variance, and a 0.5 continuity correction. Rank-based,
// so it needs no distributional assumption on the metric.
func mannWhitneyU(a, b []float64) (float64, error) {
	n1 := float64(len(a))
	n2 := float64(len(b))
	if len(a) == 0 || len(b) == 0 {
		return 0, core.NewDegenerateInputError("u-test needs non-empty groups")
	}

	combined := make([]float64, 0, len(a)+len(b))
	combined = append(combined, a...)
	combined = append(combined, b...)
	ranks := rankData(combined)

	r1 := 0.0
	for i := range a {
		r1 += ranks[i]
	}
	u1 := n1*n2 + n1*(n1+1)/2 - r1

	mu := n1 * n2 / 2

	// Tie correction on the variance: sum of t^3 - t over tie groups.
	tieSum := 0.0
	counts := make(map[float64]float64, len(combined))
	for _, v := range combined {
		counts[v]++
	}
	for _, t := range counts {
		tieSum += t*t*t - t
	}

	n := n1 + n2
	sigma2 := n1 * n2 / 12 * ((n + 1) - tieSum/(n*(n-1)))
	if sigma2 <= 0 {
		return 0, core.NewDegenerateInputError("all observations are tied")
	}

	z := (math.Abs(u1-mu) - 0.5) / math.Sqrt(sigma2)
	if z < 0 {
		z = 0
	}

	p := 2 * (1 - distuv.UnitNormal.CDF(z))
	if p > 1 {
		p = 1
	}
	return p, nil
}
