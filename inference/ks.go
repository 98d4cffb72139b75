package inference

import (
	"math"
	"sort"
)

// ksUniformPValue tests a p-value vector against Uniform(0, 1) with a
// one-sample Kolmogorov-Smirnov test, returning the asymptotic p-value.
// A well-calibrated test produces uniform p-values under the null, so a
// small result here flags a miscalibrated design.
func ksUniformPValue(pvalues []float64) float64 {
	n := len(pvalues)
	if n == 0 {
		return 1
	}

	sorted := make([]float64, n)
	copy(sorted, pvalues)
	sort.Float64s(sorted)

	// D = sup |ECDF(x) - x| against the uniform CDF.
	d := 0.0
	for i, x := range sorted {
		if x < 0 {
			x = 0
		}
		if x > 1 {
			x = 1
		}
		upper := float64(i+1)/float64(n) - x
		lower := x - float64(i)/float64(n)
		if upper > d {
			d = upper
		}
		if lower > d {
			d = lower
		}
	}

	return kolmogorovQ((math.Sqrt(float64(n)) + 0.12 + 0.11/math.Sqrt(float64(n))) * d)
}

// kolmogorovQ is the asymptotic Kolmogorov survival function
// Q(lambda) = 2 sum_{k>=1} (-1)^{k-1} exp(-2 k^2 lambda^2).
func kolmogorovQ(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}

	sum := 0.0
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*float64(k*k)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}

	q := 2 * sum
	if q < 0 {
		return 0
	}
	if q > 1 {
		return 1
	}
	return q
}
