package inference

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"ablab/domain/core"
)

// studentTTest runs a two-sided independent-samples Student's t-test
// with pooled variance and returns the p-value.
func studentTTest(a, b []float64) (float64, error) {
	n1 := float64(len(a))
	n2 := float64(len(b))
	if len(a) < 2 || len(b) < 2 {
		return 0, core.NewDegenerateInputError("t-test needs at least 2 observations per group")
	}

	mean1 := mean(a)
	mean2 := mean(b)
	var1 := sampleVariance(a)
	var2 := sampleVariance(b)

	pooled := ((n1-1)*var1 + (n2-1)*var2) / (n1 + n2 - 2)
	if pooled <= 0 {
		return 0, core.NewDegenerateInputError("pooled variance is zero")
	}

	se := math.Sqrt(pooled * (1/n1 + 1/n2))
	tStat := (mean1 - mean2) / se
	df := n1 + n2 - 2

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - tDist.CDF(math.Abs(tStat))), nil
}
