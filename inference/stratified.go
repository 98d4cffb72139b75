package inference

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"ablab/domain/core"
	"ablab/domain/experiment"
)

// stratifiedTTest compares post-stratified group means with a z-test.
//
// Stratum weights come from the pooled counts across both groups, on
// the assumption that the pooled sample represents the full population
// the experiment covers. Each group's stratified mean is the
// weight-blended within-stratum mean; its stratified variance blends
// the within-stratum sample variances the same way. The standard error
// uses the total per-group observation counts.
func stratifiedTTest(a, b experiment.Sample) (float64, error) {
	if !a.HasStrata() || !b.HasStrata() {
		return 0, core.NewDegenerateInputError("stratified test needs stratum labels on both groups")
	}
	if a.Len() == 0 || b.Len() == 0 {
		return 0, core.NewDegenerateInputError("stratified test needs non-empty groups")
	}

	byStratumA := groupByStratum(a)
	byStratumB := groupByStratum(b)

	// Every stratum must appear in both groups; a one-sided stratum has
	// no counterpart mean to compare and must fail rather than yield NaN.
	for label := range byStratumA {
		if _, ok := byStratumB[label]; !ok {
			return 0, core.NewDegenerateInputError("stratum " + label + " absent from group B")
		}
	}
	for label := range byStratumB {
		if _, ok := byStratumA[label]; !ok {
			return 0, core.NewDegenerateInputError("stratum " + label + " absent from group A")
		}
	}

	total := float64(a.Len() + b.Len())

	var meanA, meanB, varA, varB float64
	for label, valuesA := range byStratumA {
		valuesB := byStratumB[label]
		if len(valuesA) < 2 || len(valuesB) < 2 {
			return 0, core.NewDegenerateInputError("stratum " + label + " too small for a variance estimate")
		}

		weight := float64(len(valuesA)+len(valuesB)) / total
		meanA += weight * mean(valuesA)
		meanB += weight * mean(valuesB)
		varA += weight * sampleVariance(valuesA)
		varB += weight * sampleVariance(valuesB)
	}

	se := math.Sqrt(varA/float64(a.Len()) + varB/float64(b.Len()))
	if se == 0 {
		return 0, core.NewDegenerateInputError("stratified variance is zero")
	}

	delta := meanB - meanA
	z := math.Abs(delta / se)
	return 2 * (1 - distuv.UnitNormal.CDF(z)), nil
}

func groupByStratum(s experiment.Sample) map[string][]float64 {
	byStratum := make(map[string][]float64)
	for i, v := range s.Values {
		label := s.Strata[i]
		byStratum[label] = append(byStratum[label], v)
	}
	return byStratum
}
