package inference

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// mean wraps the descriptive-stats mean, treating an empty input as 0;
// callers reject empty samples before computing.
func mean(data []float64) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

// popVariance is the population variance (ddof=0), matching how
// historical metric tables are summarized for sample-size estimation.
func popVariance(data []float64) float64 {
	v, err := stats.PopulationVariance(data)
	if err != nil {
		return 0
	}
	return v
}

// sampleVariance is the unbiased sample variance (ddof=1).
func sampleVariance(data []float64) float64 {
	v, err := stats.SampleVariance(data)
	if err != nil {
		return 0
	}
	return v
}

// popStdDev is the population standard deviation (ddof=0).
func popStdDev(data []float64) float64 {
	return math.Sqrt(popVariance(data))
}

// quantile interpolates linearly between order statistics, so bootstrap
// intervals agree with the conventional definition: for p in [0, 1] the
// index is p*(n-1), fractional indexes blend the two neighbours.
func quantile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// rankData assigns 1-based ranks, averaging over ties (midranks).
func rankData(data []float64) []float64 {
	n := len(data)
	ranks := make([]float64, n)

	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, v := range data {
		pairs[i] = pair{v, i}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	i := 0
	for i < n {
		j := i
		for j < n-1 && pairs[j+1].value == pairs[i].value {
			j++
		}
		avgRank := float64(i+j)/2.0 + 1
		for k := i; k <= j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		i = j + 1
	}

	return ranks
}
