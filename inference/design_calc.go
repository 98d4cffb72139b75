package inference

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"ablab/domain/core"
	"ablab/domain/experiment"
)

// DesignCalculator provides the closed-form sample-size and
// minimum-detectable-effect formulas used when planning an experiment.
type DesignCalculator struct{}

// NewDesignCalculator creates a design calculator.
func NewDesignCalculator() *DesignCalculator {
	return &DesignCalculator{}
}

// zScore is z_{1-alpha/2} + z_{1-beta}, the combined standard-normal
// quantile entering every power calculation here.
func zScore(alpha, beta float64) float64 {
	return distuv.UnitNormal.Quantile(1-alpha/2) + distuv.UnitNormal.Quantile(1-beta)
}

// EstimateSampleSize computes the per-group user count needed to detect
// design.Effect percent change of the historical mean with the design's
// alpha and beta.
//
// Metrics with several observations per user (response time, for
// example) need proportionally fewer users: the observation requirement
// is scaled by uniqueUsers/totalObservations.
func (c *DesignCalculator) EstimateSampleSize(samples []experiment.MetricSample, design experiment.Design) (int, error) {
	if err := design.ValidateEffect(); err != nil {
		return 0, err
	}
	if len(samples) == 0 {
		return 0, core.NewDegenerateInputError("empty metric table")
	}

	values := make([]float64, len(samples))
	users := make(map[string]struct{}, len(samples))
	for i, s := range samples {
		values[i] = s.Value
		users[s.UserID] = struct{}{}
	}
	ratio := float64(len(users)) / float64(len(samples))

	metricMean := mean(values)
	metricVar := popVariance(values)

	if metricVar <= 0 {
		return 0, core.NewDegenerateInputError("metric variance must be > 0")
	}
	if metricMean == 0 {
		return 0, core.NewDegenerateInputError("metric mean is zero, relative effect undefined")
	}

	epsilon := metricMean * design.Effect / 100
	z := zScore(design.Alpha, design.Beta)
	n := ratio * z * z * 2 * metricVar / (epsilon * epsilon)

	return int(math.Ceil(n)), nil
}

// SampleSizeFromSigma computes the per-group size from a known standard
// deviation and an absolute effect, without a metric table.
func (c *DesignCalculator) SampleSizeFromSigma(sigma, effect, alpha, beta float64) (int, error) {
	if err := validateAlphaBeta(alpha, beta); err != nil {
		return 0, err
	}
	if sigma <= 0 {
		return 0, core.NewDegenerateInputError("sigma must be > 0")
	}
	if effect <= 0 {
		return 0, core.NewPreconditionError("effect", "must be > 0")
	}

	z := zScore(alpha, beta)
	return int(math.Ceil(z * z * 2 * sigma * sigma / (effect * effect))), nil
}

// MDE inverts the sample-size formula: the minimum absolute effect
// detectable with the given per-group size.
func (c *DesignCalculator) MDE(sigma float64, sampleSize int, alpha, beta float64) (float64, error) {
	if err := validateAlphaBeta(alpha, beta); err != nil {
		return 0, err
	}
	if sigma <= 0 {
		return 0, core.NewDegenerateInputError("sigma must be > 0")
	}
	if sampleSize <= 0 {
		return 0, core.NewDegenerateInputError("sample_size must be > 0")
	}

	z := zScore(alpha, beta)
	return math.Sqrt(z * z * 2 * sigma * sigma / float64(sampleSize)), nil
}

func validateAlphaBeta(alpha, beta float64) error {
	if alpha <= 0 || alpha >= 1 {
		return core.NewPreconditionError("alpha", "must be in (0, 1)")
	}
	if beta <= 0 || beta >= 1 {
		return core.NewPreconditionError("beta", "must be in (0, 1)")
	}
	return nil
}
