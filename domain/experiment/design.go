package experiment

import "ablab/domain/core"

// Design is the analysis configuration for one experiment readout.
// Shared parameters live here; test-specific knobs live in the tagged
// TestSpec variant, so a t-test design cannot silently carry bootstrap
// fields and vice versa. Constructed fresh per analysis call.
type Design struct {
	// Alpha is the significance level, in (0, 1).
	Alpha float64
	// Beta is the acceptable Type II error rate, in (0, 1).
	Beta float64
	// Effect is the minimum detectable effect in percent, > 0.
	Effect float64
	// SampleSize is the per-group user count used when designing or
	// verifying an experiment, > 0.
	SampleSize int

	// Test selects and configures the hypothesis test.
	Test TestSpec
}

// TestSpec is the sealed set of hypothesis-test variants.
type TestSpec interface {
	// Kind names the variant for diagnostics and error messages.
	Kind() string
	validate() error
}

// TTest runs a two-sided independent-samples Student's t-test,
// optionally stratified.
type TTest struct {
	// Stratified switches to the post-stratified z-test; both samples
	// must then carry stratum labels.
	Stratified bool
}

func (TTest) Kind() string    { return "ttest" }
func (TTest) validate() error { return nil }

// UTest runs a two-sided Mann-Whitney U test (rank-based,
// distribution-free).
type UTest struct{}

func (UTest) Kind() string    { return "utest" }
func (UTest) validate() error { return nil }

// CIKind selects the bootstrap confidence-interval construction.
type CIKind string

const (
	CINormal     CIKind = "normal"
	CIPercentile CIKind = "percentile"
	CIPivotal    CIKind = "pivotal"
)

// AggFunc selects the per-iteration bootstrap statistic.
type AggFunc string

const (
	// AggMean compares resample means.
	AggMean AggFunc = "mean"
	// AggQuantile95 compares resample 95th percentiles.
	AggQuantile95 AggFunc = "quantile95"
)

// Bootstrap runs a resampling test and derives a binary pseudo p-value
// from the confidence interval.
type Bootstrap struct {
	// Iterations is the number of resamples per group, > 0.
	Iterations int
	// CI selects the interval construction.
	CI CIKind
	// Agg selects the difference statistic.
	Agg AggFunc
	// Seed makes the resampling exactly reproducible.
	Seed int64
}

func (Bootstrap) Kind() string { return "bootstrap" }

func (b Bootstrap) validate() error { return b.Validate() }

// Validate checks the bootstrap knobs; exposed because the engine can
// run from a bare Bootstrap config without a surrounding Design.
func (b Bootstrap) Validate() error {
	if b.Iterations <= 0 {
		return core.NewPreconditionError("bootstrap_iter", "must be > 0")
	}
	switch b.CI {
	case CINormal, CIPercentile, CIPivotal:
	default:
		return core.NewInvalidConfigurationError("bootstrap_ci_type", string(b.CI))
	}
	switch b.Agg {
	case AggMean, AggQuantile95:
	default:
		return core.NewInvalidConfigurationError("bootstrap_agg_func", string(b.Agg))
	}
	return nil
}

// Validate rejects a design before any computation runs on it.
func (d Design) Validate() error {
	if d.Alpha <= 0 || d.Alpha >= 1 {
		return core.NewPreconditionError("alpha", "must be in (0, 1)")
	}
	if d.Beta <= 0 || d.Beta >= 1 {
		return core.NewPreconditionError("beta", "must be in (0, 1)")
	}
	if d.Test == nil {
		return core.NewInvalidConfigurationError("statistical_test", "<nil>")
	}
	return d.Test.validate()
}

// ValidateEffect additionally requires a positive relative effect; only
// sample-size estimation and Monte Carlo verification need it.
func (d Design) ValidateEffect() error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Effect <= 0 {
		return core.NewPreconditionError("effect", "must be > 0")
	}
	return nil
}

// ValidateSampleSize additionally requires a positive per-group size.
func (d Design) ValidateSampleSize() error {
	if d.SampleSize <= 0 {
		return core.NewDegenerateInputError("sample_size must be > 0")
	}
	return nil
}
