package inference

import (
	"context"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"ablab/domain/core"
	"ablab/domain/experiment"
)

// Interval is a two-sided confidence interval.
type Interval struct {
	Left  float64
	Right float64
}

// Contains reports whether v lies inside the interval.
func (i Interval) Contains(v float64) bool {
	return i.Left <= v && v <= i.Right
}

// BootstrapEngine resamples two groups with replacement and builds
// confidence intervals over the resampled difference statistic. Every
// run is driven by the explicit seed in the Bootstrap config, so results
// are exactly reproducible. Memory and time are
// O(sample size x iterations) per group; callers bound Iterations.
type BootstrapEngine struct{}

// NewBootstrapEngine creates a bootstrap engine.
func NewBootstrapEngine() *BootstrapEngine {
	return &BootstrapEngine{}
}

// GenerateStatistic draws cfg.Iterations independent resamples per
// group, each the size of its original sample, and returns the
// per-iteration difference statistic together with the same statistic
// computed on the unresampled originals. The loop aborts between
// iterations when ctx is cancelled.
func (e *BootstrapEngine) GenerateStatistic(ctx context.Context, a, b []float64, cfg experiment.Bootstrap) ([]float64, float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, 0, err
	}
	if len(a) == 0 || len(b) == 0 {
		return nil, 0, core.NewDegenerateInputError("bootstrap needs non-empty groups")
	}

	agg, err := aggFunc(cfg.Agg)
	if err != nil {
		return nil, 0, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	statVector := make([]float64, cfg.Iterations)

	resampleA := make([]float64, len(a))
	resampleB := make([]float64, len(b))
	for i := 0; i < cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}

		for j := range resampleA {
			resampleA[j] = a[rng.Intn(len(a))]
		}
		for j := range resampleB {
			resampleB[j] = b[rng.Intn(len(b))]
		}
		statVector[i] = agg(resampleB) - agg(resampleA)
	}

	point := agg(b) - agg(a)
	return statVector, point, nil
}

// BuildInterval constructs the confidence interval selected by ci over
// the bootstrap statistic vector and derives the pseudo p-value: 1.0
// when the interval contains zero (no significant difference), else
// 0.0. An exact p-value is not derivable generically from an arbitrary
// CI construction, hence the binary surrogate.
func (e *BootstrapEngine) BuildInterval(statVector []float64, point, alpha float64, ci experiment.CIKind) (Interval, float64, error) {
	if len(statVector) == 0 {
		return Interval{}, 0, core.NewDegenerateInputError("empty bootstrap statistic vector")
	}
	if alpha <= 0 || alpha >= 1 {
		return Interval{}, 0, core.NewPreconditionError("alpha", "must be in (0, 1)")
	}

	var interval Interval
	switch ci {
	case experiment.CINormal:
		z := distuv.UnitNormal.Quantile(1 - alpha/2)
		spread := z * popStdDev(statVector)
		interval = Interval{Left: point - spread, Right: point + spread}
	case experiment.CIPercentile:
		interval = Interval{
			Left:  quantile(statVector, alpha/2),
			Right: quantile(statVector, 1-alpha/2),
		}
	case experiment.CIPivotal:
		interval = Interval{
			Left:  2*point - quantile(statVector, 1-alpha/2),
			Right: 2*point - quantile(statVector, alpha/2),
		}
	default:
		return Interval{}, 0, core.NewInvalidConfigurationError("bootstrap_ci_type", string(ci))
	}

	pseudo := 0.0
	if interval.Contains(0) {
		pseudo = 1.0
	}
	return interval, pseudo, nil
}

// Run resamples and builds the interval in one step, the usual readout
// path for a bootstrap design.
func (e *BootstrapEngine) Run(ctx context.Context, a, b []float64, design experiment.Design) (Interval, float64, error) {
	cfg, ok := design.Test.(experiment.Bootstrap)
	if !ok {
		return Interval{}, 0, core.NewInvalidConfigurationError("statistical_test", design.Test.Kind())
	}
	if err := design.Validate(); err != nil {
		return Interval{}, 0, err
	}

	statVector, point, err := e.GenerateStatistic(ctx, a, b, cfg)
	if err != nil {
		return Interval{}, 0, err
	}
	return e.BuildInterval(statVector, point, design.Alpha, cfg.CI)
}

func aggFunc(agg experiment.AggFunc) (func([]float64) float64, error) {
	switch agg {
	case experiment.AggMean:
		return mean, nil
	case experiment.AggQuantile95:
		return func(data []float64) float64 { return quantile(data, 0.95) }, nil
	default:
		return nil, core.NewInvalidConfigurationError("bootstrap_agg_func", string(agg))
	}
}
