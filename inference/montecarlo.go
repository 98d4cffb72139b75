package inference

import (
	"context"
	"math/rand"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ablab/domain/core"
	"ablab/domain/experiment"
)

// ErrorReport aggregates a Monte-Carlo verification run. The raw
// p-value vectors are kept for diagnostics: under the null the A/A
// p-values should be uniform on (0, 1), which AAUniformityP checks.
type ErrorReport struct {
	RunID uuid.UUID

	// PValuesAA holds the null-hypothesis (A/A) trial p-values.
	PValuesAA []float64
	// PValuesAB holds the alternative-hypothesis (A/B) trial p-values.
	PValuesAB []float64

	// Alpha is the empirical Type I error rate: the fraction of A/A
	// trials rejected at the design's alpha.
	Alpha float64
	// Beta is the empirical Type II error rate: the fraction of A/B
	// trials not rejected at the design's alpha.
	Beta float64

	// AAUniformityP is the Kolmogorov-Smirnov p-value of PValuesAA
	// against Uniform(0, 1).
	AAUniformityP float64
}

// ErrorEstimator empirically validates a design's alpha and beta on a
// real metric population before a live experiment runs, by simulating
// A/A and A/B trials through the hypothesis-test dispatcher.
type ErrorEstimator struct {
	dispatcher *Service
	workers    int
}

// NewErrorEstimator creates an estimator running trials over a worker
// pool bounded by the CPU count.
func NewErrorEstimator(dispatcher *Service) *ErrorEstimator {
	return &ErrorEstimator{
		dispatcher: dispatcher,
		workers:    runtime.GOMAXPROCS(0),
	}
}

// SetWorkers overrides the trial worker pool size.
func (e *ErrorEstimator) SetWorkers(n int) {
	if n > 0 {
		e.workers = n
	}
}

// EstimateErrors runs nIter independent trials. Each trial draws two
// disjoint user subsets of design.SampleSize from the population
// (without replacement inside a trial; trials may overlap), measures
// the A/A p-value, injects the design effect into the second subset per
// mode, and measures the A/B p-value.
//
// Trials are embarrassingly parallel and run concurrently; results land
// in preallocated slots so the reduction is order-independent. The seed
// fixes every trial's subsets, making the whole run reproducible.
// Cancelling ctx aborts between trials.
func (e *ErrorEstimator) EstimateErrors(ctx context.Context, population []float64, design experiment.Design, mode experiment.EffectMode, nIter int, seed int64) (*ErrorReport, error) {
	if err := design.ValidateEffect(); err != nil {
		return nil, err
	}
	if err := design.ValidateSampleSize(); err != nil {
		return nil, err
	}
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if nIter <= 0 {
		return nil, core.NewPreconditionError("n_iter", "must be > 0")
	}
	if len(population) < 2*design.SampleSize {
		return nil, core.NewDegenerateInputError("population too small for two disjoint groups")
	}

	report := &ErrorReport{
		RunID:     uuid.New(),
		PValuesAA: make([]float64, nIter),
		PValuesAB: make([]float64, nIter),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for trial := 0; trial < nIter; trial++ {
		trial := trial
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			// Per-trial rng derived from the run seed keeps trials
			// independent of each other and of scheduling order.
			rng := rand.New(rand.NewSource(seed + int64(trial) + 1))
			a, b := drawDisjoint(rng, population, design.SampleSize)

			pAA, pAB, err := e.runTrial(gctx, a, b, design, mode)
			if err != nil {
				return err
			}
			report.PValuesAA[trial] = pAA
			report.PValuesAB[trial] = pAB
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	rejectedAA := 0
	acceptedAB := 0
	for i := 0; i < nIter; i++ {
		if report.PValuesAA[i] < design.Alpha {
			rejectedAA++
		}
		if report.PValuesAB[i] >= design.Alpha {
			acceptedAB++
		}
	}
	report.Alpha = float64(rejectedAA) / float64(nIter)
	report.Beta = float64(acceptedAB) / float64(nIter)
	report.AAUniformityP = ksUniformPValue(report.PValuesAA)

	return report, nil
}

// runTrial measures one null trial and one alternative trial on a fixed
// pair of subsets.
func (e *ErrorEstimator) runTrial(ctx context.Context, a, b []float64, design experiment.Design, mode experiment.EffectMode) (float64, float64, error) {
	pAA, err := e.dispatcher.PValue(ctx, experiment.NewSample(a), experiment.NewSample(b), design)
	if err != nil {
		return 0, 0, err
	}

	perturbed, err := applyEffect(b, design.Effect, mode)
	if err != nil {
		return 0, 0, err
	}

	pAB, err := e.dispatcher.PValue(ctx, experiment.NewSample(a), experiment.NewSample(perturbed), design)
	if err != nil {
		return 0, 0, err
	}

	return pAA, pAB, nil
}

// drawDisjoint samples two non-overlapping subsets of size n without
// replacement.
func drawDisjoint(rng *rand.Rand, population []float64, n int) ([]float64, []float64) {
	perm := rng.Perm(len(population))
	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = population[perm[i]]
		b[i] = population[perm[n+i]]
	}
	return a, b
}

// applyEffect injects a synthetic treatment effect of `effect` percent.
func applyEffect(values []float64, effect float64, mode experiment.EffectMode) ([]float64, error) {
	out := make([]float64, len(values))
	switch mode {
	case experiment.EffectAllConst:
		shift := mean(values) * effect / 100
		for i, v := range values {
			out[i] = v + shift
		}
	case experiment.EffectAllPercent:
		factor := 1 + effect/100
		for i, v := range values {
			out[i] = v * factor
		}
	default:
		return nil, core.NewInvalidConfigurationError("effect_add_type", string(mode))
	}
	return out, nil
}
