// Package inference implements the statistical core of the experiment
// platform: sample-size planning, hypothesis testing (parametric,
// nonparametric, stratified, bootstrap), and Monte-Carlo verification
// of a design's empirical error rates.
package inference

import (
	"context"

	"ablab/domain/core"
	"ablab/domain/experiment"
)

// Service routes a pair of group samples to the hypothesis test the
// design selects. Stateless and safe for concurrent use.
type Service struct {
	bootstrap *BootstrapEngine
}

// NewService creates the hypothesis-test dispatcher.
func NewService() *Service {
	return &Service{bootstrap: NewBootstrapEngine()}
}

// Bootstrap exposes the underlying bootstrap engine for callers that
// need the interval and statistic vector, not just the pseudo p-value.
func (s *Service) Bootstrap() *BootstrapEngine {
	return s.bootstrap
}

// PValue applies the design's statistical test to the two group samples
// and returns a p-value in [0, 1]. Unknown test variants surface as
// InvalidConfiguration, never as a silent default.
func (s *Service) PValue(ctx context.Context, a, b experiment.Sample, design experiment.Design) (float64, error) {
	if err := design.Validate(); err != nil {
		return 0, err
	}
	if a.Len() == 0 || b.Len() == 0 {
		return 0, core.NewDegenerateInputError("empty group sample")
	}

	switch test := design.Test.(type) {
	case experiment.TTest:
		if test.Stratified {
			return stratifiedTTest(a, b)
		}
		return studentTTest(a.Values, b.Values)
	case experiment.UTest:
		return mannWhitneyU(a.Values, b.Values)
	case experiment.Bootstrap:
		_, pseudo, err := s.bootstrap.Run(ctx, a.Values, b.Values, design)
		return pseudo, err
	default:
		return 0, core.NewInvalidConfigurationError("statistical_test", design.Test.Kind())
	}
}
