package experiment

import (
	"strconv"

	"ablab/domain/core"
)

// Experiment describes a traffic-split experiment competing for buckets.
// Immutable once accepted by the splitting service.
type Experiment struct {
	// ID uniquely identifies the experiment.
	ID int

	// Salt decorrelates this experiment's A/B assignment from the bucket
	// assignment and from other experiments. Empty means "derive from ID".
	Salt string

	// BucketCount is how many buckets the experiment must occupy.
	BucketCount int

	// Conflicts lists experiment IDs that must never share a bucket
	// with this experiment.
	Conflicts []int
}

// GroupSalt returns the salt used for A/B group hashing, deriving a
// default from the experiment ID when none was set.
func (e Experiment) GroupSalt() string {
	if e.Salt != "" {
		return e.Salt
	}
	return strconv.Itoa(e.ID)
}

// ConflictsWith reports whether id appears in the conflict list.
func (e Experiment) ConflictsWith(id int) bool {
	for _, c := range e.Conflicts {
		if c == id {
			return true
		}
	}
	return false
}

// Validate checks structural invariants before the experiment enters
// the splitting service.
func (e Experiment) Validate() error {
	if e.BucketCount < 0 {
		return core.NewPreconditionError("bucket_count", "must be >= 0")
	}
	return nil
}

// Group labels one arm of an experiment.
type Group string

const (
	GroupA Group = "A"
	GroupB Group = "B"
)

// GroupAssignment pairs an experiment with the group a user landed in.
// Output only; never persisted by the core.
type GroupAssignment struct {
	ExperimentID int
	Group        Group
}

// MetricSample is one row from the external metric provider:
// a per-user metric value, optionally tagged with a stratum label.
type MetricSample struct {
	UserID  string
	Value   float64
	Stratum string
}

// Sample is a group's metric observations as consumed by the inference
// engines. Strata is nil unless the design stratifies; when present it
// is index-aligned with Values.
type Sample struct {
	Values []float64
	Strata []string
}

// NewSample wraps plain metric values without strata.
func NewSample(values []float64) Sample {
	return Sample{Values: values}
}

// NewStratifiedSample wraps metric values with aligned stratum labels.
func NewStratifiedSample(values []float64, strata []string) Sample {
	return Sample{Values: values, Strata: strata}
}

// Len returns the number of observations.
func (s Sample) Len() int { return len(s.Values) }

// HasStrata reports whether every observation carries a stratum label.
func (s Sample) HasStrata() bool {
	return s.Strata != nil && len(s.Strata) == len(s.Values)
}

// EffectMode selects how a synthetic treatment effect is injected into
// a group during Monte Carlo design verification.
type EffectMode string

const (
	// EffectAllConst adds mean(sample)*effect/100 to every value.
	EffectAllConst EffectMode = "all_const"
	// EffectAllPercent multiplies every value by (1 + effect/100).
	EffectAllPercent EffectMode = "all_percent"
)

// Validate rejects unknown effect modes.
func (m EffectMode) Validate() error {
	switch m {
	case EffectAllConst, EffectAllPercent:
		return nil
	default:
		return core.NewInvalidConfigurationError("effect_add_type", string(m))
	}
}
