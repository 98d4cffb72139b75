package experiment

import (
	"testing"

	"ablab/domain/core"
)

func TestDesignValidate(t *testing.T) {
	valid := Design{Alpha: 0.05, Beta: 0.1, Effect: 3, SampleSize: 100, Test: TTest{}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid design rejected: %v", err)
	}

	cases := []struct {
		name   string
		design Design
		check  func(error) bool
	}{
		{"alpha zero", Design{Alpha: 0, Beta: 0.1, Test: TTest{}}, core.IsPreconditionViolation},
		{"alpha one", Design{Alpha: 1, Beta: 0.1, Test: TTest{}}, core.IsPreconditionViolation},
		{"beta negative", Design{Alpha: 0.05, Beta: -0.1, Test: TTest{}}, core.IsPreconditionViolation},
		{"nil test", Design{Alpha: 0.05, Beta: 0.1}, core.IsInvalidConfiguration},
		{
			"bad ci type",
			Design{Alpha: 0.05, Beta: 0.1, Test: Bootstrap{Iterations: 10, CI: CIKind("weird"), Agg: AggMean}},
			core.IsInvalidConfiguration,
		},
		{
			"bad agg func",
			Design{Alpha: 0.05, Beta: 0.1, Test: Bootstrap{Iterations: 10, CI: CINormal, Agg: AggFunc("median")}},
			core.IsInvalidConfiguration,
		},
		{
			"zero iterations",
			Design{Alpha: 0.05, Beta: 0.1, Test: Bootstrap{CI: CINormal, Agg: AggMean}},
			core.IsPreconditionViolation,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.design.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.check(err) {
				t.Fatalf("wrong error class: %v", err)
			}
		})
	}
}

func TestDesignValidateEffect(t *testing.T) {
	d := Design{Alpha: 0.05, Beta: 0.1, Effect: 0, Test: TTest{}}
	if err := d.ValidateEffect(); !core.IsPreconditionViolation(err) {
		t.Fatalf("zero effect not rejected: %v", err)
	}
}

func TestEffectModeValidate(t *testing.T) {
	if err := EffectAllConst.Validate(); err != nil {
		t.Fatalf("all_const rejected: %v", err)
	}
	if err := EffectAllPercent.Validate(); err != nil {
		t.Fatalf("all_percent rejected: %v", err)
	}
	if err := EffectMode("half").Validate(); !core.IsInvalidConfiguration(err) {
		t.Fatalf("unknown mode not rejected: %v", err)
	}
}

func TestExperimentGroupSalt(t *testing.T) {
	if got := (Experiment{ID: 7}).GroupSalt(); got != "7" {
		t.Fatalf("default salt = %q, want %q", got, "7")
	}
	if got := (Experiment{ID: 7, Salt: "pepper"}).GroupSalt(); got != "pepper" {
		t.Fatalf("explicit salt = %q, want %q", got, "pepper")
	}
}
