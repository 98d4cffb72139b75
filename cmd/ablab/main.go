// Command ablab is a development harness for the experiment platform:
// it loads a metric population from the configured provider, estimates
// the required sample size for a design, and verifies the design's
// empirical error rates with a Monte-Carlo run.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"ablab/adapters/excel"
	"ablab/adapters/postgres"
	"ablab/domain/experiment"
	"ablab/inference"
	"ablab/internal"
	"ablab/internal/config"
	"ablab/ports"
)

func main() {
	// Load .env file if present (ignore error - env vars may be set directly)
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	var (
		alpha      = flag.Float64("alpha", 0.05, "significance level")
		beta       = flag.Float64("beta", 0.1, "acceptable type II error rate")
		effect     = flag.Float64("effect", 3.0, "minimum detectable effect, percent")
		sampleSize = flag.Int("sample-size", 0, "per-group size for error estimation (0 = use the estimate)")
		iterations = flag.Int("iterations", 1000, "monte carlo trials")
		seed       = flag.Int64("seed", 42, "monte carlo seed")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		logger.Error("failed to build metric provider: %v", err)
		os.Exit(1)
	}

	samples, err := provider.Samples(ctx, ports.MetricQuery{})
	if err != nil {
		logger.Error("failed to load metric samples: %v", err)
		os.Exit(1)
	}
	logger.Info("loaded %d metric rows from %s", len(samples), cfg.Metrics.Source)

	design := experiment.Design{
		Alpha:  *alpha,
		Beta:   *beta,
		Effect: *effect,
		Test:   experiment.TTest{},
	}

	calc := inference.NewDesignCalculator()
	needed, err := calc.EstimateSampleSize(samples, design)
	if err != nil {
		logger.Error("sample size estimation failed: %v", err)
		os.Exit(1)
	}
	logger.Info("estimated per-group sample size: %d", needed)

	design.SampleSize = *sampleSize
	if design.SampleSize == 0 {
		design.SampleSize = needed
	}

	// Per-user mean, one value per user, as the error estimator expects.
	population := perUserMeans(samples)
	logger.Info("metric population: %d users", len(population))

	estimator := inference.NewErrorEstimator(inference.NewService())
	report, err := estimator.EstimateErrors(ctx, population, design, experiment.EffectAllPercent, *iterations, *seed)
	if err != nil {
		logger.Error("error estimation failed: %v", err)
		os.Exit(1)
	}

	logger.Info("run %s: empirical alpha=%.5f (nominal %.3f), empirical beta=%.5f (nominal %.3f)",
		report.RunID, report.Alpha, design.Alpha, report.Beta, design.Beta)
	logger.Info("A/A p-value uniformity (KS): p=%.4f", report.AAUniformityP)
	if report.Alpha > design.Alpha+0.015 || report.Beta > design.Beta+0.015 {
		logger.Warn("design does not attain its nominal error rates")
	}
}

func buildProvider(cfg *config.Config, logger *internal.Logger) (ports.MetricProvider, error) {
	switch cfg.Metrics.Source {
	case "excel":
		logger.Debug("reading metrics from %s", cfg.Metrics.ExcelFile)
		return excel.NewMetricReader(cfg.Metrics.ExcelFile), nil
	default:
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		return postgres.NewMetricRepository(db, cfg.Metrics.Table), nil
	}
}

func perUserMeans(samples []experiment.MetricSample) []float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range samples {
		sums[s.UserID] += s.Value
		counts[s.UserID]++
	}
	population := make([]float64, 0, len(sums))
	for id, sum := range sums {
		population = append(population, sum/float64(counts[id]))
	}
	return population
}
