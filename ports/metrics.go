package ports

import (
	"context"
	"time"

	"ablab/domain/experiment"
)

// MetricQuery filters the metric table: rows with date in
// [Begin, End) and, when UserIDs is non-nil, user_id in UserIDs.
// Zero Begin/End mean no bound on that side.
type MetricQuery struct {
	Begin   time.Time
	End     time.Time
	UserIDs []string
}

// MetricProvider is the tabular metric source feeding the statistical
// core: rows of (user_id, metric value, optional stratum). Metric
// extraction, aggregation, and covariate adjustment happen behind this
// interface; the core only consumes the resulting samples.
type MetricProvider interface {
	Samples(ctx context.Context, q MetricQuery) ([]experiment.MetricSample, error)
}
