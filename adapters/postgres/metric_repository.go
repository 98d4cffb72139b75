package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ablab/domain/experiment"
	"ablab/ports"
)

// metricRepository implements the MetricProvider interface over a
// metric table with user_id, metric, strat, and date columns.
type metricRepository struct {
	db    *sqlx.DB
	table string
}

// NewMetricRepository creates a new metric repository reading from the
// given table.
func NewMetricRepository(db *sqlx.DB, table string) ports.MetricProvider {
	return &metricRepository{db: db, table: table}
}

// Samples returns metric rows filtered by the query's date half-open
// interval [Begin, End) and optional user set.
func (r *metricRepository) Samples(ctx context.Context, q ports.MetricQuery) ([]experiment.MetricSample, error) {
	var (
		conds []string
		args  []interface{}
	)
	if !q.Begin.IsZero() {
		args = append(args, q.Begin)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !q.End.IsZero() {
		args = append(args, q.End)
		conds = append(conds, fmt.Sprintf("date < $%d", len(args)))
	}
	if q.UserIDs != nil {
		args = append(args, pq.Array(q.UserIDs))
		conds = append(conds, fmt.Sprintf("user_id = ANY($%d)", len(args)))
	}

	query := fmt.Sprintf(
		`SELECT user_id, metric, COALESCE(strat, '') AS strat FROM %s`, r.table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var samples []experiment.MetricSample
	for rows.Next() {
		var s experiment.MetricSample
		if err := rows.Scan(&s.UserID, &s.Value, &s.Stratum); err != nil {
			return nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metric rows: %w", err)
	}

	return samples, nil
}
