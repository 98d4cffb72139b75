package excel

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ablab/domain/experiment"
	"ablab/ports"
)

// MetricReader implements the MetricProvider interface over an xlsx
// workbook. Sheet1 must carry a header row with user_id and metric
// columns and may carry strat and date columns. Interactive column
// mapping belongs to the presentation layer, not here.
type MetricReader struct {
	filePath string
}

// NewMetricReader creates a reader for the given workbook path.
func NewMetricReader(filePath string) *MetricReader {
	return &MetricReader{filePath: filePath}
}

// Samples reads Sheet1 and returns metric rows filtered by the query.
func (r *MetricReader) Samples(ctx context.Context, q ports.MetricQuery) ([]experiment.MetricSample, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("excel file not found: %s", r.filePath)
	}

	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("excel file needs a header row and at least one data row")
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	userFilter := map[string]struct{}{}
	for _, id := range q.UserIDs {
		userFilter[id] = struct{}{}
	}

	var samples []experiment.MetricSample
	for i, row := range rows[1:] {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		userID := cell(row, cols.user)
		if userID == "" {
			continue
		}
		if q.UserIDs != nil {
			if _, ok := userFilter[userID]; !ok {
				continue
			}
		}

		if cols.date >= 0 && (!q.Begin.IsZero() || !q.End.IsZero()) {
			date, err := parseDate(cell(row, cols.date))
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
			if !q.Begin.IsZero() && date.Before(q.Begin) {
				continue
			}
			if !q.End.IsZero() && !date.Before(q.End) {
				continue
			}
		}

		value, err := strconv.ParseFloat(cell(row, cols.metric), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad metric value %q", i+2, cell(row, cols.metric))
		}

		sample := experiment.MetricSample{UserID: userID, Value: value}
		if cols.strat >= 0 {
			sample.Stratum = cell(row, cols.strat)
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

type columnIndex struct {
	user   int
	metric int
	strat  int
	date   int
}

func headerIndex(header []string) (columnIndex, error) {
	cols := columnIndex{user: -1, metric: -1, strat: -1, date: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "user_id":
			cols.user = i
		case "metric":
			cols.metric = i
		case "strat":
			cols.strat = i
		case "date":
			cols.date = i
		}
	}
	if cols.user < 0 || cols.metric < 0 {
		return cols, fmt.Errorf("header must contain user_id and metric columns")
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006.01.02", "01-02-06", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date value %q", s)
}
