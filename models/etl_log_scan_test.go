package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journalRow имитирует строку журнала с колонками в порядке запросов репозитория
type journalRow struct {
	values []interface{}
}

func (r *journalRow) Scan(dest ...interface{}) error {
	for i, value := range r.values {
		switch d := dest[i].(type) {
		case *int:
			*d = value.(int)
		case *int64:
			*d = value.(int64)
		case *string:
			*d = value.(string)
		case *time.Time:
			*d = value.(time.Time)
		case *sql.NullTime:
			if value == nil {
				*d = sql.NullTime{}
			} else {
				*d = sql.NullTime{Time: value.(time.Time), Valid: true}
			}
		case *sql.NullFloat64:
			if value == nil {
				*d = sql.NullFloat64{}
			} else {
				*d = sql.NullFloat64{Float64: value.(float64), Valid: true}
			}
		}
	}
	return nil
}

func TestScanRunLogCompletedRun(t *testing.T) {
	startTime := time.Date(2026, 8, 27, 2, 0, 0, 0, time.UTC)
	endTime := startTime.Add(42 * time.Second)
	watermark := time.Date(2026, 8, 27, 1, 59, 59, 0, time.UTC)

	row := &journalRow{values: []interface{}{
		7, "run-uuid", int64(1756000000), startTime, endTime, "success",
		1200, 1180, 1180, 2,
		watermark, "", 42.5,
	}}

	runLog, err := scanRunLog(row)

	require.NoError(t, err)
	assert.Equal(t, 7, runLog.ID)
	assert.Equal(t, "run-uuid", runLog.RunID)
	assert.Equal(t, int64(1756000000), runLog.BatchID)
	assert.Equal(t, startTime, runLog.StartTime)
	assert.Equal(t, endTime, runLog.EndTime)
	assert.Equal(t, "success", runLog.Status)
	assert.Equal(t, 1200, runLog.RecordsExtracted)
	assert.Equal(t, 1180, runLog.RecordsTransformed)
	assert.Equal(t, 1180, runLog.RecordsLoaded)
	assert.Equal(t, 2, runLog.Errors)
	assert.Equal(t, watermark, runLog.Watermark)
	assert.Equal(t, 42.5, runLog.ExecutionTimeSeconds)
}

func TestScanRunLogInProgressRunWithNulls(t *testing.T) {
	// У незавершенного запуска end_time, watermark и execution_time_seconds
	// еще не заполнены и приходят из хранилища как NULL
	startTime := time.Date(2026, 8, 27, 2, 0, 0, 0, time.UTC)

	row := &journalRow{values: []interface{}{
		8, "run-uuid-2", int64(1756000100), startTime, nil, "in_progress",
		0, 0, 0, 0,
		nil, "", nil,
	}}

	runLog, err := scanRunLog(row)

	require.NoError(t, err)
	assert.Equal(t, "in_progress", runLog.Status)
	assert.True(t, runLog.EndTime.IsZero())
	assert.True(t, runLog.Watermark.IsZero())
	assert.Equal(t, 0.0, runLog.ExecutionTimeSeconds)
}
