package models

import (
	"time"
)

// RunMetrics содержит метрики одного запуска ETL
// Собираются раннером из результатов отдельных фаз
type RunMetrics struct {
	RecordsExtracted   int `json:"records_extracted"`
	RecordsTransformed int `json:"records_transformed"`
	RecordsLoaded      int `json:"records_loaded"`
	Errors             int `json:"errors"`
}

// ETLRunLog представляет запись о запуске ETL процесса
type ETLRunLog struct {
	ID                   int       `json:"id"`
	RunID                string    `json:"run_id"`
	BatchID              int64     `json:"batch_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // "success", "failed", "in_progress"
	RecordsExtracted     int       `json:"records_extracted"`
	RecordsTransformed   int       `json:"records_transformed"`
	RecordsLoaded        int       `json:"records_loaded"`
	Errors               int       `json:"errors"`
	Watermark            time.Time `json:"watermark"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// ETLLogRepository представляет репозиторий для работы с журналом запусков ETL
// Журнал также хранит персистентный watermark: верхнюю границу окна,
// успешно обработанную последним запуском
type ETLLogRepository interface {
	// CreateLogEntry создает новую запись о запуске ETL
	CreateLogEntry(runID string, batchID int64, startTime time.Time) (int, error)

	// UpdateLogEntrySuccess обновляет запись при успешном завершении ETL
	UpdateLogEntrySuccess(id int, endTime time.Time, metrics RunMetrics, watermark time.Time) error

	// UpdateLogEntryFailure обновляет запись при неудачном завершении ETL
	UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun получает информацию о последнем успешном запуске ETL
	GetLastSuccessfulRun() (*ETLRunLog, error)

	// GetETLRunStats получает статистику о запусках ETL за определенный период
	GetETLRunStats(days int) ([]ETLRunLog, error)
}

// ETLStateMonitor предоставляет информацию о текущем состоянии ETL процесса
type ETLStateMonitor struct {
	LastSuccessfulRun       *ETLRunLog `json:"last_successful_run"`
	LastFailedRun           *ETLRunLog `json:"last_failed_run,omitempty"`
	CurrentRun              *ETLRunLog `json:"current_run,omitempty"`
	TotalSuccessfulRuns     int        `json:"total_successful_runs"`
	TotalFailedRuns         int        `json:"total_failed_runs"`
	AvgExecutionTimeSeconds float64    `json:"avg_execution_time_seconds"`
	TotalRecordsLoaded      int        `json:"total_records_loaded"` // Общее количество загруженных фактов за все успешные запуски
}
