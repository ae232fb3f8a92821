package models

import (
	"database/sql"
	"fmt"
	"time"
)

// MySQLETLLogRepository реализация ETLLogRepository для хранилища MySQL
type MySQLETLLogRepository struct {
	db *sql.DB
}

// NewMySQLETLLogRepository создает новый экземпляр MySQLETLLogRepository
func NewMySQLETLLogRepository(db *sql.DB) *MySQLETLLogRepository {
	return &MySQLETLLogRepository{
		db: db,
	}
}

// CreateETLLogTable создает таблицу для журнала запусков ETL, если она не существует
func (r *MySQLETLLogRepository) CreateETLLogTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS etl_run_log (
		id INT AUTO_INCREMENT PRIMARY KEY,
		run_id VARCHAR(36) NOT NULL,
		batch_id BIGINT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		records_extracted INT DEFAULT 0,
		records_transformed INT DEFAULT 0,
		records_loaded INT DEFAULT 0,
		errors INT DEFAULT 0,
		watermark TIMESTAMP NULL,
		error_message TEXT,
		execution_time_seconds FLOAT
	);
	`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы etl_run_log: %w", err)
	}

	return nil
}

// CreateLogEntry создает новую запись о запуске ETL
func (r *MySQLETLLogRepository) CreateLogEntry(runID string, batchID int64, startTime time.Time) (int, error) {
	query := `
	INSERT INTO etl_run_log (run_id, batch_id, start_time, status)
	VALUES (?, ?, ?, 'in_progress')
	`

	result, err := r.db.Exec(query, runID, batchID, startTime)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании записи о запуске ETL: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID созданной записи: %w", err)
	}

	return int(id), nil
}

// UpdateLogEntrySuccess обновляет запись при успешном завершении ETL
// Вместе с метриками сохраняется watermark - верхняя граница окна,
// обработанная этим запуском
func (r *MySQLETLLogRepository) UpdateLogEntrySuccess(id int, endTime time.Time, metrics RunMetrics, watermark time.Time) error {
	// Рассчитываем время выполнения в секундах
	var startTime time.Time
	err := r.db.QueryRow("SELECT start_time FROM etl_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return fmt.Errorf("ошибка при получении времени начала ETL: %w", err)
	}

	executionTime := endTime.Sub(startTime).Seconds()

	// Нулевой watermark возможен только при холодном старте
	// с пустым источником; сохраняем NULL вместо нулевого времени
	watermarkValue := sql.NullTime{Time: watermark, Valid: !watermark.IsZero()}

	// Обновляем запись
	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'success',
		records_extracted = ?,
		records_transformed = ?,
		records_loaded = ?,
		errors = ?,
		watermark = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(
		query,
		endTime,
		metrics.RecordsExtracted,
		metrics.RecordsTransformed,
		metrics.RecordsLoaded,
		metrics.Errors,
		watermarkValue,
		executionTime,
		id,
	)

	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске ETL: %w", err)
	}

	return nil
}

// UpdateLogEntryFailure обновляет запись при неудачном завершении ETL
func (r *MySQLETLLogRepository) UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error {
	// Рассчитываем время выполнения в секундах
	var startTime time.Time
	err := r.db.QueryRow("SELECT start_time FROM etl_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return fmt.Errorf("ошибка при получении времени начала ETL: %w", err)
	}

	executionTime := endTime.Sub(startTime).Seconds()

	// Обновляем запись
	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(query, endTime, errorMessage, executionTime, id)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске ETL: %w", err)
	}

	return nil
}

// rowScanner объединяет *sql.Row и *sql.Rows для сканирования записей журнала
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRunLog сканирует строку журнала запусков ETL
// Колонки end_time, watermark и execution_time_seconds могут быть NULL
// (незавершенный запуск, холодный старт с пустым источником),
// поэтому сканируются через Null-типы, а не напрямую
func scanRunLog(row rowScanner) (*ETLRunLog, error) {
	var (
		runLog        ETLRunLog
		endTime       sql.NullTime
		watermark     sql.NullTime
		executionTime sql.NullFloat64
	)

	if err := row.Scan(
		&runLog.ID, &runLog.RunID, &runLog.BatchID, &runLog.StartTime, &endTime, &runLog.Status,
		&runLog.RecordsExtracted, &runLog.RecordsTransformed, &runLog.RecordsLoaded, &runLog.Errors,
		&watermark, &runLog.ErrorMessage, &executionTime,
	); err != nil {
		return nil, err
	}

	runLog.EndTime = endTime.Time
	runLog.Watermark = watermark.Time
	runLog.ExecutionTimeSeconds = executionTime.Float64

	return &runLog, nil
}

// GetLastSuccessfulRun получает информацию о последнем успешном запуске ETL
func (r *MySQLETLLogRepository) GetLastSuccessfulRun() (*ETLRunLog, error) {
	query := `
	SELECT
		id, run_id, batch_id, start_time, end_time, status,
		records_extracted, records_transformed, records_loaded, errors,
		watermark, IFNULL(error_message, ''), execution_time_seconds
	FROM etl_run_log
	WHERE status = 'success'
	ORDER BY end_time DESC
	LIMIT 1
	`

	runLog, err := scanRunLog(r.db.QueryRow(query))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Нет успешных запусков
		}
		return nil, fmt.Errorf("ошибка при получении информации о последнем успешном запуске ETL: %w", err)
	}

	return runLog, nil
}

// GetETLRunStats получает статистику о запусках ETL за определенный период
func (r *MySQLETLLogRepository) GetETLRunStats(days int) ([]ETLRunLog, error) {
	query := `
	SELECT
		id, run_id, batch_id, start_time, end_time, status,
		records_extracted, records_transformed, records_loaded, errors,
		watermark, IFNULL(error_message, ''), execution_time_seconds
	FROM etl_run_log
	WHERE start_time >= DATE_SUB(NOW(), INTERVAL ? DAY)
	ORDER BY start_time DESC
	`

	rows, err := r.db.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении статистики запусков ETL: %w", err)
	}
	defer rows.Close()

	var logs []ETLRunLog
	for rows.Next() {
		runLog, err := scanRunLog(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи о запуске ETL: %w", err)
		}
		logs = append(logs, *runLog)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по записям о запусках ETL: %w", err)
	}

	return logs, nil
}

// GetETLStateMonitor получает информацию о текущем состоянии ETL процесса
func (r *MySQLETLLogRepository) GetETLStateMonitor() (*ETLStateMonitor, error) {
	// Получаем последний успешный запуск
	lastSuccessful, err := r.GetLastSuccessfulRun()
	if err != nil {
		return nil, err
	}

	// Получаем последний неудачный запуск
	var lastFailed *ETLRunLog
	query := `
	SELECT
		id, run_id, batch_id, start_time, end_time, status,
		records_extracted, records_transformed, records_loaded, errors,
		watermark, IFNULL(error_message, ''), execution_time_seconds
	FROM etl_run_log
	WHERE status = 'failed'
	ORDER BY end_time DESC
	LIMIT 1
	`

	lastFailed, err = scanRunLog(r.db.QueryRow(query))
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("ошибка при получении информации о последнем неудачном запуске ETL: %w", err)
		}
		lastFailed = nil
	}

	// Получаем текущий запуск (если есть)
	// Время выполнения считается от начала запуска до текущего момента
	var currentRun *ETLRunLog
	query = `
	SELECT
		id, run_id, batch_id, start_time, end_time, status,
		records_extracted, records_transformed, records_loaded, errors,
		watermark, IFNULL(error_message, ''),
		TIMESTAMPDIFF(SECOND, start_time, NOW()) as execution_time_seconds
	FROM etl_run_log
	WHERE status = 'in_progress'
	ORDER BY start_time DESC
	LIMIT 1
	`

	currentRun, err = scanRunLog(r.db.QueryRow(query))
	if err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("ошибка при получении информации о текущем запуске ETL: %w", err)
		}
		currentRun = nil
	}

	// Получаем общую статистику запусков
	// На свежем хранилище журнал пуст и агрегаты возвращают NULL
	var totalSuccess, totalFailed sql.NullInt64
	var avgExecutionTime sql.NullFloat64
	var totalLoaded sql.NullInt64

	err = r.db.QueryRow(`
		SELECT
			IFNULL(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
			IFNULL(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			AVG(CASE WHEN status = 'success' THEN execution_time_seconds ELSE NULL END),
			IFNULL(SUM(CASE WHEN status = 'success' THEN records_loaded ELSE 0 END), 0)
		FROM etl_run_log
	`).Scan(&totalSuccess, &totalFailed, &avgExecutionTime, &totalLoaded)

	if err != nil {
		return nil, fmt.Errorf("ошибка при получении статистики запусков ETL: %w", err)
	}

	return &ETLStateMonitor{
		LastSuccessfulRun:       lastSuccessful,
		LastFailedRun:           lastFailed,
		CurrentRun:              currentRun,
		TotalSuccessfulRuns:     int(totalSuccess.Int64),
		TotalFailedRuns:         int(totalFailed.Int64),
		AvgExecutionTimeSeconds: avgExecutionTime.Float64,
		TotalRecordsLoaded:      int(totalLoaded.Int64),
	}, nil
}
