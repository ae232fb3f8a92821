package trends

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// DataService получает данные о своевременности доставок из хранилища
type DataService struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewDataService создает новый экземпляр DataService
func NewDataService(db *sql.DB, logger *utils.ETLLogger) *DataService {
	return &DataService{
		db:     db,
		logger: logger,
	}
}

// GetOnTimeData получает процент своевременных доставок по дням
// за последние periodDays дней из daily_totals
// Для каждой даты берётся строка последнего батча
func (s *DataService) GetOnTimeData(periodDays int) ([]DataPoint, error) {
	s.logger.Debug("Получение данных о своевременности за последние %d дней", periodDays)

	since := time.Now().AddDate(0, 0, -periodDays)

	query := `
		SELECT t.date_update, t.on_time_percentage
		FROM daily_totals t
		JOIN (
			SELECT date_update, MAX(etl_batch_id) AS max_batch
			FROM daily_totals
			WHERE date_update >= ?
			GROUP BY date_update
		) latest
			ON t.date_update = latest.date_update AND t.etl_batch_id = latest.max_batch
		ORDER BY t.date_update
	`

	rows, err := s.db.Query(query, since)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса данных о своевременности: %w", err)
	}
	defer rows.Close()

	var points []DataPoint
	for rows.Next() {
		var date time.Time
		var onTimePct float64
		if err := rows.Scan(&date, &onTimePct); err != nil {
			return nil, fmt.Errorf("ошибка сканирования данных о своевременности: %w", err)
		}

		points = append(points, DataPoint{
			Y:    onTimePct,
			Date: date,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по данным о своевременности: %w", err)
	}

	// Нумеруем дни относительно начала периода
	for i := range points {
		points[i].X = float64(i + 1)
	}

	s.logger.Debug("Получено %d точек данных о своевременности", len(points))
	return points, nil
}
