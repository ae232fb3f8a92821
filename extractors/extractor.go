package extractors

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// Extractor координирует процесс извлечения данных из OLTP
type Extractor struct {
	db                *sql.DB
	logger            *utils.ETLLogger
	deliveryExtractor *DeliveryExtractor
}

// NewExtractor создает новый экземпляр Extractor
func NewExtractor(db *sql.DB, logger *utils.ETLLogger) *Extractor {
	return &Extractor{
		db:                db,
		logger:            logger,
		deliveryExtractor: NewDeliveryExtractor(db, logger),
	}
}

// Extract выполняет извлечение данных из OLTP для ETL процесса
// watermark - верхняя граница окна, обработанная последним успешным запуском;
// нулевое значение означает холодный старт
func (e *Extractor) Extract(watermark time.Time) (*models.ExtractedData, error) {
	startTime := time.Now()

	// Определяем границы окна извлечения [lower, upper)
	lower, upper, err := e.ResolveWindow(watermark)
	if err != nil {
		e.logger.Error("Ошибка при определении окна извлечения: %v", err)
		return nil, fmt.Errorf("ошибка определения окна извлечения: %w", err)
	}

	e.logger.LogExtractStart(lower, upper)

	var extractedData models.ExtractedData
	extractedData.WindowStart = lower
	extractedData.WindowEnd = upper

	// Если в источнике еще нет данных, окно пустое
	if upper.IsZero() {
		e.logger.Info("В источнике нет доставленных посылок, извлечение пропущено")
		return &extractedData, nil
	}

	// Извлекаем доставки за окно
	extractedData.Deliveries, err = e.deliveryExtractor.ExtractDeliveries(lower, upper)
	if err != nil {
		e.logger.Error("Ошибка при извлечении доставок: %v", err)
		return nil, fmt.Errorf("ошибка извлечения доставок: %w", err)
	}

	// Выводим информацию о завершении
	e.logger.LogExtractComplete(len(extractedData.Deliveries), time.Since(startTime))

	return &extractedData, nil
}

// ResolveWindow определяет границы окна извлечения
// Нижняя граница - персистентный watermark последнего успешного запуска;
// при его отсутствии используется max(delivered_datetime) минус сутки.
// Верхняя граница - текущий максимум delivered_datetime (не включается)
func (e *Extractor) ResolveWindow(watermark time.Time) (time.Time, time.Time, error) {
	upper, err := e.deliveryExtractor.GetMaxDeliveredTime()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("ошибка получения верхней границы окна: %w", err)
	}

	if upper.IsZero() {
		return time.Time{}, time.Time{}, nil
	}

	// Верхняя граница не включается в окно, поэтому сдвигаем ее
	// на секунду вперед, чтобы захватить последнюю доставку
	upper = upper.Add(time.Second)

	lower := watermark
	if lower.IsZero() {
		lower = upper.Add(-24 * time.Hour)
	}

	return lower, upper, nil
}
