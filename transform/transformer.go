package transform

import (
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// Transformer координирует процесс преобразования извлечённых данных
// в обогащённые записи для загрузки в хранилище
// Исходные данные не изменяются
type Transformer struct {
	logger *utils.ETLLogger
}

// NewTransformer создает новый экземпляр Transformer
func NewTransformer(logger *utils.ETLLogger) *Transformer {
	return &Transformer{
		logger: logger,
	}
}

// Transform выполняет полный процесс преобразования извлечённых данных
// Рассчитывает производные метрики, применяет проверки качества
// и заполняет поля версионирования SCD
func (t *Transformer) Transform(extractedData *models.ExtractedData) (*models.TransformedData, error) {
	startTime := time.Now()
	t.logger.Info("Начало фазы Transform (Преобразование данных)")

	// Создаем структуру для хранения трансформированных данных
	transformedData := &models.TransformedData{}

	if len(extractedData.Deliveries) == 0 {
		t.logger.Info("Нет данных для преобразования")
		return transformedData, nil
	}

	// 1. Считаем количество доставок на рейс в текущем батче
	// Подсчёт выполняется до проверок качества, как и расчёт метрик
	deliveriesPerTrip := countDeliveriesPerTrip(extractedData.Deliveries)

	// 2. Рассчитываем метрики и применяем проверки качества
	transformedData.Deliveries = make([]models.EnrichedDelivery, 0, len(extractedData.Deliveries))

	for _, delivery := range extractedData.Deliveries {
		enriched := ComputeDeliveryMetrics(delivery, deliveriesPerTrip[delivery.TripID])

		// Строки, не прошедшие проверки качества, отбрасываются и учитываются,
		// но не прерывают запуск
		if !PassesQualityGates(enriched) {
			transformedData.QualityRejected++
			t.logger.Debug("Доставка %d отброшена проверками качества (время: %.2f мин, вес: %.2f кг)",
				enriched.DeliveryID, enriched.DeliveryTimeMinutes, enriched.PackageWeightKg)
			continue
		}

		// 3. Заполняем поля версионирования SCD
		StampSCDFields(&enriched)

		transformedData.Deliveries = append(transformedData.Deliveries, enriched)
	}

	if transformedData.QualityRejected > 0 {
		t.logger.Info("Отброшено проверками качества: %d строк", transformedData.QualityRejected)
	}

	duration := time.Since(startTime)
	t.logger.Info("Фаза Transform завершена. Трансформировано записей: %d. Длительность: %v",
		len(transformedData.Deliveries), duration)

	return transformedData, nil
}

// countDeliveriesPerTrip подсчитывает количество доставок каждого рейса в батче
func countDeliveriesPerTrip(deliveries []models.DeliveryOLTP) map[int]int {
	deliveriesPerTrip := make(map[int]int)
	for _, delivery := range deliveries {
		deliveriesPerTrip[delivery.TripID]++
	}
	return deliveriesPerTrip
}
