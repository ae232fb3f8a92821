package load

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// FactLoader отвечает за построение и загрузку фактов доставок
// Единственный писатель таблицы fact_deliveries
type FactLoader struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewFactLoader создает новый экземпляр FactLoader
func NewFactLoader(db *sql.DB, logger *utils.ETLLogger) *FactLoader {
	return &FactLoader{
		db:     db,
		logger: logger,
	}
}

// DateKey возвращает ключ даты в формате YYYYMMDD
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// TimeKey возвращает ключ времени суток в формате HH00
func TimeKey(t time.Time) int {
	return t.Hour() * 100
}

// BuildFacts строит факты доставок из обогащённых записей
// Суррогатные ключи измерений берутся из соответствий, разрешённых
// для батча; при отсутствии соответствия (неудачная загрузка измерения)
// используется натуральный ключ, для клиента - ключ-заглушка 1
func BuildFacts(deliveries []models.EnrichedDelivery, keys *models.DimensionKeys, batchID int64) []models.DeliveryFact {
	facts := make([]models.DeliveryFact, 0, len(deliveries))

	for _, delivery := range deliveries {
		fact := models.DeliveryFact{
			DateKey:                  DateKey(delivery.ScheduledDatetime),
			ScheduledTimeKey:         TimeKey(delivery.ScheduledDatetime),
			DeliveredTimeKey:         TimeKey(delivery.DeliveredDatetime),
			DeliveryID:               delivery.DeliveryID,
			TripID:                   delivery.TripID,
			TrackingNumber:           delivery.TrackingNumber,
			PackageWeightKg:          delivery.PackageWeightKg,
			DistanceKm:               delivery.DistanceKm,
			FuelConsumedLiters:       delivery.FuelConsumedLiters,
			DeliveryTimeMinutes:      delivery.DeliveryTimeMinutes,
			DelayMinutes:             delivery.DelayMinutes,
			DeliveriesPerHour:        delivery.DeliveriesPerHour,
			FuelEfficiencyKmPerLiter: delivery.FuelEfficiencyKmPerLiter,
			CostPerDelivery:          delivery.CostPerDelivery,
			RevenuePerDelivery:       delivery.RevenuePerDelivery,
			IsOnTime:                 delivery.IsOnTime,
			IsDamaged:                false,
			HasSignature:             delivery.RecipientSignature,
			DeliveryStatus:           delivery.DeliveryStatus,
			ETLBatchID:               batchID,
		}

		// Разрешаем суррогатные ключи измерений
		if key, exists := keys.Vehicles[delivery.VehicleID]; exists {
			fact.VehicleKey = key
		} else {
			fact.VehicleKey = delivery.VehicleID
		}

		if key, exists := keys.Drivers[delivery.DriverID]; exists {
			fact.DriverKey = key
		} else {
			fact.DriverKey = delivery.DriverID
		}

		if key, exists := keys.Routes[delivery.RouteID]; exists {
			fact.RouteKey = key
		} else {
			fact.RouteKey = delivery.RouteID
		}

		if key, exists := keys.Customers[delivery.CustomerName]; exists {
			fact.CustomerKey = key
		} else {
			fact.CustomerKey = 1
		}

		facts = append(facts, fact)
	}

	return facts
}

// Load загружает факты доставок одним атомарным батчем
// Либо фиксируются все строки запуска, либо ни одной
func (l *FactLoader) Load(facts []models.DeliveryFact) error {
	if len(facts) == 0 {
		l.logger.Debug("Нет фактов доставок для загрузки")
		return nil
	}

	startTime := time.Now()
	l.logger.Info("Начало загрузки фактов доставок (всего: %d)", len(facts))

	// Подготавливаем запрос для вставки в fact_deliveries
	stmt, err := l.db.Prepare(`
		INSERT INTO fact_deliveries (
			date_key, scheduled_time_key, delivered_time_key,
			vehicle_key, driver_key, route_key, customer_key,
			delivery_id, trip_id, tracking_number,
			package_weight_kg, distance_km, fuel_consumed_liters,
			delivery_time_minutes, delay_minutes, deliveries_per_hour,
			fuel_efficiency_km_per_liter, cost_per_delivery, revenue_per_delivery,
			is_on_time, is_damaged, has_signature, delivery_status, etl_batch_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("ошибка при подготовке запроса: %w", err)
	}
	defer stmt.Close()

	// Начинаем транзакцию
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	// Подготавливаем запрос в транзакции
	txStmt := tx.Stmt(stmt)
	defer txStmt.Close()

	// Вставляем каждый факт; любая ошибка откатывает весь батч
	for _, fact := range facts {
		_, err := txStmt.Exec(
			fact.DateKey,
			fact.ScheduledTimeKey,
			fact.DeliveredTimeKey,
			fact.VehicleKey,
			fact.DriverKey,
			fact.RouteKey,
			fact.CustomerKey,
			fact.DeliveryID,
			fact.TripID,
			fact.TrackingNumber,
			fact.PackageWeightKg,
			fact.DistanceKm,
			fact.FuelConsumedLiters,
			fact.DeliveryTimeMinutes,
			fact.DelayMinutes,
			fact.DeliveriesPerHour,
			fact.FuelEfficiencyKmPerLiter,
			fact.CostPerDelivery,
			fact.RevenuePerDelivery,
			fact.IsOnTime,
			fact.IsDamaged,
			fact.HasSignature,
			fact.DeliveryStatus,
			fact.ETLBatchID,
		)
		if err != nil {
			tx.Rollback()
			l.logger.Error("Ошибка при вставке факта доставки %d: %v", fact.DeliveryID, err)
			return fmt.Errorf("ошибка вставки факта доставки %d: %w", fact.DeliveryID, err)
		}
	}

	// Фиксируем транзакцию
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	duration := time.Since(startTime)
	l.logger.Info("Загрузка фактов доставок завершена. Загружено записей: %d. Длительность: %v", len(facts), duration)

	return nil
}
