package load

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// DailyTotalsLoader отвечает за расчёт и загрузку ежедневных итогов
// Единственный писатель таблицы daily_totals; строки только добавляются
type DailyTotalsLoader struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewDailyTotalsLoader создает новый экземпляр DailyTotalsLoader
func NewDailyTotalsLoader(db *sql.DB, logger *utils.ETLLogger) *DailyTotalsLoader {
	return &DailyTotalsLoader{
		db:     db,
		logger: logger,
	}
}

// round2 округляет значение до 2 знаков после запятой
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// dateFromKey восстанавливает дату из ключа факта формата YYYYMMDD
func dateFromKey(dateKey int) time.Time {
	year := dateKey / 10000
	month := (dateKey / 100) % 100
	day := dateKey % 100
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// AggregateDailyTotals рассчитывает итоговые строки по фактам,
// загруженным текущим запуском: одна строка на пару (дата, batch_id)
func AggregateDailyTotals(facts []models.DeliveryFact, batchID int64) []models.DailyTotals {
	if len(facts) == 0 {
		return nil
	}

	// Группируем факты по ключу даты
	factsByDate := make(map[int][]models.DeliveryFact)
	for _, fact := range facts {
		factsByDate[fact.DateKey] = append(factsByDate[fact.DateKey], fact)
	}

	dateKeys := make([]int, 0, len(factsByDate))
	for dateKey := range factsByDate {
		dateKeys = append(dateKeys, dateKey)
	}
	sort.Ints(dateKeys)

	totals := make([]models.DailyTotals, 0, len(dateKeys))

	for _, dateKey := range dateKeys {
		dayFacts := factsByDate[dateKey]

		row := models.DailyTotals{
			DateUpdate:      dateFromKey(dateKey),
			ETLBatchID:      batchID,
			TotalDeliveries: len(dayFacts),
		}

		vehicles := make(map[int]bool)
		drivers := make(map[int]bool)
		routes := make(map[int]bool)
		customers := make(map[int]bool)

		var sumDeliveryTime, sumDelay, sumPerHour, sumEfficiency float64
		onTimeCount := 0

		for _, fact := range dayFacts {
			vehicles[fact.VehicleKey] = true
			drivers[fact.DriverKey] = true
			routes[fact.RouteKey] = true
			customers[fact.CustomerKey] = true

			row.TotalPackageWeightKg += fact.PackageWeightKg
			row.TotalDistanceKm += fact.DistanceKm
			row.TotalFuelConsumedLiters += fact.FuelConsumedLiters
			row.TotalCostPerDelivery += fact.CostPerDelivery
			row.TotalRevenuePerDelivery += fact.RevenuePerDelivery

			sumDeliveryTime += fact.DeliveryTimeMinutes
			sumDelay += fact.DelayMinutes
			sumPerHour += fact.DeliveriesPerHour
			sumEfficiency += fact.FuelEfficiencyKmPerLiter

			if fact.IsOnTime {
				onTimeCount++
			}
		}

		count := float64(len(dayFacts))

		row.TotalVehicles = len(vehicles)
		row.TotalDrivers = len(drivers)
		row.TotalRoutes = len(routes)
		row.TotalCustomers = len(customers)

		row.TotalPackageWeightKg = round2(row.TotalPackageWeightKg)
		row.TotalDistanceKm = round2(row.TotalDistanceKm)
		row.TotalFuelConsumedLiters = round2(row.TotalFuelConsumedLiters)
		row.TotalCostPerDelivery = round2(row.TotalCostPerDelivery)
		row.TotalRevenuePerDelivery = round2(row.TotalRevenuePerDelivery)

		row.AvgDeliveryTimeMinutes = round2(sumDeliveryTime / count)
		row.AvgDelayMinutes = round2(sumDelay / count)
		row.AvgDeliveriesPerHour = round2(sumPerHour / count)
		row.AvgFuelEfficiencyKmPerLiter = round2(sumEfficiency / count)

		// Процент своевременных доставок
		row.OnTimePercentage = round2(float64(onTimeCount) / count * 100)

		totals = append(totals, row)
	}

	return totals
}

// EnsureTable создает таблицу daily_totals, если она не существует
func (l *DailyTotalsLoader) EnsureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS daily_totals (
		date_update DATE NOT NULL,
		etl_batch_id BIGINT NOT NULL,
		total_deliveries INT,
		total_vehicles INT,
		total_drivers INT,
		total_routes INT,
		total_customers INT,
		total_package_weight_kg DECIMAL(10,2),
		total_distance_km DECIMAL(10,2),
		total_fuel_consumed_liters DECIMAL(10,2),
		avg_delivery_time_minutes DECIMAL(10,2),
		avg_delay_minutes DECIMAL(10,2),
		avg_deliveries_per_hour DECIMAL(5,2),
		avg_fuel_efficiency_km_per_liter DECIMAL(5,2),
		total_cost_per_delivery DECIMAL(12,2),
		total_revenue_per_delivery DECIMAL(12,2),
		on_time_percentage DECIMAL(5,2),
		PRIMARY KEY (date_update, etl_batch_id)
	);
	`

	if _, err := l.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка при создании таблицы daily_totals: %w", err)
	}

	return nil
}

// Load загружает итоговые строки в daily_totals
func (l *DailyTotalsLoader) Load(totals []models.DailyTotals) error {
	if len(totals) == 0 {
		l.logger.Debug("Нет ежедневных итогов для загрузки")
		return nil
	}

	startTime := time.Now()
	l.logger.Info("Начало загрузки ежедневных итогов (всего: %d)", len(totals))

	// Подготавливаем запрос для вставки в daily_totals
	stmt, err := l.db.Prepare(`
		INSERT INTO daily_totals (
			date_update, etl_batch_id,
			total_deliveries, total_vehicles, total_drivers, total_routes, total_customers,
			total_package_weight_kg, total_distance_km, total_fuel_consumed_liters,
			avg_delivery_time_minutes, avg_delay_minutes,
			avg_deliveries_per_hour, avg_fuel_efficiency_km_per_liter,
			total_cost_per_delivery, total_revenue_per_delivery, on_time_percentage
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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

	for _, row := range totals {
		_, err := txStmt.Exec(
			row.DateUpdate,
			row.ETLBatchID,
			row.TotalDeliveries,
			row.TotalVehicles,
			row.TotalDrivers,
			row.TotalRoutes,
			row.TotalCustomers,
			row.TotalPackageWeightKg,
			row.TotalDistanceKm,
			row.TotalFuelConsumedLiters,
			row.AvgDeliveryTimeMinutes,
			row.AvgDelayMinutes,
			row.AvgDeliveriesPerHour,
			row.AvgFuelEfficiencyKmPerLiter,
			row.TotalCostPerDelivery,
			row.TotalRevenuePerDelivery,
			row.OnTimePercentage,
		)
		if err != nil {
			tx.Rollback()
			l.logger.Error("Ошибка при вставке итогов за дату %s: %v", row.DateUpdate.Format("2006-01-02"), err)
			return fmt.Errorf("ошибка вставки итогов за дату %s: %w", row.DateUpdate.Format("2006-01-02"), err)
		}
	}

	// Фиксируем транзакцию
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	duration := time.Since(startTime)
	l.logger.Info("Загрузка ежедневных итогов завершена. Загружено строк: %d. Длительность: %v", len(totals), duration)

	return nil
}
