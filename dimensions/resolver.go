package dimensions

import (
	"database/sql"
	"strings"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// DimensionResolver координирует разрешение суррогатных ключей измерений
// для батча обогащённых доставок
// Каждое измерение обрабатывается как операция над множеством уникальных
// натуральных ключей батча: новые ключи создаются, изменившиеся записи
// SCD Type 2 закрываются и версионируются, существующие не затрагиваются
type DimensionResolver struct {
	db       *sql.DB
	logger   *utils.ETLLogger
	customer *CustomerResolver
	driver   *DriverResolver
	vehicle  *VehicleResolver
	route    *RouteResolver
}

// NewDimensionResolver создает новый экземпляр DimensionResolver
func NewDimensionResolver(db *sql.DB, logger *utils.ETLLogger) *DimensionResolver {
	return &DimensionResolver{
		db:       db,
		logger:   logger,
		customer: NewCustomerResolver(db, logger),
		driver:   NewDriverResolver(db, logger),
		vehicle:  NewVehicleResolver(db, logger),
		route:    NewRouteResolver(db, logger),
	}
}

// Resolve разрешает суррогатные ключи всех измерений для батча
// Ошибка загрузки одного измерения откатывается целиком, учитывается
// и не прерывает обработку остальных измерений и загрузку фактов
// Возвращает соответствия ключей и количество неудавшихся измерений
func (r *DimensionResolver) Resolve(deliveries []models.EnrichedDelivery) (*models.DimensionKeys, int) {
	startTime := time.Now()
	r.logger.Info("Начало разрешения измерений (доставок в батче: %d)", len(deliveries))

	keys := models.NewDimensionKeys()
	failures := 0

	// 1. Измерение клиентов
	customerKeys, err := r.customer.Resolve(deliveries)
	if err != nil {
		r.logger.Error("Ошибка при разрешении измерения клиентов: %v", err)
		failures++
	} else {
		keys.Customers = customerKeys
	}

	// 2. Измерение водителей (SCD Type 2)
	driverKeys, err := r.driver.Resolve(deliveries)
	if err != nil {
		r.logger.Error("Ошибка при разрешении измерения водителей: %v", err)
		failures++
	} else {
		keys.Drivers = driverKeys
	}

	// 3. Измерение транспортных средств (SCD Type 2)
	vehicleKeys, err := r.vehicle.Resolve(deliveries)
	if err != nil {
		r.logger.Error("Ошибка при разрешении измерения транспортных средств: %v", err)
		failures++
	} else {
		keys.Vehicles = vehicleKeys
	}

	// 4. Измерение маршрутов
	routeKeys, err := r.route.Resolve(deliveries)
	if err != nil {
		r.logger.Error("Ошибка при разрешении измерения маршрутов: %v", err)
		failures++
	} else {
		keys.Routes = routeKeys
	}

	duration := time.Since(startTime)
	r.logger.Info("Разрешение измерений завершено. Клиентов: %d, водителей: %d, ТС: %d, маршрутов: %d. Длительность: %v",
		len(keys.Customers), len(keys.Drivers), len(keys.Vehicles), len(keys.Routes), duration)

	return keys, failures
}

// placeholders возвращает строку из n плейсхолдеров "?, ?, ..., ?"
// для построения условий IN
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// intArgs преобразует срез целочисленных ключей в аргументы запроса
func intArgs(keys []int) []interface{} {
	args := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		args = append(args, key)
	}
	return args
}

// stringArgs преобразует срез строковых ключей в аргументы запроса
func stringArgs(keys []string) []interface{} {
	args := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		args = append(args, key)
	}
	return args
}

// today возвращает текущую дату без времени
// Используется как valid_from новых версий и valid_to закрываемых
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
