package dimensions

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// RouteAttributes содержит атрибуты маршрута из батча
type RouteAttributes struct {
	DestinationCity        string
	DistanceKm             float64
	EstimatedDurationHours float64
	TollCost               float64
}

// RouteResolver разрешает суррогатные ключи измерения маршрутов
// Новые маршруты создаются с атрибутами из батча,
// существующие записи не изменяются
type RouteResolver struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewRouteResolver создает новый экземпляр RouteResolver
func NewRouteResolver(db *sql.DB, logger *utils.ETLLogger) *RouteResolver {
	return &RouteResolver{
		db:     db,
		logger: logger,
	}
}

// Resolve разрешает ключи маршрутов для батча доставок
func (r *RouteResolver) Resolve(deliveries []models.EnrichedDelivery) (map[int]int, error) {
	// Собираем уникальные маршруты батча
	incoming := CollectRoutes(deliveries)
	if len(incoming) == 0 {
		return map[int]int{}, nil
	}

	routeIDs := make([]int, 0, len(incoming))
	for routeID := range incoming {
		routeIDs = append(routeIDs, routeID)
	}
	sort.Ints(routeIDs)

	// Получаем текущие записи измерения для ключей батча
	current, err := r.selectCurrentKeys(routeIDs)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения текущих записей dim_route: %w", err)
	}

	// Определяем новые маршруты
	newIDs := PlanNewRoutes(incoming, current)

	if len(newIDs) > 0 {
		if err := r.insertNewRoutes(newIDs, incoming); err != nil {
			return nil, fmt.Errorf("ошибка вставки новых маршрутов: %w", err)
		}
		r.logger.Info("Создано новых маршрутов в dim_route: %d", len(newIDs))

		// Перечитываем ключи после вставки
		current, err = r.selectCurrentKeys(routeIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения ключей после вставки в dim_route: %w", err)
		}
	}

	return current, nil
}

// CollectRoutes собирает уникальные маршруты батча с их атрибутами
func CollectRoutes(deliveries []models.EnrichedDelivery) map[int]RouteAttributes {
	incoming := make(map[int]RouteAttributes)
	for _, delivery := range deliveries {
		if _, exists := incoming[delivery.RouteID]; !exists {
			incoming[delivery.RouteID] = RouteAttributes{
				DestinationCity:        delivery.DestinationCity,
				DistanceKm:             delivery.DistanceKm,
				EstimatedDurationHours: delivery.EstimatedDurationHours,
				TollCost:               delivery.TollCost,
			}
		}
	}
	return incoming
}

// PlanNewRoutes определяет маршруты батча, отсутствующие в измерении
func PlanNewRoutes(incoming map[int]RouteAttributes, current map[int]int) []int {
	var newIDs []int
	for routeID := range incoming {
		if _, exists := current[routeID]; !exists {
			newIDs = append(newIDs, routeID)
		}
	}
	sort.Ints(newIDs)
	return newIDs
}

// selectCurrentKeys получает суррогатные ключи текущих записей измерения
func (r *RouteResolver) selectCurrentKeys(routeIDs []int) (map[int]int, error) {
	query := fmt.Sprintf(`
		SELECT route_key, route_id
		FROM dim_route
		WHERE is_current = TRUE AND route_id IN (%s)
	`, placeholders(len(routeIDs)))

	rows, err := r.db.Query(query, intArgs(routeIDs)...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса текущих маршрутов: %w", err)
	}
	defer rows.Close()

	current := make(map[int]int)
	for rows.Next() {
		var key, routeID int
		if err := rows.Scan(&key, &routeID); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи маршрута: %w", err)
		}
		current[routeID] = key
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по маршрутам: %w", err)
	}

	return current, nil
}

// insertNewRoutes вставляет новые маршруты одной операцией
func (r *RouteResolver) insertNewRoutes(newIDs []int, incoming map[int]RouteAttributes) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	validFrom := today()
	validTo := models.OpenEndedValidTo()

	valueRows := make([]string, 0, len(newIDs))
	args := make([]interface{}, 0, len(newIDs)*7)
	for _, routeID := range newIDs {
		attrs := incoming[routeID]
		valueRows = append(valueRows, "(?, ?, ?, ?, ?, TRUE, ?, ?)")
		args = append(args, routeID, attrs.DestinationCity, attrs.DistanceKm,
			attrs.EstimatedDurationHours, attrs.TollCost, validFrom, validTo)
	}

	query := fmt.Sprintf(`
		INSERT INTO dim_route
		(route_id, destination_city, distance_km, estimated_duration_hours,
		toll_cost, is_current, valid_from, valid_to)
		VALUES %s
	`, strings.Join(valueRows, ", "))

	if _, err := tx.Exec(query, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка вставки в dim_route: %w", err)
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}
