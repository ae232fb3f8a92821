package dimensions

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// VehicleResolver разрешает суррогатные ключи измерения транспортных средств
// Измерение ведётся по схеме SCD Type 2: смена государственного номера
// закрывает текущую версию и создаёт новую
type VehicleResolver struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewVehicleResolver создает новый экземпляр VehicleResolver
func NewVehicleResolver(db *sql.DB, logger *utils.ETLLogger) *VehicleResolver {
	return &VehicleResolver{
		db:     db,
		logger: logger,
	}
}

// Resolve разрешает ключи транспортных средств для батча доставок
func (r *VehicleResolver) Resolve(deliveries []models.EnrichedDelivery) (map[int]int, error) {
	// Собираем уникальные транспортные средства батча
	incoming := CollectVehicles(deliveries)
	if len(incoming) == 0 {
		return map[int]int{}, nil
	}

	vehicleIDs := make([]int, 0, len(incoming))
	for vehicleID := range incoming {
		vehicleIDs = append(vehicleIDs, vehicleID)
	}
	sort.Ints(vehicleIDs)

	// Получаем текущие версии измерения для ключей батча
	current, err := r.selectCurrentVersions(vehicleIDs)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения текущих записей dim_vehicle: %w", err)
	}

	// Определяем новые ТС и ТС с изменившимся номером
	newIDs, changed := PlanVehicleChanges(incoming, current)

	if len(newIDs) > 0 || len(changed) > 0 {
		if err := r.applyChanges(newIDs, changed, incoming); err != nil {
			return nil, fmt.Errorf("ошибка применения изменений dim_vehicle: %w", err)
		}
		r.logger.Info("Измерение транспортных средств: новых записей %d, версионировано %d", len(newIDs), len(changed))

		// Перечитываем ключи после вставки
		current, err = r.selectCurrentVersions(vehicleIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения ключей после вставки в dim_vehicle: %w", err)
		}
	}

	keys := make(map[int]int, len(current))
	for vehicleID, version := range current {
		keys[vehicleID] = version.VehicleKey
	}

	return keys, nil
}

// CollectVehicles собирает уникальные транспортные средства батча
// Возвращает соответствие ID транспортного средства его номеру
func CollectVehicles(deliveries []models.EnrichedDelivery) map[int]string {
	incoming := make(map[int]string)
	for _, delivery := range deliveries {
		if _, exists := incoming[delivery.VehicleID]; !exists {
			incoming[delivery.VehicleID] = delivery.LicensePlate
		}
	}
	return incoming
}

// PlanVehicleChanges сравнивает транспортные средства батча с текущими
// версиями измерения
func PlanVehicleChanges(incoming map[int]string, current map[int]models.VehicleDimension) ([]int, []models.VehicleDimension) {
	var newIDs []int
	var changed []models.VehicleDimension

	for vehicleID, licensePlate := range incoming {
		version, exists := current[vehicleID]
		if !exists {
			newIDs = append(newIDs, vehicleID)
			continue
		}

		if version.LicensePlate != licensePlate {
			changed = append(changed, version)
		}
	}

	sort.Ints(newIDs)
	sort.Slice(changed, func(i, j int) bool { return changed[i].VehicleID < changed[j].VehicleID })

	return newIDs, changed
}

// selectCurrentVersions получает текущие версии измерения для ключей батча
func (r *VehicleResolver) selectCurrentVersions(vehicleIDs []int) (map[int]models.VehicleDimension, error) {
	query := fmt.Sprintf(`
		SELECT vehicle_key, vehicle_id, license_plate
		FROM dim_vehicle
		WHERE is_current = TRUE AND vehicle_id IN (%s)
	`, placeholders(len(vehicleIDs)))

	rows, err := r.db.Query(query, intArgs(vehicleIDs)...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса текущих транспортных средств: %w", err)
	}
	defer rows.Close()

	current := make(map[int]models.VehicleDimension)
	for rows.Next() {
		var version models.VehicleDimension
		if err := rows.Scan(&version.VehicleKey, &version.VehicleID, &version.LicensePlate); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи транспортного средства: %w", err)
		}
		current[version.VehicleID] = version
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по транспортным средствам: %w", err)
	}

	return current, nil
}

// applyChanges закрывает изменившиеся версии и вставляет новые
// в одной транзакции
func (r *VehicleResolver) applyChanges(newIDs []int, changed []models.VehicleDimension, incoming map[int]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	closeDate := today()
	validTo := models.OpenEndedValidTo()

	// Закрываем текущие версии изменившихся ТС
	if len(changed) > 0 {
		closeKeys := make([]int, 0, len(changed))
		for _, version := range changed {
			closeKeys = append(closeKeys, version.VehicleKey)
		}

		closeQuery := fmt.Sprintf(`
			UPDATE dim_vehicle
			SET is_current = FALSE, valid_to = ?
			WHERE vehicle_key IN (%s)
		`, placeholders(len(closeKeys)))

		args := append([]interface{}{closeDate}, intArgs(closeKeys)...)
		if _, err := tx.Exec(closeQuery, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка закрытия версий dim_vehicle: %w", err)
		}
	}

	// Вставляем новые текущие версии
	insertIDs := make([]int, 0, len(newIDs)+len(changed))
	insertIDs = append(insertIDs, newIDs...)
	for _, version := range changed {
		insertIDs = append(insertIDs, version.VehicleID)
	}

	if len(insertIDs) > 0 {
		valueRows := make([]string, 0, len(insertIDs))
		args := make([]interface{}, 0, len(insertIDs)*4)
		for _, vehicleID := range insertIDs {
			valueRows = append(valueRows, "(?, ?, 'Active', TRUE, ?, ?)")
			args = append(args, vehicleID, incoming[vehicleID], closeDate, validTo)
		}

		insertQuery := fmt.Sprintf(`
			INSERT INTO dim_vehicle
			(vehicle_id, license_plate, status, is_current, valid_from, valid_to)
			VALUES %s
		`, strings.Join(valueRows, ", "))

		if _, err := tx.Exec(insertQuery, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка вставки в dim_vehicle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}
