package dimensions

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// DriverAttributes содержит отслеживаемые атрибуты водителя из батча
type DriverAttributes struct {
	FullName      string
	LicenseNumber string
}

// DriverResolver разрешает суррогатные ключи измерения водителей
// Измерение ведётся по схеме SCD Type 2: изменение отслеживаемых атрибутов
// закрывает текущую версию и создаёт новую с новым суррогатным ключом
type DriverResolver struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewDriverResolver создает новый экземпляр DriverResolver
func NewDriverResolver(db *sql.DB, logger *utils.ETLLogger) *DriverResolver {
	return &DriverResolver{
		db:     db,
		logger: logger,
	}
}

// Resolve разрешает ключи водителей для батча доставок
func (r *DriverResolver) Resolve(deliveries []models.EnrichedDelivery) (map[int]int, error) {
	// Собираем уникальных водителей батча с отслеживаемыми атрибутами
	incoming := CollectDrivers(deliveries)
	if len(incoming) == 0 {
		return map[int]int{}, nil
	}

	driverIDs := make([]int, 0, len(incoming))
	for driverID := range incoming {
		driverIDs = append(driverIDs, driverID)
	}
	sort.Ints(driverIDs)

	// Получаем текущие версии измерения для ключей батча
	current, err := r.selectCurrentVersions(driverIDs)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения текущих записей dim_driver: %w", err)
	}

	// Определяем новых водителей и водителей с изменившимися атрибутами
	newIDs, changed := PlanDriverChanges(incoming, current)

	// Применяем изменения одной транзакцией: закрытие старых версий
	// и вставка новых выполняются как единое целое
	if len(newIDs) > 0 || len(changed) > 0 {
		if err := r.applyChanges(newIDs, changed, incoming); err != nil {
			return nil, fmt.Errorf("ошибка применения изменений dim_driver: %w", err)
		}
		r.logger.Info("Измерение водителей: новых записей %d, версионировано %d", len(newIDs), len(changed))

		// Перечитываем ключи после вставки
		current, err = r.selectCurrentVersions(driverIDs)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения ключей после вставки в dim_driver: %w", err)
		}
	}

	keys := make(map[int]int, len(current))
	for driverID, version := range current {
		keys[driverID] = version.DriverKey
	}

	return keys, nil
}

// CollectDrivers собирает уникальных водителей батча
func CollectDrivers(deliveries []models.EnrichedDelivery) map[int]DriverAttributes {
	incoming := make(map[int]DriverAttributes)
	for _, delivery := range deliveries {
		if _, exists := incoming[delivery.DriverID]; !exists {
			incoming[delivery.DriverID] = DriverAttributes{
				FullName:      delivery.DriverFullName,
				LicenseNumber: delivery.DriverLicenseNumber,
			}
		}
	}
	return incoming
}

// PlanDriverChanges сравнивает водителей батча с текущими версиями измерения
// Возвращает ключи новых водителей и текущие версии, подлежащие закрытию
// из-за изменения отслеживаемых атрибутов
func PlanDriverChanges(incoming map[int]DriverAttributes, current map[int]models.DriverDimension) ([]int, []models.DriverDimension) {
	var newIDs []int
	var changed []models.DriverDimension

	for driverID, attrs := range incoming {
		version, exists := current[driverID]
		if !exists {
			newIDs = append(newIDs, driverID)
			continue
		}

		if version.FullName != attrs.FullName || version.LicenseNumber != attrs.LicenseNumber {
			changed = append(changed, version)
		}
	}

	sort.Ints(newIDs)
	sort.Slice(changed, func(i, j int) bool { return changed[i].DriverID < changed[j].DriverID })

	return newIDs, changed
}

// selectCurrentVersions получает текущие версии измерения для ключей батча
func (r *DriverResolver) selectCurrentVersions(driverIDs []int) (map[int]models.DriverDimension, error) {
	query := fmt.Sprintf(`
		SELECT driver_key, driver_id, full_name, license_number
		FROM dim_driver
		WHERE is_current = TRUE AND driver_id IN (%s)
	`, placeholders(len(driverIDs)))

	rows, err := r.db.Query(query, intArgs(driverIDs)...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса текущих водителей: %w", err)
	}
	defer rows.Close()

	current := make(map[int]models.DriverDimension)
	for rows.Next() {
		var version models.DriverDimension
		if err := rows.Scan(&version.DriverKey, &version.DriverID, &version.FullName, &version.LicenseNumber); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи водителя: %w", err)
		}
		current[version.DriverID] = version
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по водителям: %w", err)
	}

	return current, nil
}

// applyChanges закрывает изменившиеся версии и вставляет новые
// в одной транзакции
func (r *DriverResolver) applyChanges(newIDs []int, changed []models.DriverDimension, incoming map[int]DriverAttributes) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	closeDate := today()
	validTo := models.OpenEndedValidTo()

	// Закрываем текущие версии изменившихся водителей
	if len(changed) > 0 {
		closeKeys := make([]int, 0, len(changed))
		for _, version := range changed {
			closeKeys = append(closeKeys, version.DriverKey)
		}

		closeQuery := fmt.Sprintf(`
			UPDATE dim_driver
			SET is_current = FALSE, valid_to = ?
			WHERE driver_key IN (%s)
		`, placeholders(len(closeKeys)))

		args := append([]interface{}{closeDate}, intArgs(closeKeys)...)
		if _, err := tx.Exec(closeQuery, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка закрытия версий dim_driver: %w", err)
		}
	}

	// Вставляем новые текущие версии: для новых водителей
	// и для водителей с изменившимися атрибутами
	insertIDs := make([]int, 0, len(newIDs)+len(changed))
	insertIDs = append(insertIDs, newIDs...)
	for _, version := range changed {
		insertIDs = append(insertIDs, version.DriverID)
	}

	if len(insertIDs) > 0 {
		valueRows := make([]string, 0, len(insertIDs))
		args := make([]interface{}, 0, len(insertIDs)*5)
		for _, driverID := range insertIDs {
			attrs := incoming[driverID]
			valueRows = append(valueRows, "(?, ?, ?, 'Active', TRUE, ?, ?)")
			args = append(args, driverID, attrs.FullName, attrs.LicenseNumber, closeDate, validTo)
		}

		insertQuery := fmt.Sprintf(`
			INSERT INTO dim_driver
			(driver_id, full_name, license_number, status, is_current, valid_from, valid_to)
			VALUES %s
		`, strings.Join(valueRows, ", "))

		if _, err := tx.Exec(insertQuery, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("ошибка вставки в dim_driver: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}
