package dimensions

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// CustomerResolver разрешает суррогатные ключи измерения клиентов
// Натуральный ключ - имя клиента; новые клиенты создаются с атрибутами
// по умолчанию, существующие записи не изменяются
type CustomerResolver struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewCustomerResolver создает новый экземпляр CustomerResolver
func NewCustomerResolver(db *sql.DB, logger *utils.ETLLogger) *CustomerResolver {
	return &CustomerResolver{
		db:     db,
		logger: logger,
	}
}

// Resolve разрешает ключи клиентов для батча доставок
func (r *CustomerResolver) Resolve(deliveries []models.EnrichedDelivery) (map[string]int, error) {
	// Собираем уникальных клиентов батча вместе с городом назначения
	incoming := CollectCustomers(deliveries)
	if len(incoming) == 0 {
		return map[string]int{}, nil
	}

	names := make([]string, 0, len(incoming))
	for name := range incoming {
		names = append(names, name)
	}
	sort.Strings(names)

	// Получаем текущие записи измерения для ключей батча
	current, err := r.selectCurrentKeys(names)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения текущих записей dim_customer: %w", err)
	}

	// Определяем новых клиентов
	newNames := PlanNewCustomers(incoming, current)

	// Вставляем новых клиентов одной операцией в транзакции
	if len(newNames) > 0 {
		if err := r.insertNewCustomers(newNames, incoming); err != nil {
			return nil, fmt.Errorf("ошибка вставки новых клиентов: %w", err)
		}
		r.logger.Info("Создано новых клиентов в dim_customer: %d", len(newNames))

		// Перечитываем ключи, чтобы получить суррогатные ключи вставленных записей
		current, err = r.selectCurrentKeys(names)
		if err != nil {
			return nil, fmt.Errorf("ошибка получения ключей после вставки в dim_customer: %w", err)
		}
	}

	return current, nil
}

// CollectCustomers собирает уникальных клиентов батча
// Возвращает соответствие имени клиента городу назначения
func CollectCustomers(deliveries []models.EnrichedDelivery) map[string]string {
	incoming := make(map[string]string)
	for _, delivery := range deliveries {
		if _, exists := incoming[delivery.CustomerName]; !exists {
			incoming[delivery.CustomerName] = delivery.DestinationCity
		}
	}
	return incoming
}

// PlanNewCustomers определяет клиентов батча, отсутствующих в измерении
// Возвращает отсортированный список имён для детерминированной вставки
func PlanNewCustomers(incoming map[string]string, current map[string]int) []string {
	var newNames []string
	for name := range incoming {
		if _, exists := current[name]; !exists {
			newNames = append(newNames, name)
		}
	}
	sort.Strings(newNames)
	return newNames
}

// selectCurrentKeys получает суррогатные ключи текущих записей измерения
func (r *CustomerResolver) selectCurrentKeys(names []string) (map[string]int, error) {
	query := fmt.Sprintf(`
		SELECT customer_key, customer_name
		FROM dim_customer
		WHERE is_current = TRUE AND customer_name IN (%s)
	`, placeholders(len(names)))

	rows, err := r.db.Query(query, stringArgs(names)...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса текущих клиентов: %w", err)
	}
	defer rows.Close()

	current := make(map[string]int)
	for rows.Next() {
		var key int
		var name string
		if err := rows.Scan(&key, &name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи клиента: %w", err)
		}
		current[name] = key
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по клиентам: %w", err)
	}

	return current, nil
}

// insertNewCustomers вставляет новых клиентов одной операцией
// Атрибуты, отсутствующие в батче, заполняются значениями по умолчанию
func (r *CustomerResolver) insertNewCustomers(newNames []string, incoming map[string]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	validFrom := today()
	validTo := models.OpenEndedValidTo()

	// Формируем многострочную вставку
	valueRows := make([]string, 0, len(newNames))
	args := make([]interface{}, 0, len(newNames)*5)
	for _, name := range newNames {
		valueRows = append(valueRows, "(?, 'Individual', ?, CURRENT_DATE(), 0, 'Regular', TRUE, ?, ?)")
		args = append(args, name, incoming[name], validFrom, validTo)
	}

	query := fmt.Sprintf(`
		INSERT INTO dim_customer
		(customer_name, customer_type, city, first_delivery_date,
		total_deliveries, customer_category, is_current, valid_from, valid_to)
		VALUES %s
	`, strings.Join(valueRows, ", "))

	if _, err := tx.Exec(query, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка вставки в dim_customer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}
