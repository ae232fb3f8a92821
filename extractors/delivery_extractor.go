package extractors

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// DeliveryExtractor извлекает данные о доставках из OLTP БД
type DeliveryExtractor struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewDeliveryExtractor создает новый экземпляр DeliveryExtractor
func NewDeliveryExtractor(db *sql.DB, logger *utils.ETLLogger) *DeliveryExtractor {
	return &DeliveryExtractor{
		db:     db,
		logger: logger,
	}
}

// ExtractDeliveries извлекает доставки за окно [from, to),
// соединённые со справочными данными о рейсах, водителях,
// маршрутах и транспортных средствах
func (e *DeliveryExtractor) ExtractDeliveries(from, to time.Time) ([]models.DeliveryOLTP, error) {
	e.logger.Debug("Начало извлечения данных о доставках (окно: [%v, %v))", from, to)

	query := `
		SELECT
			t2.vehicle_id,
			t2.driver_id,
			t2.route_id,
			t1.delivery_id,
			t1.trip_id,
			t1.tracking_number,
			t1.package_weight_kg,
			t4.distance_km,
			t2.fuel_consumed_liters,
			t1.delivered_datetime,
			t1.delivery_status,
			t1.scheduled_datetime,
			t2.departure_datetime,
			t4.estimated_duration_hours,
			t4.toll_cost,
			t1.recipient_signature,
			t2.arrival_datetime,
			t1.customer_name,
			t4.destination_city,
			t5.license_plate,
			t3.full_name,
			t3.license_number
		FROM resources.deliveries t1
		JOIN resources.trips t2
			ON t1.trip_id = t2.trip_id
		JOIN persons.drivers t3
			ON t2.driver_id = t3.driver_id
		JOIN resources.routes t4
			ON t2.route_id = t4.route_id
		JOIN resources.vehicles t5
			ON t2.vehicle_id = t5.vehicle_id
		WHERE t1.delivered_datetime >= $1
		AND t1.delivered_datetime < $2
	`

	// Выполняем запрос
	rows, err := e.db.Query(query, from, to)
	if err != nil {
		e.logger.Error("Ошибка при извлечении данных о доставках: %v", err)
		return nil, fmt.Errorf("ошибка запроса доставок: %w", err)
	}
	defer rows.Close()

	// Обрабатываем результаты
	var deliveries []models.DeliveryOLTP
	for rows.Next() {
		var delivery models.DeliveryOLTP
		if err := rows.Scan(
			&delivery.VehicleID,
			&delivery.DriverID,
			&delivery.RouteID,
			&delivery.DeliveryID,
			&delivery.TripID,
			&delivery.TrackingNumber,
			&delivery.PackageWeightKg,
			&delivery.DistanceKm,
			&delivery.FuelConsumedLiters,
			&delivery.DeliveredDatetime,
			&delivery.DeliveryStatus,
			&delivery.ScheduledDatetime,
			&delivery.DepartureDatetime,
			&delivery.EstimatedDurationHours,
			&delivery.TollCost,
			&delivery.RecipientSignature,
			&delivery.ArrivalDatetime,
			&delivery.CustomerName,
			&delivery.DestinationCity,
			&delivery.LicensePlate,
			&delivery.DriverFullName,
			&delivery.DriverLicenseNumber,
		); err != nil {
			e.logger.Error("Ошибка при обработке данных доставки: %v", err)
			return nil, fmt.Errorf("ошибка обработки данных доставки: %w", err)
		}
		deliveries = append(deliveries, delivery)
	}

	// Проверяем ошибки после итерации по результатам
	if err = rows.Err(); err != nil {
		e.logger.Error("Ошибка после итерации по доставкам: %v", err)
		return nil, fmt.Errorf("ошибка после итерации по доставкам: %w", err)
	}

	e.logger.Debug("Извлечено %d доставок", len(deliveries))
	return deliveries, nil
}

// GetMaxDeliveredTime получает максимальное время доставки в источнике
// Используется как верхняя (исключаемая) граница окна извлечения
func (e *DeliveryExtractor) GetMaxDeliveredTime() (time.Time, error) {
	var maxDelivered sql.NullTime

	err := e.db.QueryRow("SELECT MAX(delivered_datetime) FROM resources.deliveries").Scan(&maxDelivered)
	if err != nil {
		if err == sql.ErrNoRows {
			// Если нет доставок, возвращаем нулевое время
			return time.Time{}, nil
		}
		e.logger.Error("Ошибка при получении максимального времени доставки: %v", err)
		return time.Time{}, fmt.Errorf("ошибка получения максимального времени доставки: %w", err)
	}

	if !maxDelivered.Valid {
		return time.Time{}, nil
	}

	return maxDelivered.Time, nil
}
