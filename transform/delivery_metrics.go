package transform

import (
	"math"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
)

// Константы расчёта стоимости и выручки
const (
	// Стоимость литра топлива
	UnitFuelCost = 5000.0

	// Базовый тариф за доставку
	BaseDeliveryFee = 20000.0

	// Тариф за килограмм веса посылки
	PerKgRate = 500.0

	// Порог опоздания в минутах, после которого доставка считается несвоевременной
	OnTimeThresholdMinutes = 30.0
)

// Round2 округляет значение до 2 знаков после запятой
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// ComputeDeliveryMetrics рассчитывает производные метрики для одной доставки
// deliveriesInTrip - количество доставок этого рейса в текущем батче
func ComputeDeliveryMetrics(delivery models.DeliveryOLTP, deliveriesInTrip int) models.EnrichedDelivery {
	enriched := models.EnrichedDelivery{
		DeliveryOLTP:     delivery,
		DeliveriesInTrip: deliveriesInTrip,
	}

	// Время доставки относительно планового времени
	enriched.DeliveryTimeMinutes = Round2(delivery.DeliveredDatetime.Sub(delivery.ScheduledDatetime).Minutes())

	// Опоздание не может быть отрицательным
	enriched.DelayMinutes = math.Max(enriched.DeliveryTimeMinutes, 0)

	// Доставка своевременна при опоздании не более 30 минут
	enriched.IsOnTime = enriched.DelayMinutes <= OnTimeThresholdMinutes

	// Длительность рейса
	enriched.TripDurationHours = Round2(delivery.ArrivalDatetime.Sub(delivery.DepartureDatetime).Hours())

	// Доставок в час за рейс
	enriched.DeliveriesPerHour = Round2(float64(deliveriesInTrip) / enriched.TripDurationHours)

	// Эффективность расхода топлива
	enriched.FuelEfficiencyKmPerLiter = Round2(delivery.DistanceKm / delivery.FuelConsumedLiters)

	// Оценочная стоимость одной доставки рейса
	enriched.CostPerDelivery = Round2(
		(delivery.FuelConsumedLiters*UnitFuelCost + delivery.TollCost) / float64(deliveriesInTrip))

	// Оценочная выручка: базовый тариф плюс тариф за вес
	enriched.RevenuePerDelivery = Round2(BaseDeliveryFee + delivery.PackageWeightKg*PerKgRate)

	return enriched
}

// PassesQualityGates проверяет, проходит ли обогащённая доставка
// проверки качества данных
// Отбрасываются строки с отрицательным временем доставки
// и с весом посылки вне диапазона (0, 10000)
func PassesQualityGates(enriched models.EnrichedDelivery) bool {
	if enriched.DeliveryTimeMinutes < 0 {
		return false
	}

	if enriched.PackageWeightKg <= 0 || enriched.PackageWeightKg >= 10000 {
		return false
	}

	return true
}

// StampSCDFields заполняет поля версионирования SCD для обогащённой доставки
func StampSCDFields(enriched *models.EnrichedDelivery) {
	scheduled := enriched.ScheduledDatetime
	enriched.ValidFrom = time.Date(scheduled.Year(), scheduled.Month(), scheduled.Day(), 0, 0, 0, 0, scheduled.Location())
	enriched.ValidTo = models.OpenEndedValidTo()
	enriched.IsCurrent = true
}
