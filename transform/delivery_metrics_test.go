package transform

import (
	"testing"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/stretchr/testify/assert"
)

func newTestDelivery() models.DeliveryOLTP {
	scheduled := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	return models.DeliveryOLTP{
		VehicleID:          7,
		DriverID:           3,
		RouteID:            5,
		DeliveryID:         101,
		TripID:             42,
		TrackingNumber:     "FLX-000101",
		PackageWeightKg:    2.5,
		DistanceKm:         120.0,
		FuelConsumedLiters: 10.0,
		ScheduledDatetime:  scheduled,
		DeliveredDatetime:  scheduled.Add(25 * time.Minute),
		DepartureDatetime:  scheduled.Add(-2 * time.Hour),
		ArrivalDatetime:    scheduled.Add(2 * time.Hour),
		TollCost:           5000.0,
		RecipientSignature: true,
		DeliveryStatus:     "delivered",
		CustomerName:       "Ivan Petrov",
		DestinationCity:    "Kazan",
	}
}

func TestComputeDeliveryMetricsOnTime(t *testing.T) {
	delivery := newTestDelivery()

	enriched := ComputeDeliveryMetrics(delivery, 2)

	assert.Equal(t, 25.0, enriched.DeliveryTimeMinutes)
	assert.Equal(t, 25.0, enriched.DelayMinutes)
	assert.True(t, enriched.IsOnTime)
}

func TestComputeDeliveryMetricsLate(t *testing.T) {
	delivery := newTestDelivery()
	delivery.DeliveredDatetime = delivery.ScheduledDatetime.Add(70 * time.Minute)

	enriched := ComputeDeliveryMetrics(delivery, 2)

	assert.Equal(t, 70.0, enriched.DeliveryTimeMinutes)
	assert.Equal(t, 70.0, enriched.DelayMinutes)
	assert.False(t, enriched.IsOnTime)
}

func TestComputeDeliveryMetricsEarlyDeliveryHasNoDelay(t *testing.T) {
	delivery := newTestDelivery()
	delivery.DeliveredDatetime = delivery.ScheduledDatetime.Add(-10 * time.Minute)

	enriched := ComputeDeliveryMetrics(delivery, 1)

	assert.Equal(t, -10.0, enriched.DeliveryTimeMinutes)
	assert.Equal(t, 0.0, enriched.DelayMinutes)
	assert.True(t, enriched.IsOnTime)
}

func TestComputeDeliveryMetricsThresholdBoundary(t *testing.T) {
	delivery := newTestDelivery()

	// Опоздание ровно 30 минут еще считается своевременным
	delivery.DeliveredDatetime = delivery.ScheduledDatetime.Add(30 * time.Minute)
	enriched := ComputeDeliveryMetrics(delivery, 1)
	assert.True(t, enriched.IsOnTime)

	delivery.DeliveredDatetime = delivery.ScheduledDatetime.Add(31 * time.Minute)
	enriched = ComputeDeliveryMetrics(delivery, 1)
	assert.False(t, enriched.IsOnTime)
}

func TestComputeDeliveryMetricsTripAndFuel(t *testing.T) {
	delivery := newTestDelivery()

	enriched := ComputeDeliveryMetrics(delivery, 2)

	// Рейс длился 4 часа, 2 доставки
	assert.Equal(t, 4.0, enriched.TripDurationHours)
	assert.Equal(t, 0.5, enriched.DeliveriesPerHour)

	// 120 км на 10 литров
	assert.Equal(t, 12.0, enriched.FuelEfficiencyKmPerLiter)
}

func TestComputeDeliveryMetricsCostAndRevenue(t *testing.T) {
	delivery := newTestDelivery()

	enriched := ComputeDeliveryMetrics(delivery, 2)

	// (10 л * 5000 + 5000) / 2 доставки
	assert.Equal(t, 27500.0, enriched.CostPerDelivery)

	// 20000 + 2.5 кг * 500
	assert.Equal(t, 21250.0, enriched.RevenuePerDelivery)
}

func TestComputeDeliveryMetricsRounding(t *testing.T) {
	delivery := newTestDelivery()
	delivery.DeliveredDatetime = delivery.ScheduledDatetime.Add(10*time.Minute + 20*time.Second)
	delivery.DistanceKm = 100.0
	delivery.FuelConsumedLiters = 3.0

	enriched := ComputeDeliveryMetrics(delivery, 3)

	// 10 минут 20 секунд = 10.333... -> 10.33
	assert.Equal(t, 10.33, enriched.DeliveryTimeMinutes)

	// 100 / 3 = 33.333... -> 33.33
	assert.Equal(t, 33.33, enriched.FuelEfficiencyKmPerLiter)

	// 3 доставки за 4 часа = 0.75
	assert.Equal(t, 0.75, enriched.DeliveriesPerHour)
}

func TestPassesQualityGates(t *testing.T) {
	delivery := newTestDelivery()

	enriched := ComputeDeliveryMetrics(delivery, 1)
	assert.True(t, PassesQualityGates(enriched))

	// Отрицательное время доставки отбрасывается
	early := delivery
	early.DeliveredDatetime = early.ScheduledDatetime.Add(-5 * time.Minute)
	assert.False(t, PassesQualityGates(ComputeDeliveryMetrics(early, 1)))

	// Вес вне диапазона (0, 10000) отбрасывается
	heavy := delivery
	heavy.PackageWeightKg = 10500
	assert.False(t, PassesQualityGates(ComputeDeliveryMetrics(heavy, 1)))

	zeroWeight := delivery
	zeroWeight.PackageWeightKg = 0
	assert.False(t, PassesQualityGates(ComputeDeliveryMetrics(zeroWeight, 1)))

	almostLimit := delivery
	almostLimit.PackageWeightKg = 9999.99
	assert.True(t, PassesQualityGates(ComputeDeliveryMetrics(almostLimit, 1)))
}

func TestStampSCDFields(t *testing.T) {
	delivery := newTestDelivery()
	enriched := ComputeDeliveryMetrics(delivery, 1)

	StampSCDFields(&enriched)

	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), enriched.ValidFrom)
	assert.Equal(t, models.OpenEndedValidTo(), enriched.ValidTo)
	assert.True(t, enriched.IsCurrent)
}

func TestOpenEndedValidToSentinel(t *testing.T) {
	sentinel := models.OpenEndedValidTo()

	assert.Equal(t, 2262, sentinel.Year())
	assert.Equal(t, time.April, sentinel.Month())
	assert.Equal(t, 11, sentinel.Day())
}
