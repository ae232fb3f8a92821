package load

import (
	"testing"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFact(dateKey, deliveryID int, onTime bool) models.DeliveryFact {
	return models.DeliveryFact{
		DateKey:                  dateKey,
		DeliveryID:               deliveryID,
		VehicleKey:               71,
		DriverKey:                31,
		RouteKey:                 51,
		CustomerKey:              11,
		PackageWeightKg:          2.5,
		DistanceKm:               120.0,
		FuelConsumedLiters:       10.0,
		DeliveryTimeMinutes:      20.0,
		DelayMinutes:             20.0,
		DeliveriesPerHour:        0.5,
		FuelEfficiencyKmPerLiter: 12.0,
		CostPerDelivery:          27500.0,
		RevenuePerDelivery:       21250.0,
		IsOnTime:                 onTime,
	}
}

func TestAggregateDailyTotalsEmpty(t *testing.T) {
	assert.Empty(t, AggregateDailyTotals(nil, 1))
}

func TestAggregateDailyTotalsSingleDay(t *testing.T) {
	facts := []models.DeliveryFact{
		newFact(20260827, 101, true),
		newFact(20260827, 102, true),
		newFact(20260827, 103, false),
	}

	totals := AggregateDailyTotals(facts, 1756000000)

	require.Len(t, totals, 1)
	row := totals[0]

	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), row.DateUpdate)
	assert.Equal(t, int64(1756000000), row.ETLBatchID)
	assert.Equal(t, 3, row.TotalDeliveries)

	// Все факты разделяют одни и те же измерения
	assert.Equal(t, 1, row.TotalVehicles)
	assert.Equal(t, 1, row.TotalDrivers)
	assert.Equal(t, 1, row.TotalRoutes)
	assert.Equal(t, 1, row.TotalCustomers)

	assert.Equal(t, 7.5, row.TotalPackageWeightKg)
	assert.Equal(t, 360.0, row.TotalDistanceKm)
	assert.Equal(t, 30.0, row.TotalFuelConsumedLiters)
	assert.Equal(t, 82500.0, row.TotalCostPerDelivery)
	assert.Equal(t, 63750.0, row.TotalRevenuePerDelivery)

	assert.Equal(t, 20.0, row.AvgDeliveryTimeMinutes)
	assert.Equal(t, 20.0, row.AvgDelayMinutes)
	assert.Equal(t, 0.5, row.AvgDeliveriesPerHour)
	assert.Equal(t, 12.0, row.AvgFuelEfficiencyKmPerLiter)

	// 2 из 3 доставок своевременны
	assert.Equal(t, 66.67, row.OnTimePercentage)
}

func TestAggregateDailyTotalsDistinctDimensions(t *testing.T) {
	first := newFact(20260827, 101, true)
	second := newFact(20260827, 102, true)
	second.VehicleKey = 72
	second.DriverKey = 32
	second.CustomerKey = 12

	totals := AggregateDailyTotals([]models.DeliveryFact{first, second}, 1)

	require.Len(t, totals, 1)
	assert.Equal(t, 2, totals[0].TotalVehicles)
	assert.Equal(t, 2, totals[0].TotalDrivers)
	assert.Equal(t, 1, totals[0].TotalRoutes)
	assert.Equal(t, 2, totals[0].TotalCustomers)
	assert.Equal(t, 100.0, totals[0].OnTimePercentage)
}

func TestAggregateDailyTotalsMultipleDaysSorted(t *testing.T) {
	facts := []models.DeliveryFact{
		newFact(20260828, 103, true),
		newFact(20260827, 101, true),
		newFact(20260828, 104, false),
	}

	totals := AggregateDailyTotals(facts, 1)

	require.Len(t, totals, 2)

	// Итоги упорядочены по дате
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), totals[0].DateUpdate)
	assert.Equal(t, 1, totals[0].TotalDeliveries)
	assert.Equal(t, 100.0, totals[0].OnTimePercentage)

	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), totals[1].DateUpdate)
	assert.Equal(t, 2, totals[1].TotalDeliveries)
	assert.Equal(t, 50.0, totals[1].OnTimePercentage)
}
