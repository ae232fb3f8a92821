package load

import (
	"testing"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnrichedDelivery() models.EnrichedDelivery {
	scheduled := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)

	return models.EnrichedDelivery{
		DeliveryOLTP: models.DeliveryOLTP{
			VehicleID:          7,
			DriverID:           3,
			RouteID:            5,
			DeliveryID:         101,
			TripID:             42,
			TrackingNumber:     "FLX-000101",
			PackageWeightKg:    2.5,
			CustomerName:       "Ivan Petrov",
			ScheduledDatetime:  scheduled,
			DeliveredDatetime:  scheduled.Add(25 * time.Minute),
			RecipientSignature: true,
			DeliveryStatus:     "delivered",
		},
		DeliveryTimeMinutes: 25.0,
		DelayMinutes:        25.0,
		IsOnTime:            true,
	}
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, 20260827, DateKey(time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)))
	assert.Equal(t, 20260101, DateKey(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestTimeKey(t *testing.T) {
	assert.Equal(t, 1400, TimeKey(time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)))
	assert.Equal(t, 0, TimeKey(time.Date(2026, 8, 27, 0, 59, 0, 0, time.UTC)))
	assert.Equal(t, 2300, TimeKey(time.Date(2026, 8, 27, 23, 0, 0, 0, time.UTC)))
}

func TestBuildFactsResolvesSurrogateKeys(t *testing.T) {
	keys := models.NewDimensionKeys()
	keys.Customers["Ivan Petrov"] = 11
	keys.Drivers[3] = 31
	keys.Vehicles[7] = 71
	keys.Routes[5] = 51

	facts := BuildFacts([]models.EnrichedDelivery{newEnrichedDelivery()}, keys, 1756000000)

	require.Len(t, facts, 1)
	fact := facts[0]

	assert.Equal(t, 11, fact.CustomerKey)
	assert.Equal(t, 31, fact.DriverKey)
	assert.Equal(t, 71, fact.VehicleKey)
	assert.Equal(t, 51, fact.RouteKey)
	assert.Equal(t, 20260827, fact.DateKey)
	assert.Equal(t, 1400, fact.ScheduledTimeKey)
	assert.Equal(t, 1400, fact.DeliveredTimeKey)
	assert.Equal(t, int64(1756000000), fact.ETLBatchID)
	assert.True(t, fact.IsOnTime)
	assert.True(t, fact.HasSignature)
	assert.False(t, fact.IsDamaged)
}

func TestBuildFactsFallsBackToNaturalKeys(t *testing.T) {
	// Пустые соответствия имитируют отказ загрузки измерений
	facts := BuildFacts([]models.EnrichedDelivery{newEnrichedDelivery()}, models.NewDimensionKeys(), 1)

	require.Len(t, facts, 1)
	fact := facts[0]

	assert.Equal(t, 3, fact.DriverKey)
	assert.Equal(t, 7, fact.VehicleKey)
	assert.Equal(t, 5, fact.RouteKey)

	// Для клиента натурального числового ключа нет, используется заглушка
	assert.Equal(t, 1, fact.CustomerKey)
}

func TestBuildFactsEmptyBatch(t *testing.T) {
	facts := BuildFacts(nil, models.NewDimensionKeys(), 1)
	assert.Empty(t, facts)
}
