package dimensions

import (
	"testing"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatch() []models.EnrichedDelivery {
	return []models.EnrichedDelivery{
		{
			DeliveryOLTP: models.DeliveryOLTP{
				DeliveryID:          101,
				CustomerName:        "Ivan Petrov",
				DestinationCity:     "Kazan",
				DriverID:            3,
				DriverFullName:      "Sergey Smirnov",
				DriverLicenseNumber: "AB123456",
				VehicleID:           7,
				LicensePlate:        "A777AA",
				RouteID:             5,
				DistanceKm:          120.0,
				TollCost:            5000.0,
			},
		},
		{
			DeliveryOLTP: models.DeliveryOLTP{
				DeliveryID:          102,
				CustomerName:        "Anna Ivanova",
				DestinationCity:     "Sochi",
				DriverID:            3,
				DriverFullName:      "Sergey Smirnov",
				DriverLicenseNumber: "AB123456",
				VehicleID:           8,
				LicensePlate:        "B222BB",
				RouteID:             5,
				DistanceKm:          120.0,
				TollCost:            5000.0,
			},
		},
	}
}

func TestCollectCustomers(t *testing.T) {
	incoming := CollectCustomers(newBatch())

	require.Len(t, incoming, 2)
	assert.Equal(t, "Kazan", incoming["Ivan Petrov"])
	assert.Equal(t, "Sochi", incoming["Anna Ivanova"])
}

func TestPlanNewCustomers(t *testing.T) {
	incoming := CollectCustomers(newBatch())
	current := map[string]int{"Ivan Petrov": 11}

	newNames := PlanNewCustomers(incoming, current)

	assert.Equal(t, []string{"Anna Ivanova"}, newNames)
}

func TestPlanNewCustomersIdempotent(t *testing.T) {
	incoming := CollectCustomers(newBatch())
	current := map[string]int{"Ivan Petrov": 11, "Anna Ivanova": 12}

	// Повторный прогон того же батча не создает новых записей
	assert.Empty(t, PlanNewCustomers(incoming, current))
}

func TestCollectDrivers(t *testing.T) {
	incoming := CollectDrivers(newBatch())

	require.Len(t, incoming, 1)
	assert.Equal(t, DriverAttributes{FullName: "Sergey Smirnov", LicenseNumber: "AB123456"}, incoming[3])
}

func TestPlanDriverChangesNewDriver(t *testing.T) {
	incoming := CollectDrivers(newBatch())

	newIDs, changed := PlanDriverChanges(incoming, map[int]models.DriverDimension{})

	assert.Equal(t, []int{3}, newIDs)
	assert.Empty(t, changed)
}

func TestPlanDriverChangesTrackedAttributeChange(t *testing.T) {
	incoming := CollectDrivers(newBatch())
	current := map[int]models.DriverDimension{
		3: {DriverKey: 31, DriverID: 3, FullName: "Sergey Smirnov", LicenseNumber: "OLD00001"},
	}

	newIDs, changed := PlanDriverChanges(incoming, current)

	// Смена номера лицензии закрывает текущую версию
	assert.Empty(t, newIDs)
	require.Len(t, changed, 1)
	assert.Equal(t, 31, changed[0].DriverKey)
}

func TestPlanDriverChangesUnchanged(t *testing.T) {
	incoming := CollectDrivers(newBatch())
	current := map[int]models.DriverDimension{
		3: {DriverKey: 31, DriverID: 3, FullName: "Sergey Smirnov", LicenseNumber: "AB123456"},
	}

	newIDs, changed := PlanDriverChanges(incoming, current)

	assert.Empty(t, newIDs)
	assert.Empty(t, changed)
}

func TestPlanVehicleChanges(t *testing.T) {
	incoming := CollectVehicles(newBatch())
	current := map[int]models.VehicleDimension{
		7: {VehicleKey: 71, VehicleID: 7, LicensePlate: "A777AA"},
	}

	newIDs, changed := PlanVehicleChanges(incoming, current)

	// ТС 8 новое, у ТС 7 номер не менялся
	assert.Equal(t, []int{8}, newIDs)
	assert.Empty(t, changed)
}

func TestPlanVehicleChangesPlateChange(t *testing.T) {
	incoming := CollectVehicles(newBatch())
	current := map[int]models.VehicleDimension{
		7: {VehicleKey: 71, VehicleID: 7, LicensePlate: "C333CC"},
		8: {VehicleKey: 81, VehicleID: 8, LicensePlate: "B222BB"},
	}

	newIDs, changed := PlanVehicleChanges(incoming, current)

	assert.Empty(t, newIDs)
	require.Len(t, changed, 1)
	assert.Equal(t, 71, changed[0].VehicleKey)
}

func TestCollectRoutes(t *testing.T) {
	incoming := CollectRoutes(newBatch())

	require.Len(t, incoming, 1)
	assert.Equal(t, "Kazan", incoming[5].DestinationCity)
	assert.Equal(t, 120.0, incoming[5].DistanceKm)
	assert.Equal(t, 5000.0, incoming[5].TollCost)
}

func TestPlanNewRoutes(t *testing.T) {
	incoming := CollectRoutes(newBatch())

	assert.Equal(t, []int{5}, PlanNewRoutes(incoming, map[int]int{}))
	assert.Empty(t, PlanNewRoutes(incoming, map[int]int{5: 51}))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
