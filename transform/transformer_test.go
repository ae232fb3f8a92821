package transform

import (
	"os"
	"testing"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestTransformer создает трансформатор с логгером,
// пишущим во временный каталог теста
func newTestTransformer(t *testing.T) *Transformer {
	// замена t.Chdir, доступного только с Go 1.24
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
	return NewTransformer(utils.NewETLLogger(false))
}

func TestTransformEmptyInput(t *testing.T) {
	transformer := newTestTransformer(t)

	result, err := transformer.Transform(&models.ExtractedData{})

	require.NoError(t, err)
	assert.Empty(t, result.Deliveries)
	assert.Zero(t, result.QualityRejected)
}

func TestTransformCountsTripDeliveriesBeforeQualityGates(t *testing.T) {
	transformer := newTestTransformer(t)

	good := newTestDelivery()
	bad := newTestDelivery()
	bad.DeliveryID = 102
	bad.PackageWeightKg = 10500 // будет отброшена проверками качества

	result, err := transformer.Transform(&models.ExtractedData{
		Deliveries: []models.DeliveryOLTP{good, bad},
	})

	require.NoError(t, err)
	require.Len(t, result.Deliveries, 1)
	assert.Equal(t, 1, result.QualityRejected)

	// Отброшенная доставка того же рейса все равно учтена в знаменателе
	assert.Equal(t, 2, result.Deliveries[0].DeliveriesInTrip)
}

func TestTransformSeparateTrips(t *testing.T) {
	transformer := newTestTransformer(t)

	first := newTestDelivery()
	second := newTestDelivery()
	second.DeliveryID = 102
	second.TripID = 43

	result, err := transformer.Transform(&models.ExtractedData{
		Deliveries: []models.DeliveryOLTP{first, second},
	})

	require.NoError(t, err)
	require.Len(t, result.Deliveries, 2)

	for _, enriched := range result.Deliveries {
		assert.Equal(t, 1, enriched.DeliveriesInTrip)
	}
}

func TestTransformStampsSCDFields(t *testing.T) {
	transformer := newTestTransformer(t)

	result, err := transformer.Transform(&models.ExtractedData{
		Deliveries: []models.DeliveryOLTP{newTestDelivery()},
	})

	require.NoError(t, err)
	require.Len(t, result.Deliveries, 1)

	enriched := result.Deliveries[0]
	assert.True(t, enriched.IsCurrent)
	assert.Equal(t, models.OpenEndedValidTo(), enriched.ValidTo)
	assert.Equal(t, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC), enriched.ValidFrom)
}

func TestTransformAllRejected(t *testing.T) {
	transformer := newTestTransformer(t)

	bad := newTestDelivery()
	bad.PackageWeightKg = -1

	result, err := transformer.Transform(&models.ExtractedData{
		Deliveries: []models.DeliveryOLTP{bad},
	})

	require.NoError(t, err)
	assert.Empty(t, result.Deliveries)
	assert.Equal(t, 1, result.QualityRejected)
}

func TestCountDeliveriesPerTrip(t *testing.T) {
	first := newTestDelivery()
	second := newTestDelivery()
	second.DeliveryID = 102
	third := newTestDelivery()
	third.DeliveryID = 103
	third.TripID = 99

	counts := countDeliveriesPerTrip([]models.DeliveryOLTP{first, second, third})

	assert.Equal(t, 2, counts[42])
	assert.Equal(t, 1, counts[99])
}
