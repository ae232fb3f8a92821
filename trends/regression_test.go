package trends

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearPoints(n int, a, b float64) []DataPoint {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	points := make([]DataPoint, n)
	for i := 0; i < n; i++ {
		x := float64(i + 1)
		points[i] = DataPoint{
			X:    x,
			Y:    a*x + b,
			Date: start.AddDate(0, 0, i),
		}
	}
	return points
}

func TestLinearRegressionPerfectFit(t *testing.T) {
	points := linearPoints(10, 2.0, 80.0)

	result, err := LinearRegression(points)

	require.NoError(t, err)
	assert.Equal(t, 2.0, result.A)
	assert.Equal(t, 80.0, result.B)
	assert.Equal(t, 1.0, result.R)
	assert.Equal(t, 1.0, result.R2)
	assert.Equal(t, points[0].Date, result.PeriodStart)
	assert.Equal(t, points[9].Date, result.PeriodEnd)
}

func TestLinearRegressionDecliningTrend(t *testing.T) {
	points := linearPoints(14, -1.5, 95.0)

	result, err := LinearRegression(points)

	require.NoError(t, err)
	assert.Equal(t, -1.5, result.A)
	assert.Equal(t, -1.0, result.R)
}

func TestLinearRegressionConstantSeries(t *testing.T) {
	points := linearPoints(5, 0.0, 90.0)

	result, err := LinearRegression(points)

	require.NoError(t, err)
	assert.Equal(t, 0.0, result.A)
	assert.Equal(t, 90.0, result.B)
	assert.Equal(t, 0.0, result.R)
}

func TestLinearRegressionTooFewPoints(t *testing.T) {
	_, err := LinearRegression(linearPoints(1, 1.0, 0.0))
	assert.Error(t, err)

	_, err = LinearRegression(nil)
	assert.Error(t, err)
}

func TestPredict(t *testing.T) {
	result := &RegressionResult{A: 2.0, B: 80.0}

	assert.Equal(t, 100.0, Predict(result, 10))
	assert.Equal(t, 80.0, Predict(result, 0))
}

func TestGenerateForecasts(t *testing.T) {
	points := linearPoints(10, 1.0, 50.0)
	result, err := LinearRegression(points)
	require.NoError(t, err)

	forecasts := GenerateForecasts(result, 5, 0.95)

	require.Len(t, forecasts, 5)

	// Прогнозы продолжают период анализа день за днем
	assert.Equal(t, result.PeriodEnd.AddDate(0, 0, 1), forecasts[0].Date)
	assert.Equal(t, result.PeriodEnd.AddDate(0, 0, 5), forecasts[4].Date)

	// Для идеальной линии y = x + 50 прогноз на день 11 равен 61
	assert.Equal(t, 61.0, forecasts[0].ForecastValue)

	for _, forecast := range forecasts {
		assert.LessOrEqual(t, forecast.CILower, forecast.ForecastValue)
		assert.GreaterOrEqual(t, forecast.CIUpper, forecast.ForecastValue)
	}
}

func TestConfidenceIntervalTwoPoints(t *testing.T) {
	// При двух точках остаточная дисперсия не определена (n-2 = 0),
	// интервал вырождается в сам прогноз вместо NaN
	points := []DataPoint{
		{X: 1, Y: 90.0, Date: time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)},
		{X: 2, Y: 91.0, Date: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)},
	}

	result, err := LinearRegression(points)
	require.NoError(t, err)

	lower, upper := CalculateConfidenceInterval(result, 3, 0.95)

	assert.False(t, math.IsNaN(lower))
	assert.False(t, math.IsNaN(upper))
	assert.Equal(t, 92.0, lower)
	assert.Equal(t, 92.0, upper)

	forecasts := GenerateForecasts(result, 3, 0.95)
	for _, forecast := range forecasts {
		assert.False(t, math.IsNaN(forecast.CILower))
		assert.False(t, math.IsNaN(forecast.CIUpper))
	}
}

func TestRoundToThousandth(t *testing.T) {
	assert.Equal(t, 1.235, RoundToThousandth(1.23456))
	assert.Equal(t, -1.235, RoundToThousandth(-1.23456))
	assert.Equal(t, 2.0, RoundToThousandth(2.0004))
}
