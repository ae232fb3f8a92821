package trends

import (
	"fmt"
	"math"
)

// RoundToThousandth округляет число до тысячных (3 знака после запятой)
func RoundToThousandth(value float64) float64 {
	return math.Round(value*1000) / 1000
}

// LinearRegression строит модель линейной регрессии методом наименьших
// квадратов по точкам данных тренда своевременности
func LinearRegression(points []DataPoint) (*RegressionResult, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("для расчета линейной регрессии требуется минимум 2 точки, получено: %d", len(points))
	}

	// Находим границы анализируемого периода
	minDate := points[0].Date
	maxDate := points[0].Date
	for _, p := range points {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}
		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}

	n := float64(len(points))
	sumX := 0.0
	sumY := 0.0
	sumXY := 0.0
	sumX2 := 0.0
	sumY2 := 0.0

	for _, p := range points {
		sumX += p.X
		sumY += p.Y
		sumXY += p.X * p.Y
		sumX2 += p.X * p.X
		sumY2 += p.Y * p.Y
	}

	// Коэффициент наклона: a = (n*sum(xy) - sum(x)*sum(y)) / (n*sum(x^2) - sum(x)^2)
	denominator := n*sumX2 - sumX*sumX
	if math.Abs(denominator) < 1e-10 {
		return nil, fmt.Errorf("все X одинаковы, невозможно вычислить наклон")
	}

	a := (n*sumXY - sumX*sumY) / denominator

	// Сдвиг: b = (sum(y) - a*sum(x)) / n
	b := (sumY - a*sumX) / n

	// Коэффициент корреляции Пирсона
	numerator := n*sumXY - sumX*sumY
	denominator = math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))

	var r float64
	if math.Abs(denominator) < 1e-10 {
		r = 0 // все значения одинаковы, корреляции нет
	} else {
		r = numerator / denominator
	}

	return &RegressionResult{
		A:           RoundToThousandth(a),
		B:           RoundToThousandth(b),
		R:           RoundToThousandth(r),
		R2:          RoundToThousandth(r * r),
		PeriodStart: minDate,
		PeriodEnd:   maxDate,
		DataPoints:  points,
	}, nil
}

// Predict прогнозирует значение Y для заданного X по модели регрессии
func Predict(result *RegressionResult, x float64) float64 {
	return RoundToThousandth(result.A*x + result.B)
}

// CalculateConfidenceInterval вычисляет доверительный интервал прогноза
func CalculateConfidenceInterval(result *RegressionResult, x float64, confidenceLevel float64) (float64, float64) {
	n := float64(len(result.DataPoints))

	// Стандартная ошибка делит на n-2 степени свободы: при двух точках
	// интервал не определен, возвращаем вырожденный интервал из прогноза
	yPred := Predict(result, x)
	if n <= 2 {
		return yPred, yPred
	}

	meanX := 0.0
	for _, p := range result.DataPoints {
		meanX += p.X
	}
	meanX /= n

	// Сумма квадратов отклонений и остатков модели
	sumSqDevX := 0.0
	sumSqResiduals := 0.0
	for _, p := range result.DataPoints {
		predY := Predict(result, p.X)
		sumSqDevX += (p.X - meanX) * (p.X - meanX)
		sumSqResiduals += (p.Y - predY) * (p.Y - predY)
	}

	standardError := math.Sqrt(sumSqResiduals / (n - 2))

	// Приближённое значение t-статистики для выбранного уровня доверия
	tStat := 2.0
	if confidenceLevel == 0.99 {
		tStat = 2.58
	} else if confidenceLevel == 0.90 {
		tStat = 1.64
	}

	predictionStdError := standardError * math.Sqrt(1+1/n+(x-meanX)*(x-meanX)/sumSqDevX)

	margin := tStat * predictionStdError

	return RoundToThousandth(yPred - margin), RoundToThousandth(yPred + margin)
}

// GenerateForecasts генерирует прогнозы на указанное количество дней вперед
func GenerateForecasts(result *RegressionResult, daysAhead int, confidenceLevel float64) []ForecastPoint {
	forecasts := make([]ForecastPoint, daysAhead)

	lastDate := result.PeriodEnd

	maxX := 0.0
	for _, p := range result.DataPoints {
		if p.X > maxX {
			maxX = p.X
		}
	}

	for i := 0; i < daysAhead; i++ {
		x := maxX + float64(i+1)
		yPred := Predict(result, x)
		lower, upper := CalculateConfidenceInterval(result, x, confidenceLevel)

		forecasts[i] = ForecastPoint{
			Date:          lastDate.AddDate(0, 0, i+1),
			ForecastValue: yPred,
			CILower:       lower,
			CIUpper:       upper,
		}
	}

	return forecasts
}
