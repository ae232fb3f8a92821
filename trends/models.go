package trends

import (
	"time"
)

// DataPoint представляет точку данных для анализа тренда
type DataPoint struct {
	X    float64   // Порядковый номер дня относительно начала периода
	Y    float64   // Процент своевременных доставок за день
	Date time.Time // Фактическая дата
}

// RegressionResult содержит результаты линейной регрессии
type RegressionResult struct {
	A           float64     // Коэффициент наклона
	B           float64     // Сдвиг
	R           float64     // Коэффициент корреляции Пирсона
	R2          float64     // Коэффициент детерминации
	PeriodStart time.Time   // Начало анализируемого периода
	PeriodEnd   time.Time   // Конец анализируемого периода
	DataPoints  []DataPoint // Исходные точки данных
}

// ForecastPoint представляет точку прогноза своевременности доставок
type ForecastPoint struct {
	Date          time.Time // Дата прогноза
	ForecastValue float64   // Прогнозируемый процент своевременных доставок
	CILower       float64   // Нижняя граница доверительного интервала
	CIUpper       float64   // Верхняя граница доверительного интервала
}

// Config конфигурация анализа трендов
type Config struct {
	// Количество дней для анализа
	AnalysisPeriodDays int
	// Количество дней для прогноза
	ForecastDays int
	// Уровень доверия (0.90, 0.95, 0.99)
	ConfidenceLevel float64
	// Минимальное значение r² для признания модели значимой
	MinR2Threshold float64
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		AnalysisPeriodDays: 30,
		ForecastDays:       14,
		ConfidenceLevel:    0.95,
		MinR2Threshold:     0.30,
	}
}
