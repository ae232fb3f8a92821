package trends

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// TrendProcessor строит модель тренда своевременности доставок
// и сохраняет прогнозы в хранилище
type TrendProcessor struct {
	dataService *DataService
	repository  *MySQLTrendRepository
	logger      *utils.ETLLogger
	config      Config
}

// NewTrendProcessor создает новый процессор анализа трендов
func NewTrendProcessor(
	dataService *DataService,
	repository *MySQLTrendRepository,
	logger *utils.ETLLogger,
	config Config,
) *TrendProcessor {
	return &TrendProcessor{
		dataService: dataService,
		repository:  repository,
		logger:      logger,
		config:      config,
	}
}

// Process выполняет основной процесс: анализ данных, построение модели и сохранение прогнозов
func (p *TrendProcessor) Process() error {
	startTime := time.Now()
	p.logger.Info("Запуск анализа тренда своевременности доставок")

	// 1. Убеждаемся, что таблица существует
	if err := p.repository.EnsureTableExists(); err != nil {
		return fmt.Errorf("ошибка при проверке/создании таблицы: %w", err)
	}

	// 2. Получаем данные для анализа
	p.logger.Info("Получение процента своевременных доставок за последние %d дней", p.config.AnalysisPeriodDays)
	dataPoints, err := p.dataService.GetOnTimeData(p.config.AnalysisPeriodDays)
	if err != nil {
		return fmt.Errorf("ошибка при получении данных: %w", err)
	}

	p.logger.Info("Получено %d точек данных для анализа", len(dataPoints))

	// 3. Строим модель линейной регрессии
	regressionResult, err := LinearRegression(dataPoints)
	if err != nil {
		return fmt.Errorf("ошибка при построении модели линейной регрессии: %w", err)
	}

	// 4. Оцениваем качество модели
	p.logger.Info("Результаты модели: коэффициент наклона (a)=%.3f, сдвиг (b)=%.3f, R=%.3f, R²=%.3f",
		regressionResult.A, regressionResult.B, regressionResult.R, regressionResult.R2)

	p.logger.Info("Период анализа: с %v по %v",
		regressionResult.PeriodStart.Format("2006-01-02"),
		regressionResult.PeriodEnd.Format("2006-01-02"))

	if regressionResult.R2 < p.config.MinR2Threshold {
		p.logger.Info("Низкое качество модели (R²=%.3f < %.3f). Однако прогноз будет сделан.",
			regressionResult.R2, p.config.MinR2Threshold)
	}

	// 5. Генерируем прогнозы
	p.logger.Info("Генерация прогнозов на %d дней вперед от %v",
		p.config.ForecastDays,
		regressionResult.PeriodEnd.Format("2006-01-02"))
	forecasts := GenerateForecasts(regressionResult, p.config.ForecastDays, p.config.ConfidenceLevel)

	// 6. Сохраняем прогнозы в БД
	p.logger.Info("Сохранение %d прогнозов в базу данных", len(forecasts))
	if err := p.repository.SaveMultiplePredictions(*regressionResult, forecasts); err != nil {
		return fmt.Errorf("ошибка при сохранении прогнозов: %w", err)
	}

	// 7. Удаляем устаревшие прогнозы (старше 90 дней)
	deleteOlderThan := time.Now().AddDate(0, 0, -90)
	if err := p.repository.DeleteOldPredictions(deleteOlderThan); err != nil {
		// Это некритическая ошибка, просто логируем
		p.logger.Info("Не удалось удалить устаревшие прогнозы: %v", err)
	}

	executionTime := time.Since(startTime)
	p.logger.Info("Анализ тренда своевременности успешно завершен. Время выполнения: %v", executionTime)
	return nil
}

// RunAsPartOfETL запускает анализ тренда как часть ETL
func RunAsPartOfETL(warehouseDB *sql.DB, logger *utils.ETLLogger) error {
	return RunWithCustomConfig(warehouseDB, logger, DefaultConfig())
}

// RunWithCustomConfig запускает анализ с пользовательской конфигурацией
func RunWithCustomConfig(warehouseDB *sql.DB, logger *utils.ETLLogger, config Config) error {
	dataService := NewDataService(warehouseDB, logger)
	repository := NewMySQLTrendRepository(warehouseDB)
	processor := NewTrendProcessor(dataService, repository, logger, config)

	return processor.Process()
}
