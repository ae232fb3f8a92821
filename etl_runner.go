package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/config"
	"github.com/FleetLogix/fleetlogix_etl/dimensions"
	"github.com/FleetLogix/fleetlogix_etl/extractors"
	"github.com/FleetLogix/fleetlogix_etl/load"
	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/routes"
	"github.com/FleetLogix/fleetlogix_etl/transform"
	"github.com/FleetLogix/fleetlogix_etl/trends"
	"github.com/FleetLogix/fleetlogix_etl/utils"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ETLRunner struct {
	config        config.ETLConfig
	dbConnections *config.DBConnections
	logger        *utils.ETLLogger
	extractor     *extractors.Extractor
	transformer   *transform.Transformer
	dimResolver   *dimensions.DimensionResolver
	loadManager   *load.LoadManager
	etlLogRepo    models.ETLLogRepository
}

// NewETLRunner создает новый экземпляр ETLRunner
func NewETLRunner() (*ETLRunner, error) {
	// Получаем конфигурацию
	etlConfig := config.GetConfig()

	// Инициализируем логгер
	logger := utils.NewETLLogger(etlConfig.EnableDetailedLogging)
	logger.Info("Инициализация ETL Runner")

	// Подключаемся к базам данных
	connections, err := config.ConnectDatabases(etlConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базам данных: %w", err)
	}

	// Инициализируем журнал запусков ETL
	etlLogRepo := models.NewMySQLETLLogRepository(connections.WarehouseDB)

	// Создаем таблицу журнала, если она еще не существует
	if err := etlLogRepo.CreateETLLogTable(); err != nil {
		config.CloseDatabases(connections)
		return nil, fmt.Errorf("ошибка при создании таблицы журнала ETL: %w", err)
	}

	return &ETLRunner{
		config:        etlConfig,
		dbConnections: connections,
		logger:        logger,
		extractor:     extractors.NewExtractor(connections.OLTPDB, logger),
		transformer:   transform.NewTransformer(logger),
		dimResolver:   dimensions.NewDimensionResolver(connections.WarehouseDB, logger),
		loadManager:   load.NewLoadManager(connections.WarehouseDB, logger),
		etlLogRepo:    etlLogRepo,
	}, nil
}

// Close закрывает соединения с базами данных
func (r *ETLRunner) Close() {
	r.logger.Info("Завершение работы ETL Runner")
	config.CloseDatabases(r.dbConnections)
}

// ExecuteETL выполняет полный ETL процесс:
// Extract -> Transform -> разрешение измерений -> загрузка фактов -> итоги
func (r *ETLRunner) ExecuteETL() error {
	startTime := time.Now()
	batchID := startTime.Unix()
	runID := uuid.New().String()

	r.logger.LogETLStart(batchID)

	var metrics models.RunMetrics

	// Создаем запись в журнале ETL
	logID, err := r.etlLogRepo.CreateLogEntry(runID, batchID, startTime)
	if err != nil {
		r.logger.Error("Ошибка при создании записи в журнале ETL: %v", err)
		return fmt.Errorf("ошибка при создании записи в журнале ETL: %w", err)
	}

	// Получаем watermark последнего успешного запуска
	var watermark time.Time
	lastRun, err := r.etlLogRepo.GetLastSuccessfulRun()
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка при получении последнего успешного запуска: %v", err)
		r.logger.Error(errMsg)
		r.failRun(logID, errMsg)
		return fmt.Errorf("ошибка при получении последнего успешного запуска: %w", err)
	}

	if lastRun != nil {
		watermark = lastRun.Watermark
		r.logger.Info("Последний успешный запуск: %v, watermark: %v", lastRun.EndTime, watermark)
	} else {
		r.logger.Info("Запусков еще не было, окно будет определено по данным источника")
	}

	// 1. Фаза извлечения данных (Extract)
	extractedData, err := r.extractor.Extract(watermark)
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка в фазе Extract: %v", err)
		r.logger.Error(errMsg)
		r.failRun(logID, errMsg)
		return fmt.Errorf("ошибка в фазе Extract: %w", err)
	}

	metrics.RecordsExtracted = len(extractedData.Deliveries)

	// Если нет новых данных, завершаем запуск успешно
	// Watermark при пустом окне остается прежним
	if len(extractedData.Deliveries) == 0 {
		r.logger.Info("Нет новых данных для обработки")
		newWatermark := extractedData.WindowEnd
		if newWatermark.IsZero() {
			newWatermark = watermark
		}
		r.succeedRun(logID, metrics, newWatermark)
		r.logger.LogETLComplete(startTime, 0, 0, 0, 0)
		return nil
	}

	// 2. Фаза трансформации данных (Transform)
	transformedData, err := r.transformer.Transform(extractedData)
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка в фазе Transform: %v", err)
		r.logger.Error(errMsg)
		r.failRun(logID, errMsg)
		return fmt.Errorf("ошибка в фазе Transform: %w", err)
	}

	metrics.RecordsTransformed = len(transformedData.Deliveries)

	if len(transformedData.Deliveries) == 0 {
		r.logger.Info("Все извлеченные записи отклонены проверками качества")
		r.succeedRun(logID, metrics, extractedData.WindowEnd)
		r.logger.LogETLComplete(startTime, metrics.RecordsExtracted, 0, 0, 0)
		return nil
	}

	// 3. Разрешение измерений (SCD Type 2)
	// Отказ отдельного измерения не прерывает запуск:
	// для него будут использованы естественные ключи
	keys, dimFailures := r.dimResolver.Resolve(transformedData.Deliveries)
	metrics.Errors += dimFailures

	// 4. Загрузка фактов
	facts, err := r.loadManager.LoadFacts(transformedData, keys, batchID)
	if err != nil {
		errMsg := fmt.Sprintf("Ошибка в фазе Load: %v", err)
		r.logger.Error(errMsg)
		r.failRun(logID, errMsg)
		return fmt.Errorf("ошибка в фазе Load: %w", err)
	}

	metrics.RecordsLoaded = len(facts)

	// 5. Ежедневные итоги (некритичный этап)
	if err := r.loadManager.LoadDailyTotals(facts, batchID); err != nil {
		r.logger.Error("Ошибка при загрузке ежедневных итогов: %v", err)
		metrics.Errors++
	}

	// 6. Анализ тренда своевременности (некритичный этап)
	if err := r.runTrendAnalysis(); err != nil {
		r.logger.Error("Ошибка при анализе тренда своевременности: %v", err)
	}

	// Обновляем журнал: watermark сдвигается на верхнюю границу окна
	r.succeedRun(logID, metrics, extractedData.WindowEnd)

	r.logger.LogETLComplete(startTime,
		metrics.RecordsExtracted,
		metrics.RecordsTransformed,
		metrics.RecordsLoaded,
		metrics.Errors)
	return nil
}

// succeedRun обновляет запись в журнале ETL при успешном завершении
func (r *ETLRunner) succeedRun(logID int, metrics models.RunMetrics, watermark time.Time) {
	if err := r.etlLogRepo.UpdateLogEntrySuccess(logID, time.Now(), metrics, watermark); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале ETL: %v", err)
	}
}

// failRun обновляет запись в журнале ETL при ошибке
func (r *ETLRunner) failRun(logID int, errorMessage string) {
	if err := r.etlLogRepo.UpdateLogEntryFailure(logID, time.Now(), errorMessage); err != nil {
		r.logger.Error("Ошибка при обновлении записи в журнале ETL: %v", err)
	}
}

// runTrendAnalysis запускает анализ тренда своевременности доставок
func (r *ETLRunner) runTrendAnalysis() error {
	trendConfig := trends.DefaultConfig()
	trendConfig.AnalysisPeriodDays = r.config.TrendAnalysisDays

	return trends.RunWithCustomConfig(r.dbConnections.WarehouseDB, r.logger, trendConfig)
}

// StartScheduler запускает планировщик для ежедневного выполнения ETL
func (r *ETLRunner) StartScheduler(ctx context.Context) {
	scheduler := gocron.NewScheduler(time.UTC)

	r.logger.Info("Запуск планировщика ETL: ежедневно в %s", r.config.DailyRunAt)

	_, err := scheduler.Every(1).Day().At(r.config.DailyRunAt).Do(func() {
		r.logger.Info("Запланированный запуск ETL процесса")
		if err := r.ExecuteETL(); err != nil {
			r.logger.Error("Ошибка при выполнении запланированного ETL: %v", err)
		}
	})

	if err != nil {
		r.logger.Error("Ошибка при настройке планировщика: %v", err)
		return
	}

	// Запускаем планировщик
	scheduler.StartAsync()

	// Первый запуск выполняем сразу, не дожидаясь расписания
	go func() {
		if err := r.ExecuteETL(); err != nil {
			r.logger.Error("Ошибка при первом запуске ETL: %v", err)
		}
	}()

	// Ожидаем сигнал остановки из контекста
	<-ctx.Done()

	// Останавливаем планировщик
	scheduler.Stop()
	r.logger.Info("Планировщик ETL остановлен")
}

// StartStatusServer запускает HTTP API мониторинга ETL
func (r *ETLRunner) StartStatusServer(ctx context.Context) {
	router := mux.NewRouter()
	routes.SetupRoutes(router, r.dbConnections.WarehouseDB)

	server := &http.Server{
		Addr:         r.config.StatusAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		r.logger.Info("API мониторинга ETL запущен на %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("Ошибка запуска API мониторинга: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("Ошибка при остановке API мониторинга: %v", err)
		}
	}()
}

// RunOnce запускает ETL процесс один раз
func RunOnce() {
	runner, err := NewETLRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании ETL Runner: %v", err)
	}
	defer runner.Close()

	if err := runner.ExecuteETL(); err != nil {
		log.Fatalf("Ошибка при выполнении ETL: %v", err)
	}
}

// RunScheduled запускает ETL процесс по расписанию вместе с API мониторинга
func RunScheduled() {
	// Создаем контекст, который будет отменен при получении сигнала завершения
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Настраиваем обработку сигналов завершения
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		log.Println("Получен сигнал завершения. Останавливаем ETL Runner...")
		cancel()
	}()

	runner, err := NewETLRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании ETL Runner: %v", err)
	}
	defer runner.Close()

	// Запускаем API мониторинга
	runner.StartStatusServer(ctx)

	// Запускаем планировщик
	runner.StartScheduler(ctx)
}

// RunTrendAnalysis запускает только анализ тренда с пользовательскими параметрами
func RunTrendAnalysis(days, forecast int, confidence, minR2 float64) {
	log.Println("Запуск утилиты анализа тренда своевременности")

	runner, err := NewETLRunner()
	if err != nil {
		log.Fatalf("Ошибка при создании ETL Runner: %v", err)
	}
	defer runner.Close()

	trendConfig := trends.Config{
		AnalysisPeriodDays: days,
		ForecastDays:       forecast,
		ConfidenceLevel:    confidence,
		MinR2Threshold:     minR2,
	}

	runner.logger.Info("Параметры анализа: дней=%d, прогноз=%d дней, доверие=%.2f, минR²=%.2f",
		days, forecast, confidence, minR2)

	if err := trends.RunWithCustomConfig(runner.dbConnections.WarehouseDB, runner.logger, trendConfig); err != nil {
		log.Fatalf("Ошибка при анализе тренда: %v", err)
	}

	log.Println("Анализ тренда успешно завершен")
}

func main() {
	// Параметры командной строки
	modePtr := flag.String("mode", "scheduled", "Режим работы: scheduled, once или trends")
	daysPtr := flag.Int("days", 30, "Количество дней для анализа (только для режима trends)")
	forecastPtr := flag.Int("forecast", 14, "Количество дней для прогноза (только для режима trends)")
	confidencePtr := flag.Float64("confidence", 0.95, "Уровень доверия (только для режима trends)")
	minR2Ptr := flag.Float64("min-r2", 0.30, "Минимальный порог для R² (только для режима trends)")

	flag.Parse()

	log.Println("Запуск ETL Runner в режиме:", *modePtr)

	switch *modePtr {
	case "once":
		RunOnce()
	case "scheduled":
		RunScheduled()
	case "trends":
		RunTrendAnalysis(*daysPtr, *forecastPtr, *confidencePtr, *minR2Ptr)
	default:
		log.Println("Неизвестный режим работы:", *modePtr)
		log.Println("Доступные режимы: scheduled, once, trends")
		os.Exit(1)
	}

	log.Println("ETL Runner завершил работу")
}
