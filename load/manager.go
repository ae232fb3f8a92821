package load

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/utils"
)

// LoadManager отвечает за управление процессом загрузки данных в хранилище
type LoadManager struct {
	db           *sql.DB
	logger       *utils.ETLLogger
	factLoader   *FactLoader
	totalsLoader *DailyTotalsLoader
}

// NewLoadManager создает новый экземпляр LoadManager
func NewLoadManager(db *sql.DB, logger *utils.ETLLogger) *LoadManager {
	return &LoadManager{
		db:           db,
		logger:       logger,
		factLoader:   NewFactLoader(db, logger),
		totalsLoader: NewDailyTotalsLoader(db, logger),
	}
}

// LoadFacts выполняет фазу загрузки фактов ETL-процесса
// Принимает обработанные данные из фазы Transform и соответствия
// суррогатных ключей измерений
// Возвращает загруженные факты для последующей агрегации
func (m *LoadManager) LoadFacts(transformedData *models.TransformedData, keys *models.DimensionKeys, batchID int64) ([]models.DeliveryFact, error) {
	startTime := time.Now()
	m.logger.Info("Начало фазы Load (Загрузка данных)")

	// Строим факты с разрешёнными ключами измерений
	facts := BuildFacts(transformedData.Deliveries, keys, batchID)

	// Загружаем факты одним атомарным батчем
	if err := m.factLoader.Load(facts); err != nil {
		m.logger.Error("Ошибка при загрузке фактов доставок: %v", err)
		return nil, fmt.Errorf("ошибка при загрузке фактов доставок: %w", err)
	}

	duration := time.Since(startTime)
	m.logger.Info("Фаза Load завершена. Длительность: %v", duration)

	return facts, nil
}

// LoadDailyTotals рассчитывает и загружает ежедневные итоги
// по фактам текущего запуска
func (m *LoadManager) LoadDailyTotals(facts []models.DeliveryFact, batchID int64) error {
	// Создаем таблицу итогов, если она еще не существует
	if err := m.totalsLoader.EnsureTable(); err != nil {
		return fmt.Errorf("ошибка при подготовке таблицы daily_totals: %w", err)
	}

	totals := AggregateDailyTotals(facts, batchID)

	if err := m.totalsLoader.Load(totals); err != nil {
		return fmt.Errorf("ошибка при загрузке ежедневных итогов: %w", err)
	}

	return nil
}
