package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ETLConfig содержит конфигурацию для ETL-процесса
type ETLConfig struct {
	// Конфигурация для подключения к OLTP БД (исходная, PostgreSQL)
	OLTPConfig DatabaseConfig `json:"oltp_config"`

	// Конфигурация для подключения к хранилищу (целевое, MySQL)
	WarehouseConfig DatabaseConfig `json:"warehouse_config"`

	// Время ежедневного запуска ETL в формате "15:04"
	DailyRunAt string `json:"daily_run_at"`

	// Адрес HTTP-сервера статуса ETL
	StatusAddr string `json:"status_addr"`

	// Количество дней для анализа трендов после загрузки
	TrendAnalysisDays int `json:"trend_analysis_days"`

	// Включение/отключение детального логирования
	EnableDetailedLogging bool `json:"enable_detailed_logging"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
}

// Значения конфигурации по умолчанию
var (
	DefaultOLTPConfig = DatabaseConfig{
		Driver:   "pgx",
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "fleetlogix_database",
	}

	DefaultWarehouseConfig = DatabaseConfig{
		Driver:   "mysql",
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "root",
		DBName:   "fleetlogix_dwh",
	}

	DefaultETLConfig = ETLConfig{
		OLTPConfig:            DefaultOLTPConfig,
		WarehouseConfig:       DefaultWarehouseConfig,
		DailyRunAt:            "02:00",
		StatusAddr:            ":8081",
		TrendAnalysisDays:     30,
		EnableDetailedLogging: true,
	}
)

// GetConfig возвращает конфигурацию ETL
// Значения по умолчанию переопределяются переменными окружения,
// которые могут быть загружены из файла .env
func GetConfig() ETLConfig {
	// Файл .env необязателен, его отсутствие не является ошибкой
	_ = godotenv.Load()

	config := DefaultETLConfig

	applyDatabaseEnv(&config.OLTPConfig, "OLTP")
	applyDatabaseEnv(&config.WarehouseConfig, "DWH")

	if v := os.Getenv("ETL_DAILY_RUN_AT"); v != "" {
		config.DailyRunAt = v
	}
	if v := os.Getenv("ETL_STATUS_ADDR"); v != "" {
		config.StatusAddr = v
	}
	if v := os.Getenv("ETL_TREND_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			config.TrendAnalysisDays = days
		}
	}
	if v := os.Getenv("ETL_VERBOSE"); v != "" {
		config.EnableDetailedLogging = v == "true" || v == "1"
	}

	return config
}

// applyDatabaseEnv переопределяет настройки подключения из переменных окружения
// с заданным префиксом (например, OLTP_HOST, DWH_PASSWORD)
func applyDatabaseEnv(dbConfig *DatabaseConfig, prefix string) {
	if v := os.Getenv(prefix + "_HOST"); v != "" {
		dbConfig.Host = v
	}
	if v := os.Getenv(prefix + "_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			dbConfig.Port = port
		}
	}
	if v := os.Getenv(prefix + "_USER"); v != "" {
		dbConfig.User = v
	}
	if v := os.Getenv(prefix + "_PASSWORD"); v != "" {
		dbConfig.Password = v
	}
	if v := os.Getenv(prefix + "_DBNAME"); v != "" {
		dbConfig.DBName = v
	}
}
