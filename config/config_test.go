package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// chdir переходит в каталог dir и возвращается обратно по завершении теста
// (замена t.Chdir, доступного только с Go 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func TestGetConfigDefaults(t *testing.T) {
	// Запускаемся из пустого каталога, чтобы не подхватить чужой .env
	chdir(t, t.TempDir())

	config := GetConfig()

	assert.Equal(t, "pgx", config.OLTPConfig.Driver)
	assert.Equal(t, 5432, config.OLTPConfig.Port)
	assert.Equal(t, "fleetlogix_database", config.OLTPConfig.DBName)

	assert.Equal(t, "mysql", config.WarehouseConfig.Driver)
	assert.Equal(t, 3306, config.WarehouseConfig.Port)
	assert.Equal(t, "fleetlogix_dwh", config.WarehouseConfig.DBName)

	assert.Equal(t, "02:00", config.DailyRunAt)
	assert.Equal(t, ":8081", config.StatusAddr)
	assert.Equal(t, 30, config.TrendAnalysisDays)
}

func TestGetConfigEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("OLTP_HOST", "oltp.internal")
	t.Setenv("OLTP_PORT", "6432")
	t.Setenv("DWH_PASSWORD", "secret")
	t.Setenv("ETL_DAILY_RUN_AT", "03:30")
	t.Setenv("ETL_TREND_DAYS", "60")
	t.Setenv("ETL_VERBOSE", "false")

	config := GetConfig()

	assert.Equal(t, "oltp.internal", config.OLTPConfig.Host)
	assert.Equal(t, 6432, config.OLTPConfig.Port)
	assert.Equal(t, "secret", config.WarehouseConfig.Password)
	assert.Equal(t, "03:30", config.DailyRunAt)
	assert.Equal(t, 60, config.TrendAnalysisDays)
	assert.False(t, config.EnableDetailedLogging)
}

func TestGetConfigIgnoresInvalidNumbers(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("OLTP_PORT", "not-a-number")
	t.Setenv("ETL_TREND_DAYS", "-5")

	config := GetConfig()

	assert.Equal(t, 5432, config.OLTPConfig.Port)
	assert.Equal(t, 30, config.TrendAnalysisDays)
}
