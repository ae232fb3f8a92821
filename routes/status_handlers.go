// routes/status_handlers.go
package routes

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/FleetLogix/fleetlogix_etl/models"
	"github.com/FleetLogix/fleetlogix_etl/trends"
)

// RunsResponse структура ответа API для истории запусков
type RunsResponse struct {
	Days int                `json:"days"`
	Runs []models.ETLRunLog `json:"runs"`
}

// TrendsResponse структура ответа API для прогноза своевременности
type TrendsResponse struct {
	Regression *trends.RegressionResult `json:"regression,omitempty"`
	Forecasts  []trends.ForecastPoint   `json:"forecasts"`
}

// GetStatusHandler обрабатывает запросы текущего состояния ETL процесса
func GetStatusHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repository := models.NewMySQLETLLogRepository(db)

		monitor, err := repository.GetETLStateMonitor()
		if err != nil {
			log.Printf("Ошибка при получении состояния ETL: %v", err)
			http.Error(w, "Ошибка при получении состояния ETL", http.StatusInternalServerError)
			return
		}

		writeJSON(w, monitor)
	}
}

// GetRunsHandler обрабатывает запросы истории запусков ETL
// Параметр days задает глубину истории (по умолчанию 7 дней)
func GetRunsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 7
		if daysStr := r.URL.Query().Get("days"); daysStr != "" {
			parsed, err := strconv.Atoi(daysStr)
			if err != nil || parsed <= 0 {
				http.Error(w, "Неверный формат параметра days", http.StatusBadRequest)
				return
			}
			days = parsed
		}

		repository := models.NewMySQLETLLogRepository(db)

		runs, err := repository.GetETLRunStats(days)
		if err != nil {
			log.Printf("Ошибка при получении истории запусков: %v", err)
			http.Error(w, "Ошибка при получении истории запусков", http.StatusInternalServerError)
			return
		}

		writeJSON(w, RunsResponse{Days: days, Runs: runs})
	}
}

// GetTrendsHandler обрабатывает запросы прогноза своевременности доставок
func GetTrendsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repository := trends.NewMySQLTrendRepository(db)

		regression, err := repository.GetLastRegressionResult()
		if err != nil {
			log.Printf("Ошибка при получении результата регрессии: %v", err)
			http.Error(w, "Ошибка при получении прогноза", http.StatusInternalServerError)
			return
		}

		// Прогнозы на ближайшие две недели
		now := time.Now()
		forecasts, err := repository.GetForecasts(now, now.AddDate(0, 0, 14))
		if err != nil {
			log.Printf("Ошибка при получении прогнозов: %v", err)
			http.Error(w, "Ошибка при получении прогноза", http.StatusInternalServerError)
			return
		}

		writeJSON(w, TrendsResponse{Regression: regression, Forecasts: forecasts})
	}
}

// writeJSON сериализует ответ API в JSON
func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Ошибка при сериализации ответа: %v", err)
	}
}
