// routes/api_routes.go
package routes

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes настраивает маршруты API мониторинга ETL
func SetupRoutes(router *mux.Router, warehouseDB *sql.DB) {
	// Применяем CORS middleware
	router.Use(corsMiddleware)

	// Текущее состояние ETL процесса
	router.HandleFunc("/api/etl/status", GetStatusHandler(warehouseDB)).Methods("GET", "OPTIONS")

	// История запусков ETL
	router.HandleFunc("/api/etl/runs", GetRunsHandler(warehouseDB)).Methods("GET", "OPTIONS")

	// Прогноз своевременности доставок
	router.HandleFunc("/api/etl/trends", GetTrendsHandler(warehouseDB)).Methods("GET", "OPTIONS")
}

// corsMiddleware разрешает кросс-доменные запросы к API мониторинга
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
