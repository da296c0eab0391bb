// routes/api_routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/linkedin_analytics/ETL/pipeline"
	"github.com/LilVoxy/linkedin_analytics/ETL/utils"
	"github.com/LilVoxy/linkedin_analytics/metrics"
	"github.com/LilVoxy/linkedin_analytics/middleware"
	"github.com/LilVoxy/linkedin_analytics/session"
	"github.com/LilVoxy/linkedin_analytics/websocket"
)

// Dependencies содержит зависимости обработчиков API.
// WS, Metrics и StaticDir необязательны.
type Dependencies struct {
	Pipeline       *pipeline.Pipeline
	Store          *session.Store
	WS             *websocket.Manager
	Metrics        *metrics.Metrics
	Logger         *utils.ETLLogger
	MaxUploadBytes int64
	StaticDir      string
}

// SetupRoutes настраивает все маршруты API и WebSocket
func SetupRoutes(router *mux.Router, deps Dependencies) {
	// Применяем CORS middleware
	router.Use(middleware.CORSMiddleware)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
		router.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api").Subrouter()

	// API сессий
	api.HandleFunc("/sessions", CreateSessionHandler(deps)).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{id}", DeleteSessionHandler(deps)).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/sessions/{id}/uploads", UploadsHandler(deps)).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{id}/uploads/{uploadID:[0-9]+}/file", UploadFileHandler(deps)).Methods("GET", "OPTIONS")

	// Загрузка файлов
	api.HandleFunc("/sessions/{id}/files", UploadFilesHandler(deps)).Methods("POST", "OPTIONS")

	// Дашборд и выгрузки
	api.HandleFunc("/sessions/{id}/dashboard", DashboardHandler(deps)).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{id}/posts.csv", PostsCSVHandler(deps)).Methods("GET", "OPTIONS")

	// Конфигурация продвижения
	api.HandleFunc("/sessions/{id}/boosted", BoostedTemplateHandler(deps)).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{id}/boosted", SaveBoostedHandler(deps)).Methods("PUT", "OPTIONS")
	api.HandleFunc("/sessions/{id}/boosted-config.csv", BoostedConfigCSVHandler(deps)).Methods("GET", "OPTIONS")

	// WebSocket соединения
	if deps.WS != nil {
		router.HandleFunc("/ws/{id}", deps.WS.HandleConnections)
	}

	// Статические файлы
	if deps.StaticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(deps.StaticDir)))
	}
}
