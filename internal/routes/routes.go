package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"speedguard/internal/config"
	"speedguard/internal/handlers"
	"speedguard/internal/logger"
	"speedguard/internal/middleware"
	"speedguard/internal/repository"
	"speedguard/internal/services/storage"
	hub "speedguard/internal/services/websocket"
)

// Deps groups everything the HTTP layer talks to.
type Deps struct {
	Jobs        handlers.JobQueue
	Files       *storage.FileService
	Thresholds  handlers.ThresholdReader
	Violations  repository.ViolationRepository
	Blacklist   repository.BlacklistRepository
	Settings    repository.SettingsRepository
	EmailConfig repository.EmailConfigRepository
	Live        *hub.HubService
}

// SetupRoutes registers API endpoints and static files, and wraps the router
// with CORS and request logging.
func SetupRoutes(deps Deps, cfg *config.Config, logger *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Video processing
	r.HandleFunc("/upload", handlers.UploadHandler(deps.Jobs, deps.Files, cfg, logger)).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{id}", handlers.JobStatusHandler(deps.Jobs, logger)).Methods(http.MethodGet)
	r.HandleFunc("/results/{filename}", handlers.ResultVideoHandler(deps.Files, logger)).Methods(http.MethodGet)

	// Blacklist and settings
	r.HandleFunc("/blacklist", handlers.GetBlacklistHandler(deps.Blacklist, logger)).Methods(http.MethodGet)
	r.HandleFunc("/blacklist", handlers.ManageBlacklistHandler(deps.Blacklist, logger)).Methods(http.MethodPost)
	r.HandleFunc("/threshold", handlers.GetThresholdHandler(deps.Thresholds, logger)).Methods(http.MethodGet)
	r.HandleFunc("/threshold", handlers.SetThresholdHandler(deps.Settings, logger)).Methods(http.MethodPost)
	r.HandleFunc("/email-config", handlers.GetEmailConfigHandler(deps.EmailConfig, logger)).Methods(http.MethodGet)
	r.HandleFunc("/email-config", handlers.SetEmailConfigHandler(deps.EmailConfig, logger)).Methods(http.MethodPost)

	// Dashboard
	r.HandleFunc("/stats", handlers.GetStatsHandler(deps.Violations, logger)).Methods(http.MethodGet)
	r.HandleFunc("/violations", handlers.GetViolationsHandler(deps.Violations, logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/live", handlers.LiveWebsocketHandler(deps.Live, logger))

	// Log endpoints
	r.HandleFunc("/logs/{level}", handlers.ShowLogsHandler(logger)).Methods(http.MethodGet)
	r.HandleFunc("/logs/{level}/clear", handlers.ClearLogsHandler(logger)).Methods(http.MethodPost, http.MethodDelete)

	r.HandleFunc("/health", handlers.HealthHandler(logger)).Methods(http.MethodGet)

	// Static dashboard
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("static"))).Methods(http.MethodGet)

	r.Use(mux.MiddlewareFunc(middleware.LoggingMiddleware(logger)))
	return middleware.CORSMiddleware(cfg.AllowedOrigins)(r)
}
