// internal/delivery/httpapi/server.go
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"meteovip-backend/application/services/evaluate"
	"meteovip-backend/application/services/tick"
	"meteovip-backend/internal/config"
	rediscache "meteovip-backend/internal/infrastructure/cache/redis"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/alerts"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/locations"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/plans"
	"meteovip-backend/internal/infrastructure/persistence/postgres/repository/users"
	"meteovip-backend/internal/infrastructure/weather/openmeteo"
	"meteovip-backend/pkg/logger"
)

// Server - HTTP фасад для Mini App и внешнего триггера тика
type Server struct {
	httpServer *http.Server

	cfg          *config.Config
	userRepo     users.UserRepository
	locationRepo locations.LocationRepository
	planRepo     plans.PlanRepository
	alertRepo    alerts.AlertRepository
	provider     *openmeteo.CachedProvider
	evaluateSvc  *evaluate.Service
	tickSvc      *tick.Service
	cache        *rediscache.Cache
}

// NewServer создает HTTP сервер со всеми маршрутами
func NewServer(
	cfg *config.Config,
	userRepo users.UserRepository,
	locationRepo locations.LocationRepository,
	planRepo plans.PlanRepository,
	alertRepo alerts.AlertRepository,
	provider *openmeteo.CachedProvider,
	evaluateSvc *evaluate.Service,
	tickSvc *tick.Service,
	cache *rediscache.Cache,
) *Server {
	s := &Server{
		cfg:          cfg,
		userRepo:     userRepo,
		locationRepo: locationRepo,
		planRepo:     planRepo,
		alertRepo:    alertRepo,
		provider:     provider,
		evaluateSvc:  evaluateSvc,
		tickSvc:      tickSvc,
		cache:        cache,
	}

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.HttpPort,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// routes собирает все маршруты API
func (s *Server) routes() http.Handler {
	router := mux.NewRouter()
	router.Use(s.corsMiddleware)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Маршруты Mini App требуют подписанный initData
	app := api.NewRoute().Subrouter()
	app.Use(s.authMiddleware)

	app.HandleFunc("/me", s.handleGetMe).Methods(http.MethodGet)
	app.HandleFunc("/me", s.handlePatchMe).Methods(http.MethodPatch)

	app.HandleFunc("/locations", s.handleListLocations).Methods(http.MethodGet)
	app.HandleFunc("/locations", s.handleCreateLocation).Methods(http.MethodPost)
	app.HandleFunc("/locations/current/update", s.handleUpdateCurrentLocation).Methods(http.MethodPost)
	app.HandleFunc("/locations/current/confirm", s.handleConfirmCurrentLocation).Methods(http.MethodPost)
	app.HandleFunc("/locations/{id:[0-9]+}/set-active", s.handleActivateLocation).Methods(http.MethodPost)

	app.HandleFunc("/plans", s.handleListPlans).Methods(http.MethodGet)
	app.HandleFunc("/plans/templates", s.handleListTemplates).Methods(http.MethodGet)
	app.HandleFunc("/plans/from-template", s.handleCreatePlanFromTemplate).Methods(http.MethodPost)
	app.HandleFunc("/plans/{id:[0-9]+}", s.handlePatchPlan).Methods(http.MethodPatch)
	app.HandleFunc("/plans/{id:[0-9]+}", s.handleDeletePlan).Methods(http.MethodDelete)

	app.HandleFunc("/alerts", s.handleListAlerts).Methods(http.MethodGet)

	app.HandleFunc("/evaluate", s.handleEvaluate).Methods(http.MethodGet)
	app.HandleFunc("/weather/summary", s.handleWeatherSummary).Methods(http.MethodGet)

	// Внешний триггер тика защищён общим секретом, не initData
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.Use(s.jobsMiddleware)
	jobs.HandleFunc("/tick", s.handleTick).Methods(http.MethodPost)

	return router
}

// Start запускает HTTP сервер (блокирующий вызов)
func (s *Server) Start() error {
	logger.Info("🌐 [HTTP] Сервер запущен на порту %s", s.cfg.HttpPort)
	return s.httpServer.ListenAndServe()
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("🛑 [HTTP] Остановка сервера")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth - проверка живости
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
