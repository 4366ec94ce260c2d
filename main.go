package main

import (
	"crypto/tls"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/username/strperformance/backend/src/config"
	"github.com/username/strperformance/backend/src/database"
	"github.com/username/strperformance/backend/src/handlers"
	"github.com/username/strperformance/backend/src/logger"
	"github.com/username/strperformance/backend/src/model"
	"github.com/username/strperformance/backend/src/processors"
	"github.com/username/strperformance/backend/src/security"
	"github.com/username/strperformance/backend/src/services"
	"github.com/username/strperformance/backend/src/utils"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

func newCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "X-CSRF-Token", "X-Requested-With", "If-None-Match"},
		ExposedHeaders:   []string{"X-CSRF-Token", "ETag"},
		AllowCredentials: true,
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("STR performance backend starting...")

	if len(config.Cfg.SessionSecret) < 32 {
		logger.L.Error("SESSION_SECRET configuration invalid: must be at least 32 characters.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	if err := database.RunMigrations(database.DB, config.Cfg.MigrationsPath); err != nil {
		stdlog.Fatalf("Failed to run database migrations: %v", err)
	}

	rosterStore := model.NewSQLRosterStore(database.DB)
	rosterCache := services.NewRosterCache(config.Cfg.RosterCacheExpiry)

	performanceService := services.NewPerformanceService(
		rosterStore,
		processors.NewBookingReconciler(config.Cfg.HeaderScanLines),
		processors.NewInsightProcessor(),
		rosterCache,
		config.Cfg.ReportingPeriod,
	)

	sessions := security.NewSessionManager(config.Cfg.SessionSecret, config.Cfg.SessionExpiry)
	csrfTokens := handlers.NewCSRFTokens(config.Cfg.CSRFAuthKey)
	performanceHandler := handlers.NewPerformanceHandler(performanceService)
	uploadHandler := handlers.NewUploadHandler(performanceService, config.Cfg.MaxUploadSizeBytes)

	limiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(newCORS(config.Cfg.AllowedOrigins).Handler)
	r.Use(handlers.RateLimitMiddleware(limiter))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"message": "STR performance backend is running"}, http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.SessionMiddleware(sessions))

		r.Get("/csrf", csrfTokens.GetCSRFToken)

		r.Group(func(r chi.Router) {
			r.Use(csrfTokens.Middleware)

			r.Get("/performance", performanceHandler.HandleGetPerformance)
			r.Get("/performance/totals", performanceHandler.HandleGetTotals)
			r.Post("/performance/upload", uploadHandler.HandleUpload)
			r.Post("/performance/reset", performanceHandler.HandleReset)

			r.Get("/units", performanceHandler.HandleSearchUnits)
			r.Get("/units/{unitID}/insights", performanceHandler.HandleGetUnitInsights)
			r.Put("/units/{unitID}/comments", performanceHandler.HandleUpdateUnitComments)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			utils.SendJSONError(w, "route not found", http.StatusNotFound)
			return
		}
		http.NotFound(w, r)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr, "period", config.Cfg.ReportingPeriod)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
