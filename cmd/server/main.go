package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mqttstack/acl-store/internal/config"
	"github.com/mqttstack/acl-store/internal/database"
	"github.com/mqttstack/acl-store/internal/health"
	"github.com/mqttstack/acl-store/internal/logger"
	"github.com/mqttstack/acl-store/internal/metrics"
	appmw "github.com/mqttstack/acl-store/internal/middleware"
	"github.com/mqttstack/acl-store/internal/repository"
	"github.com/mqttstack/acl-store/internal/user"
	"github.com/mqttstack/acl-store/internal/version"
)

// Version is set at build time
var Version = "dev"

func main() {
	cfg := config.Load()

	log := logger.New(logger.DefaultConfig())
	slog.SetDefault(log)

	ctx := context.Background()

	// Database connections: pgx pool for the user repository, sqlx handle for the
	// version repository.
	dbPool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	sqlxDB, err := database.ConnectSqlx(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to open sqlx database handle", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sqlxDB.Close()

	log.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("port", cfg.Database.Port),
		slog.String("dbname", cfg.Database.DBName),
	)

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	versionRepo := repository.NewDatabaseVersionRepository(sqlxDB)

	// Services and handlers
	userService := user.NewService(userRepo, log)
	userHandler := user.NewHandler(userService, log)
	versionHandler := version.NewHandler(versionRepo, log)
	healthHandler := health.NewHandler(health.Config{
		DBPool:  dbPool,
		Version: Version,
	})

	// DB pool statistics for Prometheus
	statsCollector := metrics.NewDBStatsCollector(dbPool, sqlxDB.DB, log)
	statsCollector.Start(15 * time.Second)
	defer statsCollector.Stop()

	// Router
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(appmw.StructuredLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Readiness)
	r.Get("/live", healthHandler.Liveness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		user.RegisterRoutes(r, userHandler)
		version.RegisterRoutes(r, versionHandler)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", slog.String("addr", addr), slog.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server exited")
}
