package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/climate-vuln/internal/api"
	"github.com/mr1hm/climate-vuln/internal/config"
	"github.com/mr1hm/climate-vuln/internal/loader"
	"github.com/mr1hm/climate-vuln/internal/logging"
	"github.com/mr1hm/climate-vuln/internal/models"
	"github.com/mr1hm/climate-vuln/internal/observability"
	"github.com/mr1hm/climate-vuln/internal/repository"
	"github.com/mr1hm/climate-vuln/internal/scoring"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	assets, err := loader.LoadAssets(cfg.AssetsPath())
	if err != nil {
		logging.Fatalf("Failed to load assets: %v", err)
	}

	hazards, err := loader.LoadHazards(cfg.HazardsPath())
	switch {
	case errors.Is(err, loader.ErrHazardFileNotFound):
		slog.Warn("hazard file missing, every scenario uses medium exposure", "path", cfg.HazardsPath())
		hazards = models.HazardTable{}
	case err != nil:
		logging.Fatalf("Failed to load hazards: %v", err)
	}

	weights, err := config.LoadWeights(cfg.Data.WeightsFile)
	if err != nil {
		logging.Fatalf("Failed to load weights: %v", err)
	}
	slog.Info("dataset loaded",
		"assets", len(assets),
		"scenarios", len(hazards.Labels()),
		"hazard_columns", len(hazards.Columns),
	)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	// Score every listed scenario in the background
	mgr := scoring.NewManager(cfg, scoring.Dataset{
		Assets:  assets,
		Hazards: hazards,
		Weights: weights,
	}, db, metrics, nil)
	mgr.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestIDMiddleware())
	router.Use(api.MetricsMiddleware(metrics))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(db, mgr, metrics)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
