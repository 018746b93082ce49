package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-allocation-api/internal/capacity"
	"github.com/yukikurage/team-allocation-api/internal/config"
	"github.com/yukikurage/team-allocation-api/internal/database"
	"github.com/yukikurage/team-allocation-api/internal/logging"
	"github.com/yukikurage/team-allocation-api/internal/metrics"
	"github.com/yukikurage/team-allocation-api/internal/server"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.Server.GinMode, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Connect to database
	if err := database.Connect(cfg, log); err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	router := server.NewRouter(server.Deps{
		DB: database.GetDB(),
		Capacity: capacity.Validator{
			MaxTeamSize:        cfg.Team.MaxTeamSize,
			NearCapacityMargin: capacity.DefaultNearCapacityMargin,
			MaxManagers:        cfg.Team.MaxManagers,
		},
		Log:            log,
		Metrics:        metrics.New(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
