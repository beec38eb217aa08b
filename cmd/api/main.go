package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/retail-orders/internal/accounts"
	"github.com/01moynul/retail-orders/internal/auth"
	"github.com/01moynul/retail-orders/internal/cart"
	"github.com/01moynul/retail-orders/internal/catalog"
	"github.com/01moynul/retail-orders/internal/config"
	"github.com/01moynul/retail-orders/internal/database"
	"github.com/01moynul/retail-orders/internal/handlers"
	"github.com/01moynul/retail-orders/internal/logging"
	"github.com/01moynul/retail-orders/internal/notify"
	"github.com/01moynul/retail-orders/internal/orders"
	"github.com/01moynul/retail-orders/internal/routes"
	"github.com/01moynul/retail-orders/internal/tasks"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	// 0. --- Configuration & Logging ---
	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	log.Logger = log.With().Str("service", "api").Logger()
	if cfg.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection ---
	db, err := database.OpenDB(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// 2. --- Task Broker ---
	rdb, err := tasks.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer rdb.Close()
	queue := tasks.NewQueue(rdb, tasks.Namespace, cfg.TaskResultTTL)

	// --- Application Setup ---
	notifier := notify.NewNotifier(queue, cfg.AdminEmail)
	app := &handlers.Handlers{
		Catalog:  catalog.NewStore(db),
		Cart:     cart.NewService(db),
		Orders:   orders.NewService(db, notifier),
		Accounts: accounts.NewStore(db),
		Tasks:    queue,
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTokenTTL)
	router := routes.SetupRouter(app, tokens, cfg.CORSOrigin)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Start Server ---
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
