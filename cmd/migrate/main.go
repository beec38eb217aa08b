package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/01moynul/retail-orders/internal/database"
	"github.com/01moynul/retail-orders/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// migrate only needs DB_DSN, so it skips the full config and its required
// api settings.
func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	steps := flag.Int("steps", 0, "migrations to apply (negative rolls back); 0 applies all pending")
	flag.Parse()

	if err := logging.Setup("info", os.Getenv("LOG_FORMAT")); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	if err := godotenv.Load(*envFile); err != nil {
		log.Warn().Str("path", *envFile).Msg("Could not load dotenv file, relying on the environment")
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal().Msg("DB_DSN is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, dsn, *steps); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Int("steps", *steps).Msg("Migrations applied")
}
