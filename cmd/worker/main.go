package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/01moynul/retail-orders/internal/catalog"
	"github.com/01moynul/retail-orders/internal/config"
	"github.com/01moynul/retail-orders/internal/database"
	"github.com/01moynul/retail-orders/internal/email"
	"github.com/01moynul/retail-orders/internal/logging"
	"github.com/01moynul/retail-orders/internal/notify"
	"github.com/01moynul/retail-orders/internal/pricelist"
	"github.com/01moynul/retail-orders/internal/tasks"
	"github.com/rs/zerolog/log"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	log.Logger = log.With().Str("service", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenDB(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	rdb, err := tasks.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer rdb.Close()
	queue := tasks.NewQueue(rdb, tasks.Namespace, cfg.TaskResultTTL)

	var sender email.Sender = email.LogSender{}
	if cfg.MailAPIURL != "" {
		sender = email.NewAPISender(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom)
	} else {
		log.Warn().Msg("MAIL_API_URL not set, emails are only logged")
	}

	worker := tasks.NewWorker(queue, cfg.WorkerConcurrency, cfg.TaskMaxRetries)
	worker.Handle(pricelist.TaskName, pricelist.TaskHandler(pricelist.NewReconciler(db)))
	worker.Handle(catalog.ExportTaskName, catalog.ExportHandler(catalog.NewStore(db)))
	worker.Handle(notify.TaskSendEmail, notify.SendEmailHandler(sender))

	if cfg.ExportSchedule != "" {
		scheduler := tasks.NewScheduler(queue)
		if err := scheduler.Schedule(cfg.ExportSchedule, catalog.ExportTaskName, struct{}{}); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.ExportSchedule).Msg("Invalid export schedule")
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Info().Str("schedule", cfg.ExportSchedule).Msg("Catalog export scheduled")
	}

	worker.Run(ctx)
}
