package main

import (
	"context"
	"errors"
	"os"
	"time"

	"zeus/internal/amqp"
	"zeus/internal/backend"
	"zeus/internal/cli"
	"zeus/internal/config"
	zlog "zeus/internal/log"
	gsheet "zeus/internal/sheets/google"
	"zeus/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, zlog.ComponentWorker)
	cfg = cli.LoadAndValidateConfig(logger, func(c *config.Config) error {
		return errors.Join(c.Validate(), c.ValidateWorker())
	})

	logger.Info("Starting zeus-worker")
	ctx := context.Background()

	// The worker only reads the store; publishing is the web server's job.
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", zlog.FieldError, err)
		os.Exit(1)
	}
	bc.AMQPURL = ""
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		logger.Error("Failed to initialize backend", zlog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
	}()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", zlog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", zlog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := worker.NewExportWorker(res.Store, sheetsClient, logger)
	if err := exporter.StartupExport(ctx); err != nil {
		logger.Error("Startup export failed", zlog.FieldError, err)
	}

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		err := amqpClient.ConsumeLedgerSaved(runCtx, exporter.HandleLedgerSaved)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", zlog.FieldError, err)
		}
	}()

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Worker shutdown complete")
}
