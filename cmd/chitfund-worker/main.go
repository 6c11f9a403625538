package main

import (
	"context"
	"errors"
	"os"
	"time"

	"chitfund/internal/amqp"
	"chitfund/internal/cli"
	"chitfund/internal/log"
	gsheet "chitfund/internal/sheets/google"
	"chitfund/internal/storage"
	"chitfund/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	logger.Info("Starting chitfund-worker")

	if cfg.GoogleSpreadsheetID == "" {
		cli.Fatal(logger, "Nothing to export", errors.New("GOOGLE_SPREADSHEET_ID is not set"))
	}

	// The worker always reads the shared SQLite file, whatever DATA_BACKEND says.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize SQLite repository", err, "path", cfg.SQLiteDBPath)
	}
	defer repo.Close()

	exporter, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets exporter", err)
	}
	logger.Info("Google Sheets exporter initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	w := worker.NewExportWorker(cfg.Settings(), repo, exporter, cfg.ExportInterval)

	var source worker.EventSource
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, detecting changes on interval only", "error", err)
		} else {
			defer client.Close()
			source = client
		}
	} else {
		logger.Info("AMQP disabled - detecting changes on interval only")
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	err = w.Run(ctx, source)
	if ctx.Err() == nil {
		logger.Error("Export worker stopped", "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped", "exports", w.Exported())
}
