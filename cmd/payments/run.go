package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/grachmannico95/payments-engine/internal/config"
	"github.com/grachmannico95/payments-engine/internal/handler"
	"github.com/grachmannico95/payments-engine/internal/ledger"
	"github.com/grachmannico95/payments-engine/internal/report"
	"github.com/grachmannico95/payments-engine/internal/server"
	"github.com/grachmannico95/payments-engine/internal/service"
	"github.com/grachmannico95/payments-engine/internal/storage"
	"github.com/grachmannico95/payments-engine/pkg/logger"
	"github.com/spf13/pflag"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

const usage = `usage:
  payments [flags] <transactions.csv>   process a file and print the account report
  payments serve [flags]                run the HTTP server`

func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	name := "payments"
	serve := len(args) > 0 && args[0] == "serve"
	if serve {
		name = "payments serve"
		args = args[1:]
	}

	positional, err := cfg.ParseFlags(name, args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintln(stderr, usage)
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	if serve {
		if len(positional) != 0 {
			fmt.Fprintln(stderr, usage)
			return exitUsage
		}
		return runServer(ctx, cfg, log)
	}

	if len(positional) != 1 {
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}

	if err := processFile(ctx, cfg, log, positional[0], stdout); err != nil {
		log.Error(ctx, "Processing failed",
			"file", positional[0],
			"error", err,
		)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFatal
	}

	return exitOK
}

// processFile runs one transaction file through a fresh ledger and writes
// the final account report to out. Nothing is written to out when the
// stream fails.
func processFile(ctx context.Context, cfg *config.Config, log *logger.Logger, path string, out io.Writer) error {
	ctx = logger.WithBatchID(ctx, uuid.New().String())

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	openLog, err := storage.NewLogOpener(cfg.Ledger.LogStore, cfg.Ledger.LogDir)
	if err != nil {
		return err
	}

	txLog, err := openLog()
	if err != nil {
		return fmt.Errorf("open transaction log: %w", err)
	}

	l := ledger.New(txLog, log)
	defer func() {
		if err := l.Close(); err != nil {
			log.Warn(ctx, "Failed to close transaction log",
				"error", err,
			)
		}
	}()

	processor := service.NewCSVProcessor(log)
	result, err := processor.ProcessStream(ctx, bufio.NewReader(file), l)
	if err != nil {
		return err
	}

	stats := l.Stats()
	log.Info(ctx, "File processed",
		"file", path,
		"rows", result.Rows,
		"accepted", stats.Accepted,
		"recorded", l.RecordedTransactions(),
	)

	w := bufio.NewWriter(out)
	if err := report.WriteCSV(w, l.Snapshot()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return w.Flush()
}

func runServer(ctx context.Context, cfg *config.Config, log *logger.Logger) int {
	log.Info(ctx, "Starting application")

	repo := storage.NewMemoryStore()
	log.Info(ctx, "Repository initialized")

	openLog, err := storage.NewLogOpener(cfg.Ledger.LogStore, cfg.Ledger.LogDir)
	if err != nil {
		log.Error(ctx, "Failed to configure transaction log",
			"error", err,
		)
		return exitFatal
	}

	csvProcessor := service.NewCSVProcessor(log)
	batchService := service.NewBatchService(repo, csvProcessor, openLog, log)
	log.Info(ctx, "Services initialized",
		"tx_log", cfg.Ledger.LogStore,
	)

	batchHandler := handler.NewBatchHandler(batchService, log, cfg.Server.MaxUploadBytes)
	healthHandler := handler.NewHealthHandler(cfg.Ledger.LogStore)
	log.Info(ctx, "Handlers initialized")

	srv := server.New(cfg, log, batchHandler, healthHandler)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	log.Info(ctx, "Application started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	// In-flight uploads finish before Shutdown returns.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown error",
			"error", err,
		)
		return exitFatal
	}

	log.Info(ctx, "Application stopped gracefully")
	return exitOK
}
