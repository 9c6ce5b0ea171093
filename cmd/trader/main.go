// Package main is the entry point for the nova trading daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ericyong81/nova-trader/internal/alerting"
	"github.com/ericyong81/nova-trader/internal/calendar"
	"github.com/ericyong81/nova-trader/internal/config"
	"github.com/ericyong81/nova-trader/internal/coordinator"
	"github.com/ericyong81/nova-trader/internal/history"
	"github.com/ericyong81/nova-trader/internal/metrics"
	"github.com/ericyong81/nova-trader/internal/persistence"
	"github.com/ericyong81/nova-trader/internal/reconcile"
	"github.com/ericyong81/nova-trader/internal/scheduler"
	"github.com/ericyong81/nova-trader/internal/server"
	"github.com/ericyong81/nova-trader/internal/venue"
	"github.com/ericyong81/nova-trader/internal/venue/nova"
	"github.com/ericyong81/nova-trader/internal/venue/paper"
)

// Version information (set by build flags).
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	case "run":
		cmdRun(os.Args[2:])
	case "reconcile":
		cmdReconcile(os.Args[2:])
	case "validate":
		cmdValidate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Nova Trader - Webhook-Driven FCPO Futures Trading

Usage:
  nova-trader <command> [options]

Commands:
  run        Start the trading daemon (live or paper)
  reconcile  Replay the filled-order ledger into realized trades
  validate   Validate configuration file
  version    Show version information
  help       Show this help message

Examples:
  nova-trader run --config config.yaml
  nova-trader run --config config.yaml --paper
  nova-trader reconcile --config config.yaml

Use "nova-trader <command> --help" for more information about a command.`)
}

func cmdVersion() {
	fmt.Printf("nova-trader version %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid!")
	fmt.Printf("  Platform: %s\n", cfg.Venue.Platform)
	fmt.Printf("  Symbol: %s (%s)\n", cfg.Trading.Symbol, cfg.Trading.InstrumentCode)
	fmt.Printf("  Contract multiplier: %s\n", cfg.Multiplier())
	fmt.Printf("  Trade guard: %d min, force-exit guard: %d min\n",
		cfg.Calendar.TradeGuardMin, cfg.Calendar.ForceExitGuardMin)
	fmt.Printf("  Ledger: %s\n", cfg.Persistence.Path)
}

func cmdReconcile(args []string) {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	verbose := fs.Bool("verbose", false, "Verbose output")
	fs.Parse(args)

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	repo, err := persistence.NewSQLiteRepository(cfg.Persistence.Path)
	if err != nil {
		slog.Error("failed to open ledger store", "err", err)
		os.Exit(1)
	}
	defer func() { _ = repo.Close() }()

	engine := reconcile.NewEngine(repo, cfg.Multiplier(), logger)
	inserted, err := engine.Run(context.Background())
	if err != nil {
		slog.Error("reconciliation failed", "err", err)
		os.Exit(1)
	}

	total, err := repo.CountRealizedTrades(context.Background())
	if err != nil {
		slog.Error("failed to count realized trades", "err", err)
		os.Exit(1)
	}

	fmt.Printf("Reconciliation complete: %d new realized trades (%d total)\n", inserted, total)
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	paperMode := fs.Bool("paper", false, "Paper trading mode (in-memory venue)")
	fs.Parse(args)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mode := "live"
	if *paperMode {
		mode = "paper"
	}

	slog.Info("nova-trader starting",
		"version", Version,
		"mode", mode,
		"symbol", cfg.Trading.Symbol,
		"platform", cfg.Venue.Platform,
	)

	// Venue client
	var venueClient venue.Client
	if *paperMode {
		venueClient = paper.New(paper.Config{
			Symbol:     cfg.Trading.Symbol,
			SeriesCode: cfg.Trading.DefaultSeriesCode,
		}, logger)
	} else {
		sessions := venue.NewFileSessionSource(cfg.Venue.SessionFile)
		venueClient = nova.NewClient(nova.Config{
			Platform:          cfg.Venue.Platform,
			InstrumentCode:    cfg.Trading.InstrumentCode,
			RequestTimeout:    cfg.RequestTimeout(),
			MaxRetries:        cfg.Venue.MaxRetries,
			RequestsPerSecond: cfg.Venue.RequestsPerSecond,
		}, sessions, logger)
	}

	// Ledger store
	repo, err := persistence.NewSQLiteRepository(cfg.Persistence.Path)
	if err != nil {
		slog.Error("failed to open ledger store", "err", err)
		os.Exit(1)
	}
	defer func() { _ = repo.Close() }()

	// Alerting
	var alerter alerting.Alerter = alerting.NewConsoleAlerter(logger)
	if cfg.Alerting.Enabled {
		alerter = alerting.NewMultiAlerter(
			alerting.NewConsoleAlerter(logger),
			alerting.NewDiscordAlerter(cfg.Alerting.WebhookURL, cfg.AlertTimeout()),
		)
	}

	// Market calendar
	cal := calendar.New(calendar.Config{
		Location:       cfg.Location(),
		Closes:         cfg.ClosingSchedule(),
		TradeGuard:     time.Duration(cfg.Calendar.TradeGuardMin) * time.Minute,
		ForceExitGuard: time.Duration(cfg.Calendar.ForceExitGuardMin) * time.Minute,
	})

	recorder := metrics.NewRecorder()
	engine := reconcile.NewEngine(repo, cfg.Multiplier(), logger)

	coord := coordinator.New(venueClient, repo, engine, cal, alerter, recorder, coordinator.Params{
		FeedCheckRetries:       cfg.Execution.FeedCheckRetries,
		FeedCheckDelay:         cfg.FeedCheckDelay(),
		FillConfirmAttempts:    cfg.Execution.FillConfirmAttempts,
		FillConfirmDelay:       cfg.FillConfirmDelay(),
		HistoryConfirmAttempts: cfg.Execution.HistoryConfirmAttempts,
		HistoryConfirmDelay:    cfg.HistoryConfirmDelay(),
		Multiplier:             cfg.Multiplier(),
	}, logger)

	// Periodic jobs
	toggle := scheduler.NewForceExitToggle(cfg.Server.ForceExitControl)
	syncer := history.NewSyncer(venueClient, repo, logger)
	sched := scheduler.New(cal, coord, syncer, toggle, recorder, scheduler.Instrument{
		Symbol:     cfg.Trading.Symbol,
		SeriesCode: cfg.Trading.DefaultSeriesCode,
		LotSize:    cfg.Trading.DefaultLotSize,
		StrategyID: "scheduler",
	}, cfg.CalendarCheckInterval(), cfg.HistorySyncInterval(), logger)

	// Metrics server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), logger)
		metricsServer.RegisterHealthCheck("ledger", func() metrics.Check {
			if _, err := repo.CountRealizedTrades(context.Background()); err != nil {
				return metrics.Check{Status: "unhealthy", Message: err.Error()}
			}
			return metrics.Check{Status: "healthy"}
		})
		if err := metricsServer.Start(); err != nil {
			slog.Error("failed to start metrics server", "err", err)
			os.Exit(1)
		}
	}

	// Webhook server
	webhook := server.New(fmt.Sprintf(":%d", cfg.Server.Port), coord, venueClient, toggle, server.Defaults{
		Symbol:     cfg.Trading.Symbol,
		SeriesCode: cfg.Trading.DefaultSeriesCode,
		LotSize:    cfg.Trading.DefaultLotSize,
		StrategyID: "webhook",
	}, logger)
	if err := webhook.Start(); err != nil {
		slog.Error("failed to start webhook server", "err", err)
		os.Exit(1)
	}

	// Catch up the ledger before going live.
	if _, err := syncer.Sync(ctx); err != nil {
		slog.Warn("initial history sync failed", "err", err)
	}
	if _, err := engine.Run(ctx); err != nil {
		slog.Warn("initial reconciliation failed", "err", err)
	}

	// Run the scheduler until shutdown.
	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("scheduler stopped", "err", err)
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := webhook.Shutdown(shutdownCtx); err != nil {
		slog.Error("webhook shutdown failed", "err", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics shutdown failed", "err", err)
		}
	}

	// Leave a final summary in the logs for the day's trades.
	day := time.Now().In(cfg.Location())
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, cfg.Location())
	if trades, err := repo.GetRealizedTrades(context.Background(), start, start.AddDate(0, 0, 1)); err == nil && len(trades) > 0 {
		slog.Info("daily summary", "report", alerting.TradeSummary(trades))
	}

	slog.Info("nova-trader stopped")
}
