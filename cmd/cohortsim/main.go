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

	"github.com/alejandrodnm/cohortsim/config"
	"github.com/alejandrodnm/cohortsim/internal/adapters/report"
	"github.com/alejandrodnm/cohortsim/internal/adapters/storage"
	"github.com/alejandrodnm/cohortsim/internal/hazard"
	"github.com/alejandrodnm/cohortsim/internal/ports"
	"github.com/alejandrodnm/cohortsim/internal/simulation"
	"github.com/alejandrodnm/cohortsim/internal/survival"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file (empty = built-in defaults)")
	n := flag.Int("n", 0, "cohort size (overrides config)")
	seed := flag.Int64("seed", 0, "base seed (overrides config)")
	reps := flag.Int("reps", 0, "Monte Carlo replications (overrides config)")
	table := flag.Bool("table", false, "print the full step-by-step curve table (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	noStore := flag.Bool("no-store", false, "skip persisting the run to SQLite")
	history := flag.Duration("history", 0, "print runs persisted within the given window (e.g. 72h) and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *n > 0 {
		cfg.Simulation.N = *n
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *reps > 0 {
		cfg.Simulation.Replications = *reps
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *history > 0 {
		if err := printHistory(ctx, cfg.Storage.DSN, *history); err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.Info("cohortsim starting",
		"n", cfg.Simulation.N,
		"end_period", cfg.Simulation.EndPeriod,
		"horizon_period", cfg.Simulation.HorizonPeriod,
		"minimum_duration", cfg.Simulation.MinimumDuration,
		"hazard_shape", cfg.Hazard.Shape,
		"hazard_scale", cfg.Hazard.Scale,
		"confidence", cfg.Estimator.ConfidenceLevel,
		"seed", cfg.Simulation.Seed,
		"replications", cfg.Simulation.Replications,
	)

	weibull, err := hazard.NewWeibull(cfg.Hazard.Shape, cfg.Hazard.Scale)
	if err != nil {
		slog.Error("invalid hazard parameters", "err", err)
		os.Exit(1)
	}

	sim, err := simulation.New(simulation.Config{
		N:               cfg.Simulation.N,
		EndPeriod:       cfg.Simulation.EndPeriod,
		HorizonPeriod:   cfg.Simulation.HorizonPeriod,
		MinimumDuration: cfg.Simulation.MinimumDuration,
	})
	if err != nil {
		slog.Error("invalid simulation parameters", "err", err)
		os.Exit(1)
	}

	est, err := survival.New(cfg.Estimator.ConfidenceLevel)
	if err != nil {
		slog.Error("invalid estimator parameters", "err", err)
		os.Exit(1)
	}

	var store ports.Storage
	if !*noStore {
		ss, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer ss.Close()
		store = ss
	}

	reporter := report.NewConsole(*table)
	runner := simulation.NewRunner(sim, est, weibull, store, reporter)

	if cfg.Simulation.Replications > 1 {
		runBatch(ctx, runner, cfg)
		return
	}

	if _, err := runner.RunOnce(ctx, cfg.Simulation.Seed); err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}

// runBatch ejecuta las réplicas Monte Carlo y resume el batch.
func runBatch(ctx context.Context, runner *simulation.Runner, cfg *config.Config) {
	result, err := runner.Replicate(ctx,
		cfg.Simulation.Seed,
		cfg.Simulation.Replications,
		cfg.Simulation.Workers,
		true,
	)
	if err != nil {
		slog.Error("replication batch failed", "err", err)
		os.Exit(1)
	}

	fmt.Printf("=== %d replications (base seed %d) ===\n",
		len(result.Replications), cfg.Simulation.Seed)
	fmt.Printf("  mean max deviation: %.4f\n", result.MeanDeviation)
	fmt.Printf("  worst max deviation: %.4f\n", result.MaxDeviation)
	fmt.Printf("  mean event fraction: %.4f\n", result.MeanEventRate)
}

// printHistory lista los runs persistidos dentro de la ventana dada.
func printHistory(ctx context.Context, dsn string, window time.Duration) error {
	store, err := storage.NewSQLiteStorage(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	now := time.Now().UTC()
	runs, err := store.History(ctx, now.Add(-window), now)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Printf("no runs in the last %s\n", window)
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  n=%-6d events=%-6d censored=%-6d dev=%.4f  %s\n",
			run.CreatedAt.Format(time.RFC3339), run.ID[:8],
			run.N, run.Events, run.Censored, run.MaxDeviation, run.Hazard)
	}
	return nil
}

// loadConfig carga el YAML, o los defaults built-in si path está vacío.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
