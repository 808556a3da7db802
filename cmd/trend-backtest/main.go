package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ducminhle1904/trend-rsi-backtest/cmd/common"
	"github.com/ducminhle1904/trend-rsi-backtest/internal/logger"
	"github.com/ducminhle1904/trend-rsi-backtest/internal/monitoring"
	"github.com/ducminhle1904/trend-rsi-backtest/internal/notifications"
	"github.com/ducminhle1904/trend-rsi-backtest/internal/store"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/config"
	"github.com/ducminhle1904/trend-rsi-backtest/pkg/orchestrator"
)

const AppName = "trend-backtest"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet(AppName, flag.ExitOnError)
	flags := NewBacktestFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if *flags.Version {
		common.PrintVersion(os.Stdout, AppName)
		return nil
	}
	if err := flags.Validate(); err != nil {
		return err
	}

	cfg, err := common.LoadConfig(flags.CommonFlags)
	if err != nil {
		return err
	}
	if err := flags.Apply(cfg); err != nil {
		return err
	}
	if *flags.PrintConfig {
		return cfg.WriteYAML(os.Stdout)
	}

	log, err := common.NewLogger(cfg, AppName)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, cleanup, err := buildRunner(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Schedule.Every > 0 {
		log.Status("scheduled mode: every %s, %d tickers", cfg.Schedule.Every, len(cfg.Tickers))
		return runner.Schedule(ctx, cfg.Tickers, cfg.Schedule.Every)
	}

	batch, err := runner.RunOnce(ctx, cfg.Tickers)
	if err != nil {
		return err
	}
	if len(batch.Results) == 0 {
		return fmt.Errorf("no instrument could be backtested (%d failures)", len(batch.Failures))
	}
	return nil
}

// buildRunner wires the source, outputs and monitoring selected in cfg.
func buildRunner(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*orchestrator.Runner, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	source, err := orchestrator.NewSource(cfg, log.Zap())
	if err != nil {
		return nil, cleanup, err
	}
	loader, err := orchestrator.NewLoader(cfg, source)
	if err != nil {
		return nil, cleanup, err
	}
	start, end := loader.Window(time.Now())
	log.Info("source %s, window %s to %s", source.Name(), start.Format(time.DateOnly), end.Format(time.DateOnly))

	opts := []orchestrator.Option{}

	if cfg.Store.SQLitePath != "" {
		st, err := store.NewSQLiteStore(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = st.Close() })
		opts = append(opts, orchestrator.WithStore(st))
	}

	if cfg.Telegram.Enabled {
		opts = append(opts, orchestrator.WithNotifier(notifications.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)))
	}

	if cfg.Metrics.Addr != "" {
		metrics := monitoring.NewMetrics()
		maxAge := 2 * cfg.Schedule.Every
		health := monitoring.NewHealthChecker(maxAge)

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", health)
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server: %v", err)
			}
		}()
		closers = append(closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
		log.Info("serving metrics on %s", cfg.Metrics.Addr)
		opts = append(opts, orchestrator.WithMetrics(metrics), orchestrator.WithHealth(health))
	}

	runner, err := orchestrator.NewRunner(cfg, loader, log, opts...)
	if err != nil {
		return nil, cleanup, err
	}
	return runner, cleanup, nil
}
