// Package main is the entry point for the camp scheduler API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/camp-scheduler/internal/api"
	"github.com/jakechorley/camp-scheduler/internal/config"
	"github.com/jakechorley/camp-scheduler/pkg/clients/webhookclient"
	"github.com/jakechorley/camp-scheduler/pkg/core/gateway"
	"github.com/jakechorley/camp-scheduler/pkg/core/model"
	"github.com/jakechorley/camp-scheduler/pkg/core/schedule"
	"github.com/jakechorley/camp-scheduler/pkg/postgres"
	"github.com/jakechorley/camp-scheduler/pkg/utils/logging"
)

func main() {
	env := flag.String("env", "", "Environment (selects config and log file naming)")
	configPath := flag.String("config", "", "Explicit config file path (overrides -env lookup)")
	flag.Parse()

	if err := run(*env, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(env, configPath string) error {
	logger, err := logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting camp scheduler server", zap.String("environment", env))

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.LoadWithEnv(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	store, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	gw := gateway.New(store, cfg.MissingKeyPolicy(), logger)

	// Initial load; a configured fallback dataset keeps the board
	// usable when the endpoint is down
	fallback, err := loadFallback(cfg.FallbackDataPath)
	if err != nil {
		return err
	}
	if err := gw.LoadWithFallback(ctx, fallback); err != nil {
		if fallback == nil {
			logger.Warn("Initial load failed; the board is empty until a reload succeeds", zap.Error(err))
		}
	}

	week, err := activeWeek(gw, cfg.WeekRule())
	if err != nil {
		return fmt.Errorf("failed to build week window: %w", err)
	}
	grid := schedule.NewGrid(cfg.TimeSlots)

	router := api.NewRouter(gw, grid, week, cfg.WeekRule(), logger)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (gateway.ScheduleStore, func(), error) {
	switch cfg.Backend {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.PostgresURL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		logger.Info("Using postgres schedule store")
		return db, db.Close, nil
	default:
		logger.Info("Using webhook schedule store", zap.String("url", cfg.WebhookURL))
		client := webhookclient.NewClient(cfg.WebhookURL, cfg.RequestTimeout(), logger)
		return client, func() {}, nil
	}
}

// activeWeek picks the window in view: the current calendar week, or
// the week of the earliest loaded assignment when the current week
// holds no camp data
func activeWeek(gw *gateway.Gateway, rule string) (schedule.WeekWindow, error) {
	week, err := schedule.WeekContainingRule(time.Now(), rule)
	if err != nil {
		return schedule.WeekWindow{}, err
	}

	all := append(gw.Assignments(model.ProgramElementary), gw.Assignments(model.ProgramMiddle)...)
	for _, a := range all {
		if week.Contains(a.Date) {
			return week, nil
		}
	}
	if derived := schedule.WeekFromAssignments(all); derived != nil {
		return schedule.WeekOfRule(derived.Dates[0], rule)
	}
	return week, nil
}

func loadFallback(path string) (*model.ScheduleData, error) {
	if path == "" {
		return nil, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback dataset: %w", err)
	}
	data, err := webhookclient.DecodeDataset(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fallback dataset: %w", err)
	}
	return data, nil
}
