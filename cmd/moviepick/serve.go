package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/amaumene/moviepick/internal/api"
	"github.com/amaumene/moviepick/internal/config"
	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/amaumene/moviepick/internal/ritual"
	"github.com/amaumene/moviepick/internal/scheduler"
	"github.com/amaumene/moviepick/internal/services/tmdb"
	"github.com/amaumene/moviepick/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting Moviepick")
	logger.WithFields(logrus.Fields{
		"config_dir": filepath.Dir(cfg.DatabaseFile),
		"roster":     cfg.Roster,
	}).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize services. Search is optional.
	var tmdbClient *tmdb.Client
	if err := cfg.RequireSearch(); err != nil {
		logger.WithError(err).Warn("Metadata search disabled")
	} else {
		tmdbClient, err = tmdb.NewClient(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize TMDB client: %w", err)
		}
		logger.Info("TMDB client initialized")
	}

	// 5. Initialize controllers
	backlogCtrl := controllers.NewBacklogController(db, cfg.Roster, logger)
	ritualCtrl := controllers.NewRitualController(db, backlogCtrl, ritual.NewManager(cfg.Roster), logger)
	searchCtrl := controllers.NewSearchController(tmdbClient, backlogCtrl, logger)
	logger.Info("Controllers initialized")

	// 6. Initialize scheduler
	sched := scheduler.NewScheduler(backlogCtrl, ritualCtrl, cfg.RitualIdleTimeout, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 7. Initialize HTTP server
	server := api.NewServer(cfg, backlogCtrl, ritualCtrl, searchCtrl, logger)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 8. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Moviepick is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	case <-parent.Done():
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Moviepick stopped")
	return nil
}
