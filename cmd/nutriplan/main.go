// NutriPlan: terminal client for planning school and community meal
// programs against the NutriPlan backend.
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

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/config"
	"github.com/nutriplan/nutriplan/internal/database"
	"github.com/nutriplan/nutriplan/internal/repository"
	"github.com/nutriplan/nutriplan/internal/services/catalog"
	"github.com/nutriplan/nutriplan/internal/services/exports"
	"github.com/nutriplan/nutriplan/internal/session"
	"github.com/nutriplan/nutriplan/internal/tui"
	"github.com/nutriplan/nutriplan/internal/util"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version and exit")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
		logout      = flag.Bool("logout", false, "Clear the stored session and exit")
		resetStore  = flag.Bool("reset-store", false, "Wipe the local store (session and export history) and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("NutriPlan version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	if err := run(ctx, *configPath, *debugMode, *logout, *resetStore); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, debugMode, logout, resetStore bool) error {
	cfg, cfgPath, err := config.Load(configPath, true)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			logLevel = slog.LevelDebug
		case config.LogLevelWarn:
			logLevel = slog.LevelWarn
		case config.LogLevelError:
			logLevel = slog.LevelError
		}
	}

	// The TUI owns the terminal, so file logging is preferred.
	var logHandler slog.Handler
	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer logFile.Close()

		logHandler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		logHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})
	}

	slog.SetDefault(slog.New(logHandler))

	slog.Info("NutriPlan starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
		"backend", cfg.API.BaseURL,
	)

	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("ensuring data directory: %w", err)
	}

	report, err := database.EnsureHealthy(dbPath)
	if err != nil {
		return fmt.Errorf("checking local store: %w", err)
	}
	switch report.Result {
	case database.RecoveryWALReplayed:
		slog.Warn("local store repaired from WAL", "path", dbPath)
	case database.RecoveryReset:
		slog.Warn("local store was corrupt and has been reset", "moved_to", report.MovedTo)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		slog.Info("closing database")
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("checking database: %w", err)
	}
	slog.Debug("database opened", "path", db.Path())

	migrator, err := database.NewMigrator(db)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	applied, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if len(applied) > 0 {
		slog.Info("applied migrations",
			"count", len(applied),
			"to_version", applied[len(applied)-1].Version,
		)
	}

	if resetStore {
		if err := migrator.Reset(ctx); err != nil {
			return fmt.Errorf("resetting local store: %w", err)
		}
		fmt.Println("Almacenamiento local reiniciado.")
		return nil
	}

	state := repository.NewStateRepository(db.DB)
	sess := session.New(ctx, state, util.SystemClock{})
	if err := sess.Hydrate(ctx); err != nil {
		slog.Warn("discarding stored session", "error", err)
		if err := sess.Teardown(ctx); err != nil {
			return err
		}
	}

	if logout {
		if err := sess.Teardown(ctx); err != nil {
			return err
		}
		fmt.Println("Sesión cerrada.")
		return nil
	}

	reportsDir, err := config.ReportsDir(cfg)
	if err != nil {
		return fmt.Errorf("preparing reports directory: %w", err)
	}

	client := api.New(cfg.API, sess)
	exporter := exports.New(reportsDir, cfg.Program.Name, cfg.Reports.Author, nil,
		repository.NewExportRepository(db.DB))

	tui.Version = Version
	tui.BuildTime = BuildTime

	slog.Info("starting TUI", "program", cfg.Program.Name, "logged_in", sess.LoggedIn())

	err = tui.Run(ctx, tui.Deps{
		Config:   cfg,
		Session:  sess,
		Client:   client,
		Stores:   catalog.NewStores(client),
		Exporter: exporter,
	})
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	slog.Info("NutriPlan shutdown complete")
	return nil
}
