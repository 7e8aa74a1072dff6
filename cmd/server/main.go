package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iqnite/eggsplode/internal/config"
	"github.com/iqnite/eggsplode/internal/game"
	"github.com/iqnite/eggsplode/internal/repository"
	"github.com/iqnite/eggsplode/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting eggsplode server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Result persistence is optional; without a database URL finished games
	// are only logged.
	var sink game.ResultSink
	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		results := repository.NewResultRepository(db, logger)
		if err := results.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to prepare result schema", zap.Error(err))
		}
		sink = results
		logger.Info("result persistence enabled")
	} else {
		logger.Warn("no database configured; game results will not be persisted")
	}

	manager := game.NewManager(*cfg, sink, logger)
	logger.Info("session manager initialized",
		zap.Int("max_sessions", cfg.Server.MaxSessions),
		zap.Duration("session_ttl", cfg.Server.SessionTTL),
	)

	cleanupStop := make(chan struct{})
	go manager.RunCleanup(time.Minute, cleanupStop)

	gateway := server.NewServer(cfg.Server.WebSocket.Address, manager, logger)
	go func() {
		if wsErr := gateway.Run(); wsErr != nil {
			logger.Error("websocket gateway error", zap.Error(wsErr))
		}
	}()

	logger.Info("eggsplode server initialized",
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.Duration("turn_timeout", cfg.Game.TurnTimeout),
		zap.Duration("interrupt_timeout", cfg.Game.InterruptTimeout),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()
	close(cleanupStop)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logger.Warn("gateway shutdown incomplete", zap.Error(err))
	}
	manager.CloseAll()

	logger.Info("eggsplode server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
