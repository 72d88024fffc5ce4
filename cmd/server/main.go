package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hansy/snapstack-sub000/internal/config"
	"github.com/hansy/snapstack-sub000/internal/repository"
	"github.com/hansy/snapstack-sub000/internal/room"
	"github.com/hansy/snapstack-sub000/internal/server"
	"github.com/hansy/snapstack-sub000/internal/snapshot"
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

	logger.Info("starting snapstack server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// An empty database URL runs everything in memory; rooms then live only
	// as long as the process.
	var store snapshot.Store
	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		pgStore, err := snapshot.NewPGStore(ctx, db, logger)
		if err != nil {
			logger.Fatal("failed to initialize snapshot store", zap.Error(err))
		}
		store = pgStore
	} else {
		logger.Warn("no database configured, using in-memory snapshot store")
		store = snapshot.NewMemStore()
	}
	defer store.Close()

	roomMgr := room.NewManager(cfg, store, logger)
	logger.Info("room manager initialized",
		zap.Int("max_players", cfg.Room.MaxPlayers),
	)

	srv := server.New(cfg, roomMgr, logger)

	go func() {
		if serveErr := srv.ListenAndServe(); serveErr != nil {
			logger.Error("websocket server error", zap.Error(serveErr))
		}
	}()

	logger.Info("snapstack server initialized",
		zap.String("version", version),
		zap.String("address", cfg.Server.Address),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	// Flush every live room before the store closes.
	roomMgr.CloseAll()

	logger.Info("snapstack server stopped")
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
