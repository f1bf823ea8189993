package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/config"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core/genesis"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/crypto"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/indexer"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/observability/logging"
	telemetry "github.com/soomtochukwu/Veritasor-Contracts-sub001/observability/otel"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/rpc"
	"github.com/soomtochukwu/Veritasor-Contracts-sub001/storage"
)

const serviceName = "veritasord"

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	scheduleFlag := flag.String("schedule", "", "Path to the economics schedule YAML (overrides config SchedulePath)")
	allowMigrateFlag := flag.Bool("allow-migrate", false, "Allow starting with an older state schema (manual migrations only)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *scheduleFlag != "" {
		cfg.SchedulePath = *scheduleFlag
	}
	if *allowMigrateFlag {
		cfg.AllowStateMigrate = true
	}

	logger, logCloser := logging.Setup(serviceName, cfg.Environment, logging.Options{
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Level:      parseLevel(cfg.Logging.Level),
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("veritasord exited", slog.String("error", err.Error()))
		_ = logCloser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	hostname, _ := os.Hostname()
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		InstanceID:     hostname,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Headers:        cfg.Telemetry.Headers,
		Attributes: map[string]string{
			"storage": cfg.StorageBackend,
			"indexer": cfg.Indexer.Driver,
		},
		Metrics: cfg.Telemetry.Metrics,
		Traces:  cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	db, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	node, err := core.NewNode(db, core.Options{
		Logger:            logging.Component(logger, "core"),
		StreamHistory:     cfg.EventHistory,
		AllowStateMigrate: cfg.AllowStateMigrate,
	})
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}

	var index *indexer.Store
	if driver := strings.TrimSpace(cfg.Indexer.Driver); driver != "" {
		gdb, err := indexer.Open(driver, cfg.Indexer.DSN)
		if err != nil {
			return fmt.Errorf("open indexer: %w", err)
		}
		index, err = indexer.New(gdb, logger)
		if err != nil {
			return err
		}
		defer index.Close()
		node.AddSink(index)
	}

	spec, err := loadGenesis(cfg)
	if err != nil {
		return err
	}
	if spec != nil {
		applied, err := node.ApplyGenesis(spec)
		if err != nil {
			return fmt.Errorf("apply genesis: %w", err)
		}
		if !applied {
			logger.Info("state already initialised; genesis skipped")
		}
	}

	server := rpc.NewServer(node, rpc.Config{
		ListenAddress: cfg.ListenAddress,
		Auth: rpc.AuthConfig{
			HMACSecret: cfg.HMACSecret(),
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
		},
		RateLimit: rpc.RateLimit{
			RequestsPerMinute: float64(cfg.HTTPRateLimit.RequestsPerMinute),
			Burst:             cfg.HTTPRateLimit.Burst,
		},
		Logger: logger,
		Index:  index,
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown requested")
	}

	timeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	return errors.Join(errs...)
}

func openStorage(cfg *config.Config) (storage.Database, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "state.db"), nil)
	default:
		return storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	}
}

// loadGenesis prefers the schedule file. Without one, AdminAddress alone
// bootstraps access control; with neither the node starts unconfigured.
func loadGenesis(cfg *config.Config) (*genesis.Spec, error) {
	if path := strings.TrimSpace(cfg.SchedulePath); path != "" {
		schedule, err := config.LoadSchedule(path)
		if err != nil {
			return nil, fmt.Errorf("load schedule: %w", err)
		}
		return schedule.Genesis()
	}
	if admin := strings.TrimSpace(cfg.AdminAddress); admin != "" {
		raw, err := crypto.ParseAccount(admin)
		if err != nil {
			return nil, fmt.Errorf("invalid AdminAddress: %w", err)
		}
		return &genesis.Spec{Admin: raw}, nil
	}
	return nil, nil
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
