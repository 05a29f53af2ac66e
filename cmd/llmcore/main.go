// Command llmcore runs the multi-provider LLM orchestration core as a
// long-lived process: it loads configuration, wires the provider
// dispatchers, and exposes the orchestrator's health snapshot on an
// interval until the process is signaled to stop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	llmcore "github.com/quantforge/llmcore"
	"github.com/quantforge/llmcore/config"
	"github.com/quantforge/llmcore/internal/telemetry"
	"github.com/quantforge/llmcore/secretstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "llmcore:", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("LLMCORE_CONFIG_PATH")
	var cfg *config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.NewLoader().WithConfigPath(cfgPath).WithEnvPrefix("LLMCORE").Load()
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	telemetryProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	store := secretstore.NewEnvStore()
	core, err := llmcore.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}
	defer core.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("llmcore started")
	reportHealth(ctx, core, logger)
	logger.Info("llmcore stopped")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telemetryProviders.Shutdown(shutdownCtx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}

	return nil
}

// reportHealth logs a per-provider snapshot every 30s until ctx is
// cancelled, giving a human-watchable liveness signal without a full
// metrics/HTTP stack.
func reportHealth(ctx context.Context, core *llmcore.Orchestrator, logger *zap.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for provider, snap := range core.GetSnapshot() {
				logger.Info("provider snapshot",
					zap.String("provider", provider),
					zap.Int("breaker_state", int(snap.BreakerState)),
					zap.Int64("requests", snap.Outcome.Requests),
					zap.Int64("successes", snap.Outcome.Successes),
					zap.Int64("failures", snap.Outcome.Failures),
				)
			}
		}
	}
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
	}

	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      outputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.DisableCaller = !cfg.EnableCaller
	zapCfg.DisableStacktrace = !cfg.EnableStacktrace

	return zapCfg.Build()
}
