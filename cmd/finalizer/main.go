// Package main runs the round finalization scheduler. It replaces the cron
// job that hit POST /finalize in earlier deployments: every interval it
// settles any due round for every slot. Finalization is idempotent on the
// contract, so overlapping schedulers are harmless.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/billboard-mafia/backend/config"
	"github.com/billboard-mafia/backend/internal/audit"
	"github.com/billboard-mafia/backend/internal/authority/evm"
	"github.com/billboard-mafia/backend/internal/billboard"
	"github.com/billboard-mafia/backend/internal/finalize"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := evm.Dial(ctx, cfg.Chain, logger)
	if err != nil {
		logger.Fatal("authority", zap.Error(err))
	}
	defer client.Close()

	var auditRec *audit.Recorder
	if cfg.Database.URL != "" {
		auditRec, err = audit.Open(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Warn("audit disabled", zap.Error(err))
		}
	}
	defer auditRec.Close()

	runner := finalize.NewRunner(client, auditRec, logger)
	interval := time.Duration(cfg.Finalizer.IntervalSeconds) * time.Second
	logger.Info("finalizer started", zap.Duration("interval", interval))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce(ctx, runner, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info("finalizer stopped")
			return
		case <-ticker.C:
			runOnce(ctx, runner, logger)
		}
	}
}

func runOnce(ctx context.Context, runner *finalize.Runner, logger *zap.Logger) {
	currentRoundID, slots, err := runner.Check(ctx)
	if err != nil {
		logger.Error("finalization check", zap.Error(err))
		return
	}
	due := make([]billboard.Slot, 0, len(billboard.AllSlots()))
	for _, slot := range billboard.AllSlots() {
		if st, ok := slots[slot.Name()]; ok && st.NeedsFinalization {
			due = append(due, slot)
		}
	}
	if len(due) == 0 {
		logger.Debug("no rounds due", zap.Uint64("current_round", currentRoundID))
		return
	}
	for _, r := range runner.Run(ctx, due) {
		if !r.Success {
			logger.Warn("slot finalization failed", zap.Int("slot", r.Slot), zap.String("error", r.Error))
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
