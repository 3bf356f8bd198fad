// Package main is the buyback-and-burn operator tool: withdraw accumulated
// USDC revenue from the contract, then record the resulting $BB burn on its
// counters. The swap itself happens on a DEX outside this tool; run with
// -burn once the swapped tokens are burned. Run at an unpredictable time once
// a day.
package main

import (
	"context"
	"flag"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/billboard-mafia/backend/config"
	"github.com/billboard-mafia/backend/internal/authority/evm"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "print stats and exit without transacting")
	burn := flag.String("burn", "", "record a completed $BB burn of this many tokens instead of withdrawing")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx := context.Background()
	client, err := evm.Dial(ctx, cfg.Chain, logger)
	if err != nil {
		logger.Fatal("authority", zap.Error(err))
	}
	defer client.Close()

	stats, err := client.ReadStats(ctx)
	if err != nil {
		logger.Fatal("read stats", zap.Error(err))
	}
	logger.Info("billboard stats",
		zap.String("total_revenue_units", stats.TotalRevenue.String()),
		zap.String("total_burned_units", stats.TotalBurned.String()),
		zap.Uint64("total_rounds", stats.TotalRounds),
	)

	if *dryRun {
		return
	}

	if *burn != "" {
		tokens, err := decimal.NewFromString(*burn)
		if err != nil || tokens.Sign() <= 0 {
			logger.Fatal("invalid -burn amount", zap.String("value", *burn))
		}
		// $BB carries 18 decimals.
		units := tokens.Mul(decimal.New(1, 18)).Truncate(0).BigInt()
		hash, err := client.RecordBurn(ctx, units)
		if err != nil {
			logger.Fatal("record burn", zap.Error(err))
		}
		logger.Info("burn recorded", zap.String("tokens", tokens.String()), zap.String("tx", hash))
		return
	}

	hash, err := client.WithdrawRevenue(ctx, client.Operator())
	if err != nil {
		logger.Fatal("withdraw revenue", zap.Error(err))
	}
	logger.Info("revenue withdrawn to operator",
		zap.String("operator", client.Operator()),
		zap.String("tx", hash),
	)
	logger.Info("next: swap USDC for $BB on the DEX, burn it, then rerun with -burn")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
