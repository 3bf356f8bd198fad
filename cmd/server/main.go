// Package main runs the billboard auction API: bid gateway, status reader,
// round finalizer, refund query, media upload and the live status stream.
package main

import (
	"context"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/billboard-mafia/backend/config"
	"github.com/billboard-mafia/backend/internal/audit"
	"github.com/billboard-mafia/backend/internal/authority"
	"github.com/billboard-mafia/backend/internal/authority/evm"
	"github.com/billboard-mafia/backend/internal/authority/memory"
	"github.com/billboard-mafia/backend/internal/billboard"
	"github.com/billboard-mafia/backend/internal/bids"
	"github.com/billboard-mafia/backend/internal/finalize"
	"github.com/billboard-mafia/backend/internal/middleware"
	"github.com/billboard-mafia/backend/internal/realtime"
	"github.com/billboard-mafia/backend/internal/refunds"
	"github.com/billboard-mafia/backend/internal/status"
	"github.com/billboard-mafia/backend/internal/uploads"
	"github.com/billboard-mafia/backend/pkg/redis"
	"github.com/billboard-mafia/backend/pkg/response"
	"github.com/billboard-mafia/backend/pkg/storage"
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

	ctx := context.Background()

	auth := newAuthority(ctx, cfg, logger)
	pinner := newPinner(ctx, cfg, logger)

	var auditRec *audit.Recorder
	if cfg.Database.URL != "" {
		auditRec, err = audit.Open(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Warn("audit disabled", zap.Error(err))
		}
	}
	defer auditRec.Close()

	var cache status.SnapshotCache
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("snapshot cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			cache = rdb
		}
	}

	reader := status.NewReader(auth, cache, time.Duration(cfg.Redis.CacheTTL)*time.Second, logger)
	minimums := map[billboard.Slot]decimal.Decimal{
		billboard.SlotMain:      billboard.USD(cfg.Auction.MinBidMain),
		billboard.SlotSecondary: billboard.USD(cfg.Auction.MinBidSecondary),
	}

	bidHandler := bids.NewHandler(auth, reader, minimums, auditRec, logger)
	finalizeHandler := finalize.NewHandler(finalize.NewRunner(auth, auditRec, logger), logger)
	refundHandler := refunds.NewHandler(auth, cfg.Chain.BillboardAddress, logger)
	uploadHandler := uploads.NewHandler(pinner, cfg.Storage.MaxUploadBytes, logger)

	hub := realtime.NewHub(logger)
	broadcaster := realtime.NewBroadcaster(hub, reader,
		time.Duration(cfg.Realtime.RefreshSeconds)*time.Second, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	router.POST("/bid", bidHandler.PlaceBid)
	router.GET("/bid", bidHandler.GetBillboard)
	router.POST("/finalize", finalizeHandler.Finalize)
	router.GET("/finalize", finalizeHandler.CheckFinalization)
	router.GET("/refund", refundHandler.GetRefund)
	router.POST("/refund", refundHandler.ClaimRefund)
	router.POST("/upload", uploadHandler.Upload)
	router.GET("/ws", realtime.ServeWS(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go broadcaster.Run(bgCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port),
			zap.String("authority", cfg.Auction.Mode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	bgCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newAuthority selects the contract adapter or the in-process state machine.
func newAuthority(ctx context.Context, cfg *config.Config, logger *zap.Logger) authority.Authority {
	if cfg.Auction.Mode == "memory" {
		logger.Warn("using in-memory authority; auction state is not persistent")
		return memory.New(memory.Config{
			Schedule: billboard.Schedule{
				RoundDuration: cfg.Auction.RoundDurationTime(),
				BiddingWindow: cfg.Auction.BiddingWindowTime(),
				Windowed:      cfg.Auction.Windowed,
			},
			Rules: billboard.Rules{
				Windowed:            cfg.Auction.Windowed,
				RequireRefunds:      cfg.Auction.RequireRefunds,
				MinIncrementPercent: cfg.Auction.MinIncrementPercent,
				AcceptTies:          cfg.Auction.AcceptTies,
			},
			MinimumBids: map[billboard.Slot]*big.Int{
				billboard.SlotMain:      billboard.ToBaseUnits(billboard.USD(cfg.Auction.MinBidMain)),
				billboard.SlotSecondary: billboard.ToBaseUnits(billboard.USD(cfg.Auction.MinBidSecondary)),
			},
		})
	}
	client, err := evm.Dial(ctx, cfg.Chain, logger)
	if err != nil {
		logger.Fatal("authority", zap.Error(err))
	}
	return client
}

// newPinner selects the storage backend; nil when unconfigured.
func newPinner(ctx context.Context, cfg *config.Config, logger *zap.Logger) storage.Pinner {
	switch cfg.Storage.Provider {
	case "s3":
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 storage disabled", zap.Error(err))
			return nil
		}
		return s3
	case "pinata":
		if cfg.Storage.PinataJWT == "" {
			return nil
		}
		return storage.NewPinata(cfg.Storage.PinataJWT, cfg.Storage.PinataEndpoint,
			cfg.Storage.GatewayBaseURL, logger)
	}
	return nil
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
