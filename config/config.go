package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Chain     ChainConfig
	Auction   AuctionConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Realtime  RealtimeConfig
	Finalizer FinalizerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// ChainConfig holds the RPC endpoint, custodial signer and contract addresses.
type ChainConfig struct {
	RPCURL           string
	ChainID          int64
	SignerPrivateKey string // hex; the server wallet that submits on behalf of bidders
	BillboardAddress string
	TokenAddress     string // $BB buyback token, used by cmd/buyback
	CallTimeout      int    // seconds, bound on every authority call
}

// AuctionConfig mirrors the contract's timing and pricing constants plus the
// bidding-rule variant knobs. Two known deployments exist: scheduled rounds
// with full refunds to losers, and an always-open billboard with 10%-increment
// outbidding and no refunds.
type AuctionConfig struct {
	Mode                string // "evm" or "memory" (dev/testing authority)
	RoundDuration       int    // seconds, default 12h
	BiddingWindow       int    // seconds, default 30m
	MinBidMain          int64  // whole USD, slot 0
	MinBidSecondary     int64  // whole USD, slot 1
	Windowed            bool   // false = always-open variant
	RequireRefunds      bool   // credit superseded bidders
	MinIncrementPercent int64  // 0 = any higher bid wins
	AcceptTies          bool   // whether a bid equaling the highest is accepted
}

// StorageConfig holds the content-addressed storage provider settings.
type StorageConfig struct {
	Provider        string // "pinata" or "s3"
	PinataJWT       string
	PinataEndpoint  string
	GatewayBaseURL  string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	MaxUploadBytes  int64
}

// RedisConfig holds Redis connection settings for the status snapshot cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL int // seconds; 0 disables caching
}

// DatabaseConfig holds the optional PostgreSQL audit-trail connection.
// Empty URL disables auditing; the contract stays the only system of record.
type DatabaseConfig struct {
	URL string
}

// RealtimeConfig holds WebSocket snapshot push settings.
type RealtimeConfig struct {
	RefreshSeconds int
}

// FinalizerConfig holds cmd/finalizer scheduling settings.
type FinalizerConfig struct {
	IntervalSeconds int
}

// RoundDurationTime returns the round length as a time.Duration.
func (c AuctionConfig) RoundDurationTime() time.Duration {
	return time.Duration(c.RoundDuration) * time.Second
}

// BiddingWindowTime returns the bidding window as a time.Duration.
func (c AuctionConfig) BiddingWindowTime() time.Duration {
	return time.Duration(c.BiddingWindow) * time.Second
}

// CallTimeoutTime returns the per-call authority timeout as a time.Duration.
func (c ChainConfig) CallTimeoutTime() time.Duration {
	return time.Duration(c.CallTimeout) * time.Second
}

// Validate reports configuration errors that would otherwise only surface
// mid-request.
func (c *Config) Validate() error {
	if c.Auction.Mode == "evm" {
		if c.Chain.SignerPrivateKey == "" {
			return fmt.Errorf("SERVER_WALLET_PRIVATE_KEY not configured")
		}
		if c.Chain.BillboardAddress == "" {
			return fmt.Errorf("BILLBOARD_ADDRESS not configured")
		}
	}
	if c.Storage.Provider == "pinata" && c.Storage.PinataJWT == "" {
		return fmt.Errorf("PINATA_JWT not configured")
	}
	if c.Storage.Provider == "s3" && c.Storage.Bucket == "" {
		return fmt.Errorf("AWS_S3_ADS_BUCKET not configured")
	}
	return nil
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Chain: ChainConfig{
			RPCURL:           getEnv("RPC_URL", "https://testnet-rpc.monad.xyz"),
			ChainID:          getEnvInt64("CHAIN_ID", 10143),
			SignerPrivateKey: getEnv("SERVER_WALLET_PRIVATE_KEY", ""),
			BillboardAddress: getEnv("BILLBOARD_ADDRESS", ""),
			TokenAddress:     getEnv("BB_TOKEN_ADDRESS", ""),
			CallTimeout:      getEnvInt("CHAIN_CALL_TIMEOUT_SEC", 30),
		},
		Auction: AuctionConfig{
			Mode:                getEnv("AUTHORITY_MODE", "evm"),
			RoundDuration:       getEnvInt("ROUND_DURATION_SEC", 12*60*60),
			BiddingWindow:       getEnvInt("BIDDING_WINDOW_SEC", 30*60),
			MinBidMain:          getEnvInt64("MIN_BID_MAIN_USD", 10),
			MinBidSecondary:     getEnvInt64("MIN_BID_SECONDARY_USD", 1),
			Windowed:            getEnvBool("AUCTION_WINDOWED", true),
			RequireRefunds:      getEnvBool("AUCTION_REFUNDS", true),
			MinIncrementPercent: getEnvInt64("AUCTION_MIN_INCREMENT_PCT", 0),
			AcceptTies:          getEnvBool("AUCTION_ACCEPT_TIES", false),
		},
		Storage: StorageConfig{
			Provider:        getEnv("STORAGE_PROVIDER", "pinata"),
			PinataJWT:       getEnv("PINATA_JWT", ""),
			PinataEndpoint:  getEnv("PINATA_ENDPOINT", "https://api.pinata.cloud/pinning/pinFileToIPFS"),
			GatewayBaseURL:  getEnv("IPFS_GATEWAY", "https://gateway.pinata.cloud/ipfs"),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("AWS_S3_ADS_BUCKET", ""),
			MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 5*1024*1024),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: getEnvInt("STATUS_CACHE_TTL_SEC", 5),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Realtime: RealtimeConfig{
			RefreshSeconds: getEnvInt("REALTIME_REFRESH_SEC", 10),
		},
		Finalizer: FinalizerConfig{
			IntervalSeconds: getEnvInt("FINALIZER_INTERVAL_SEC", 15*60),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}
