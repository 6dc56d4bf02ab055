package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration

	Verification Verification
	ProofService ProofService
	Chain        Chain
	Redis        RedisConfig
}

// Verification tunes the per-user session controllers.
type Verification struct {
	// ConfigBaseURL is where controllers fetch /verification-config/{provider}.
	ConfigBaseURL string
	GraceDelay    time.Duration
	DisplayDelay  time.Duration
	// AwaitTimeout bounds the companion-device step; zero disables it.
	AwaitTimeout time.Duration
	PollInterval time.Duration
	FetchTimeout time.Duration
	FetchRetries uint64
}

// ProofService configures how proof-request configurations are built and signed.
type ProofService struct {
	AppID           string
	AppSecret       string // hex secp256k1 key used to sign request configs
	RequestBaseURL  string
	StatusBaseURL   string
	CallbackBaseURL string
	CallbackSecret  string
	CallbackTTL     time.Duration
	// Providers maps a verification method (coinbase, binance, ...) to the
	// proof service's provider identifier.
	Providers map[string]string
}

// Chain holds the credential contract coordinates.
type Chain struct {
	RPCURL       string
	ChainID      int64
	NFTAddress   string
	VaultAddress string
	MinterKey    string
}

// RedisConfig configures the optional Redis ownership cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	OwnershipTTL time.Duration
}

// Defaults mirror the timings of the dashboard overlay.
var (
	DefaultGraceDelay   = 1 * time.Second
	DefaultDisplayDelay = 2 * time.Second
	DefaultAwaitTimeout = 5 * time.Minute
	DefaultPollInterval = 3 * time.Second
	DefaultFetchTimeout = 10 * time.Second
	DefaultCallbackTTL  = 15 * time.Minute
	DefaultOwnershipTTL = 24 * time.Hour
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := envOr("CREDMINT_ADDR", ":8080")
	return Server{
		Addr:            addr,
		Environment:     envOr("ENVIRONMENT", "development"),
		LogLevel:        envOr("LOG_LEVEL", "info"),
		ShutdownTimeout: durationOr("SHUTDOWN_TIMEOUT", 10*time.Second),
		Verification: Verification{
			ConfigBaseURL: envOr("VERIFICATION_CONFIG_URL", "http://localhost"+portOf(addr)),
			GraceDelay:    durationOr("VERIFICATION_GRACE_DELAY", DefaultGraceDelay),
			DisplayDelay:  durationOr("VERIFICATION_DISPLAY_DELAY", DefaultDisplayDelay),
			AwaitTimeout:  durationOr("VERIFICATION_AWAIT_TIMEOUT", DefaultAwaitTimeout),
			PollInterval:  durationOr("VERIFICATION_POLL_INTERVAL", DefaultPollInterval),
			FetchTimeout:  durationOr("VERIFICATION_FETCH_TIMEOUT", DefaultFetchTimeout),
			FetchRetries:  uint64(intOr("VERIFICATION_FETCH_RETRIES", 2)),
		},
		ProofService: ProofService{
			AppID:           os.Getenv("PROOF_APP_ID"),
			AppSecret:       os.Getenv("PROOF_APP_SECRET"),
			RequestBaseURL:  envOr("PROOF_REQUEST_BASE_URL", "https://share.reclaimprotocol.org/verifier"),
			StatusBaseURL:   os.Getenv("PROOF_STATUS_BASE_URL"),
			CallbackBaseURL: envOr("PROOF_CALLBACK_BASE_URL", "http://localhost"+portOf(addr)),
			// Use a default for development - should be overridden in production
			CallbackSecret: envOr("PROOF_CALLBACK_SECRET", "dev-callback-secret-change-in-production"),
			CallbackTTL:    durationOr("PROOF_CALLBACK_TTL", DefaultCallbackTTL),
			Providers:      ParseProviders(os.Getenv("PROOF_PROVIDER_IDS")),
		},
		Chain: Chain{
			RPCURL:       os.Getenv("CHAIN_RPC_URL"),
			ChainID:      int64(intOr("CHAIN_ID", 0)),
			NFTAddress:   envOr("NFT_CONTRACT_ADDRESS", "0x0000000000000000000000000000000000000000"),
			VaultAddress: envOr("VAULT_CONTRACT_ADDRESS", "0x0000000000000000000000000000000000000000"),
			MinterKey:    os.Getenv("MINTER_PRIVATE_KEY"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
			OwnershipTTL: durationOr("REDIS_OWNERSHIP_TTL", DefaultOwnershipTTL),
		},
	}
}

// ParseProviders reads "coinbase=abc,binance=def" into a map. Malformed pairs
// are skipped.
func ParseProviders(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, id, ok := strings.Cut(strings.TrimSpace(pair), "=")
		name, id = strings.TrimSpace(name), strings.TrimSpace(id)
		if !ok || name == "" || id == "" {
			continue
		}
		out[strings.ToLower(name)] = id
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func portOf(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":8080"
}
