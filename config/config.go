// Package config reads the service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

type Config struct {
	EthereumRPCURL string
	ZkSyncRPCURL   string
	DatabaseURI    string
	DatabaseName   string
	APIPort        string
	LogLevel       slog.Level

	// Contracts the L1 client checks for code at startup. Optional.
	MainContractAddress  common.Address
	L1Erc20BridgeAddress common.Address

	L1StartBlock        uint64
	L2StartBlock        uint64
	MinBatchSize        uint64
	MaxBatchSize        uint64
	FetchInterval       time.Duration
	StatusCheckInterval time.Duration

	RPCTimeout   time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Load reads the configuration. Values from files do not override variables
// already set, and missing files are ignored.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	p := &parser{}
	cfg := &Config{
		EthereumRPCURL: p.required("ETHEREUM_RPC_URL"),
		ZkSyncRPCURL:   p.required("ZKSYNC_RPC_URL"),
		DatabaseURI:    p.required("DATABASE_URI"),
		DatabaseName:   p.str("DATABASE_NAME", "zk-bridge"),
		APIPort:        p.str("API_PORT", "8080"),
		LogLevel:       p.level("LOG_LEVEL", slog.LevelInfo),

		MainContractAddress:  p.address("MAIN_CONTRACT_ADDRESS"),
		L1Erc20BridgeAddress: p.address("L1_ERC20_BRIDGE_ADDRESS"),

		L1StartBlock:        p.uint("ETH_DEFAULT_START_BLOCK", 0),
		L2StartBlock:        p.uint("ZKSYNC_DEFAULT_START_BLOCK", 0),
		MinBatchSize:        p.uint("MIN_BATCH_SIZE", 10),
		MaxBatchSize:        p.uint("MAX_BATCH_SIZE", 2000),
		FetchInterval:       p.duration("FETCH_INTERVAL", 10*time.Second),
		StatusCheckInterval: p.duration("STATUS_CHECK_INTERVAL", 30*time.Second),

		RPCTimeout:   p.duration("RPC_TIMEOUT", 10*time.Second),
		PollInterval: p.duration("POLL_INTERVAL", 500*time.Millisecond),
		PollTimeout:  p.duration("POLL_TIMEOUT", 2*time.Minute),
	}
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(p.errs, "; "))
	}
	if cfg.MaxBatchSize == 0 {
		return nil, errors.New("invalid configuration: MAX_BATCH_SIZE must be positive")
	}

	return cfg, nil
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	errs []string
}

func (p *parser) fail(key string, format string, args ...interface{}) {
	p.errs = append(p.errs, key+": "+fmt.Sprintf(format, args...))
}

func (p *parser) required(key string) string {
	v := os.Getenv(key)
	if v == "" {
		p.fail(key, "not set")
	}
	return v
}

func (p *parser) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) uint(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		p.fail(key, "not an unsigned integer: %q", v)
		return def
	}
	return n
}

// duration accepts Go durations ("30s") or a bare number of seconds.
func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if secs, err := strconv.ParseUint(v, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.fail(key, "not a positive duration: %q", v)
		return def
	}
	return d
}

func (p *parser) address(key string) common.Address {
	v := os.Getenv(key)
	if v == "" {
		return common.Address{}
	}
	if !common.IsHexAddress(v) {
		p.fail(key, "not an address: %q", v)
		return common.Address{}
	}
	return common.HexToAddress(v)
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, "unknown log level %q", v)
		return def
	}
	return level
}
