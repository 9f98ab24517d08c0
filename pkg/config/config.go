package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Network defines the target Solana cluster.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkTestnet Network = "testnet"
	NetworkDevnet  Network = "devnet"
	NetworkCustom  Network = "custom"
)

// DefaultRPCURL returns the standard RPC endpoint for a known network.
func DefaultRPCURL(network Network) string {
	switch network {
	case NetworkMainnet:
		return "https://api.mainnet-beta.solana.com"
	case NetworkTestnet:
		return "https://api.testnet.solana.com"
	case NetworkDevnet:
		return "https://api.devnet.solana.com"
	default:
		return ""
	}
}

// RetryConfig controls RPC and API retry behavior.
type RetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	Jitter         bool          `yaml:"jitter"`
}

// RateLimitConfig throttles outbound RPC calls.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// RPCConfig aggregates runtime settings for RPC usage.
type RPCConfig struct {
	Network    Network         `yaml:"network"`
	RPCURL     string          `yaml:"url"`
	Commitment string          `yaml:"commitment"`
	Timeout    time.Duration   `yaml:"timeout"`
	Retry      RetryConfig     `yaml:"retry"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
	Logger     zerolog.Logger  `yaml:"-"`
}

// DefaultRPCConfig yields production-safe defaults (mainnet, finalized commitment).
func DefaultRPCConfig() RPCConfig {
	return RPCConfig{
		Network:    NetworkMainnet,
		RPCURL:     DefaultRPCURL(NetworkMainnet),
		Commitment: "finalized",
		Timeout:    20 * time.Second,
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: 150 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Jitter:         true,
		},
		RateLimit: RateLimitConfig{
			RPS:   8,
			Burst: 16,
		},
		Logger: zerolog.New(io.Discard),
	}
}

// ResolveRPCURL returns RPCURL if set, otherwise falls back to network defaults.
func (c RPCConfig) ResolveRPCURL() string {
	if c.RPCURL != "" {
		return c.RPCURL
	}
	return DefaultRPCURL(c.Network)
}

// RelayMode selects how signed batches reach the chain.
type RelayMode string

const (
	RelayBackend RelayMode = "backend"
	RelayRPC     RelayMode = "rpc"
	RelayJito    RelayMode = "jito"
)

// ServerConfig describes the launchpad backend and the services around it.
type ServerConfig struct {
	URL           string        `yaml:"url"`
	WSHost        string        `yaml:"ws_host"`
	TokenFile     string        `yaml:"token_file"`
	Timeout       time.Duration `yaml:"timeout"`
	EventTimeout  time.Duration `yaml:"event_timeout"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	Retry         RetryConfig   `yaml:"retry"`
	Relay         RelayMode     `yaml:"relay"`
	TipSOL        string        `yaml:"tip_sol"`
	JitoEndpoints []string      `yaml:"jito_endpoints"`
	PinataJWT     string        `yaml:"pinata_jwt"`
	PinataURL     string        `yaml:"pinata_url"`
	MetricsAddr   string        `yaml:"metrics_addr"`
}

// DefaultServerConfig targets a local backend with the backend relay.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		URL:          "http://localhost:3000",
		TokenFile:    defaultTokenFile(),
		Timeout:      30 * time.Second,
		EventTimeout: 3 * time.Minute,
		PollInterval: time.Second,
		Retry: RetryConfig{
			Enabled:        true,
			MaxAttempts:    3,
			InitialBackoff: 250 * time.Millisecond,
			MaxBackoff:     3 * time.Second,
		},
		Relay:     RelayBackend,
		TipSOL:    "0.01",
		PinataURL: "https://api.pinata.cloud",
	}
}

// ResolveWSHost returns WSHost, defaulting to the ws(s) form of URL.
func (c ServerConfig) ResolveWSHost() (string, error) {
	raw := c.WSHost
	if raw == "" {
		raw = c.URL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse ws host: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported ws scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String(), nil
}

// Config is the full client configuration.
type Config struct {
	RPC      RPCConfig    `yaml:"rpc"`
	Server   ServerConfig `yaml:"server"`
	Devnet   bool         `yaml:"devnet"`
	OwnerKey string       `yaml:"owner_key"`
	LogLevel string       `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RPC:      DefaultRPCConfig(),
		Server:   DefaultServerConfig(),
		LogLevel: "info",
	}
}

// Load layers defaults, an optional YAML file and the environment (after
// loading .env when present).
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil && err != io.EOF {
			return cfg, fmt.Errorf("decode yaml: %w", err)
		}
	}
	_ = godotenv.Load()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if cfg.Devnet && cfg.RPC.Network == NetworkMainnet {
		cfg.RPC.Network = NetworkDevnet
		if cfg.RPC.RPCURL == DefaultRPCURL(NetworkMainnet) {
			cfg.RPC.RPCURL = DefaultRPCURL(NetworkDevnet)
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("LAUNCHPAD_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := getenv("LAUNCHPAD_WS_HOST"); v != "" {
		c.Server.WSHost = v
	}
	if v := getenv("LAUNCHPAD_RPC_URL"); v != "" {
		c.RPC.RPCURL = v
		c.RPC.Network = NetworkCustom
	}
	if v := getenv("LAUNCHPAD_PINATA_JWT"); v != "" {
		c.Server.PinataJWT = v
	}
	if v := getenv("LAUNCHPAD_OWNER_KEY"); v != "" {
		c.OwnerKey = v
	}
	if v := getenv("LAUNCHPAD_RELAY"); v != "" {
		c.Server.Relay = RelayMode(v)
	}
	if v := getenv("LAUNCHPAD_DEVNET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LAUNCHPAD_DEVNET: %w", err)
		}
		c.Devnet = b
	}
	return nil
}

// Validate checks the fields every command depends on.
func (c Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server url is required")
	}
	switch c.Server.Relay {
	case RelayBackend, RelayRPC, RelayJito:
	default:
		return fmt.Errorf("unknown relay mode %q", c.Server.Relay)
	}
	return nil
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".launchpad-token"
	}
	return filepath.Join(dir, "launchpad", "access-token")
}
