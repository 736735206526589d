package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server-side settings
	DatabaseDSN   string        `env:"DATABASE_URI" yaml:"database_dsn"`
	AuthSecret    string        `env:"AUTH_SECRET" yaml:"auth_secret"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" yaml:"token_ttl"`
	RedisURL      string        `env:"REDIS_URL" yaml:"redis_url"`
	PresenceTTL   time.Duration `env:"PRESENCE_TTL" yaml:"presence_ttl"`
	PairCacheTTL  time.Duration `env:"PAIR_CACHE_TTL" yaml:"pair_cache_ttl"`
	PairCacheSize int           `env:"PAIR_CACHE_SIZE" yaml:"pair_cache_size"`

	LogLevel  string `env:"LOG_LEVEL" yaml:"log_level"`
	LogFormat string `env:"LOG_FORMAT" yaml:"log_format"`
	LogFile   string `env:"LOG_FILE" yaml:"log_file"`

	// Shared settings
	BaseURL     string `env:"BASE_URL" yaml:"base_url"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS" yaml:"enable_https"`
	ConfigFile  string `env:"CONFIG_FILE" yaml:"-"`

	// Client-side settings
	ServerURL string `env:"-" yaml:"-"`
	HubURL    string `env:"-" yaml:"-"`
	TokenFile string `env:"TOKEN_FILE" yaml:"token_file"`
	Version   bool   `env:"-" yaml:"-"` // show client version and exit (flag only)
}

// NewConfig builds the configuration: .env, then the YAML file, then environment, then flags.
func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
	}
	_ = env.Parse(cfg)

	// flags override env
	// Server flags
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN (postgres DSN or sqlite file:)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "secret used to sign JWTs")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "JWT lifetime")
	flag.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "redis URL for presence (empty means in-memory)")
	flag.DurationVar(&cfg.PresenceTTL, "presence-ttl", cfg.PresenceTTL, "presence lease TTL")
	flag.DurationVar(&cfg.PairCacheTTL, "pair-cache-ttl", cfg.PairCacheTTL, "online pair cache TTL")
	flag.IntVar(&cfg.PairCacheSize, "pair-cache-size", cfg.PairCacheSize, "online pair cache capacity")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console, json)")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "rotated log file")
	// Shared/client flags
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "address of the KinkLink server (host:port)")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS (client: prefer https/wss schemes for BaseURL)")
	// Client flags
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file (client)")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	applyDefaults(cfg)
	return cfg
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func applyDefaults(cfg *Config) {
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "file:kinklink.db"
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.PresenceTTL <= 0 {
		cfg.PresenceTTL = 60 * time.Second
	}
	if cfg.PairCacheTTL <= 0 {
		cfg.PairCacheTTL = 60 * time.Second
	}
	if cfg.PairCacheSize <= 0 {
		cfg.PairCacheSize = 10000
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}

	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
		cfg.HubURL = "wss://" + cfg.BaseURL + "/hub"
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
		cfg.HubURL = "ws://" + cfg.BaseURL + "/hub"
	}

	if cfg.TokenFile == "" {
		home, _ := os.UserHomeDir()
		cfg.TokenFile = filepath.Join(home, ".kinklink_token")
	}
}
