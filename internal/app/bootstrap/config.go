package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is the resolved runtime configuration.
// Resolution order is defaults, then the YAML file, then .env, then the process env.
type Config struct {
	ServiceID string `env:"SERVICE_ID"`
	Env       string `env:"APP_ENV"`
	LogLevel  string `env:"LOG_LEVEL"`

	HTTPPort int `env:"PORT"`
	GRPCPort int `env:"GRPC_PORT"`

	Storage     string `env:"STORAGE_DRIVER"`
	DatabaseURL string `env:"DB_URL"`
	MaxDBConns  int32  `env:"DB_MAX_CONNS"`
	RedisURL    string `env:"REDIS_URL"`

	SessionSecret string   `env:"JWT_SECRET"`
	SessionTTL    Lifetime `env:"JWT_SECRET_EXPIRATION"`
	ResetSecret   string   `env:"JWT_RESET_SECRET"`
	ResetTTL      Lifetime `env:"JWT_RESET_SECRET_EXPIRATION"`
	BcryptCost    int      `env:"BCRYPT_ROUNDS"`

	AppURL    string `env:"APP_URL"`
	ClientURL string `env:"CLIENT_URL"`

	FailedLoginThreshold int           `env:"FAILED_LOGIN_THRESHOLD"`
	LockoutDuration      time.Duration `env:"LOCKOUT_DURATION"`
	ResetRequestLimit    int           `env:"RESET_REQUEST_LIMIT"`
	ResetRequestWindow   time.Duration `env:"RESET_REQUEST_WINDOW"`

	WSHandshakeTimeout time.Duration `env:"WS_HANDSHAKE_TIMEOUT"`

	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopicPrefix string   `env:"KAFKA_TOPIC_PREFIX"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE"`
	OutboxClaimTTL     time.Duration `env:"OUTBOX_CLAIM_TTL"`
	OutboxMaxRetries   int           `env:"OUTBOX_MAX_RETRIES"`
}

// configFile mirrors configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		Env      string `yaml:"env"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
		Storage  string `yaml:"storage"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"dependencies"`
	Auth struct {
		SessionTTL           string `yaml:"session_ttl"`
		ResetTTL             string `yaml:"reset_ttl"`
		BcryptCost           int    `yaml:"bcrypt_cost"`
		FailedLoginThreshold int    `yaml:"failed_login_threshold"`
		LockoutDuration      string `yaml:"lockout_duration"`
	} `yaml:"auth"`
	App struct {
		URL       string `yaml:"url"`
		ClientURL string `yaml:"client_url"`
	} `yaml:"app"`
}

func defaultConfig() Config {
	return Config{
		ServiceID:            "content-management-api",
		Env:                  "development",
		LogLevel:             "info",
		HTTPPort:             8080,
		GRPCPort:             9090,
		Storage:              StoragePostgres,
		MaxDBConns:           20,
		SessionTTL:           Lifetime(time.Hour),
		ResetTTL:             Lifetime(10 * time.Minute),
		BcryptCost:           10,
		AppURL:               "http://localhost:3000",
		FailedLoginThreshold: 5,
		LockoutDuration:      15 * time.Minute,
		ResetRequestLimit:    5,
		ResetRequestWindow:   time.Hour,
		WSHandshakeTimeout:   10 * time.Second,
		KafkaTopicPrefix:     "cms",
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		OutboxClaimTTL:       30 * time.Second,
		OutboxMaxRetries:     5,
	}
}

// LoadConfig resolves configuration from path, a local .env file and the
// environment, then validates it.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.Env != "" {
		cfg.Env = f.Service.Env
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Service.Storage != "" {
		cfg.Storage = f.Service.Storage
	}
	if f.Service.LogLevel != "" {
		cfg.LogLevel = f.Service.LogLevel
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Auth.BcryptCost > 0 {
		cfg.BcryptCost = f.Auth.BcryptCost
	}
	if f.Auth.FailedLoginThreshold > 0 {
		cfg.FailedLoginThreshold = f.Auth.FailedLoginThreshold
	}
	if f.Auth.SessionTTL != "" {
		if err := cfg.SessionTTL.UnmarshalText([]byte(f.Auth.SessionTTL)); err != nil {
			return fmt.Errorf("auth.session_ttl: %w", err)
		}
	}
	if f.Auth.ResetTTL != "" {
		if err := cfg.ResetTTL.UnmarshalText([]byte(f.Auth.ResetTTL)); err != nil {
			return fmt.Errorf("auth.reset_ttl: %w", err)
		}
	}
	if f.Auth.LockoutDuration != "" {
		d, err := time.ParseDuration(f.Auth.LockoutDuration)
		if err != nil {
			return fmt.Errorf("auth.lockout_duration: %w", err)
		}
		cfg.LockoutDuration = d
	}
	if f.App.URL != "" {
		cfg.AppURL = f.App.URL
	}
	if f.App.ClientURL != "" {
		cfg.ClientURL = f.App.ClientURL
	}
	return nil
}

// Validate rejects configurations the runtime cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("missing JWT_SECRET"))
	}
	if c.ResetSecret == "" {
		errs = append(errs, errors.New("missing JWT_RESET_SECRET"))
	}
	if c.SessionSecret != "" && c.SessionSecret == c.ResetSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_RESET_SECRET must differ"))
	}
	if c.SessionTTL <= 0 || c.ResetTTL <= 0 {
		errs = append(errs, errors.New("token expirations must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_ROUNDS must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("missing DB_URL for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage))
	}
	if c.HTTPPort <= 0 || c.GRPCPort <= 0 {
		errs = append(errs, errors.New("ports must be positive"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Lifetime is a token lifetime. It accepts Go durations ("90m"), a day
// suffix ("7d") or a bare number of seconds ("3600").
type Lifetime time.Duration

func (l Lifetime) Duration() time.Duration { return time.Duration(l) }

func (l *Lifetime) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		return errors.New("empty lifetime")
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*l = Lifetime(time.Duration(secs) * time.Second)
		return nil
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return fmt.Errorf("invalid lifetime %q", raw)
		}
		*l = Lifetime(time.Duration(n) * 24 * time.Hour)
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid lifetime %q", raw)
	}
	*l = Lifetime(d)
	return nil
}
