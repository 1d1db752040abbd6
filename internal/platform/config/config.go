package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string

	DB    DBConfig
	Redis RedisConfig
	Mint  MintConfig

	ActivationLease time.Duration
	AvailabilityTTL time.Duration
}

type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host string
	Port string
	DB   int
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type MintConfig struct {
	GatewayURL        string
	Timeout           time.Duration
	MaxAttempts       int
	RetryBackoff      time.Duration
	BatchSize         int
	ReconcileInterval time.Duration
	Lease             time.Duration
}

// Load reads the optional env files and then the process environment.
// Values already present in the environment win over the files.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "nft_ticket"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25, &errs),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 25, &errs),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute, &errs),
		},
		Redis: RedisConfig{
			Host: getEnv("REDIS_HOST", "localhost"),
			Port: getEnv("REDIS_PORT", "6379"),
			DB:   getInt("REDIS_DB", 0, &errs),
		},
		Mint: MintConfig{
			GatewayURL:        getEnv("MINT_GATEWAY_URL", "http://localhost:8545"),
			Timeout:           getDuration("MINT_TIMEOUT", 30*time.Second, &errs),
			MaxAttempts:       getInt("MINT_MAX_ATTEMPTS", 3, &errs),
			RetryBackoff:      getDuration("MINT_RETRY_BACKOFF", 200*time.Millisecond, &errs),
			BatchSize:         getInt("MINT_BATCH_SIZE", 500, &errs),
			ReconcileInterval: getDuration("MINT_RECONCILE_INTERVAL", time.Minute, &errs),
			Lease:             getDuration("MINT_LEASE", 30*time.Minute, &errs),
		},
		ActivationLease: getDuration("ACTIVATION_LEASE", 5*time.Minute, &errs),
		AvailabilityTTL: getDuration("AVAILABILITY_TTL", 30*time.Second, &errs),
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}

	if cfg.Mint.MaxAttempts < 1 {
		return nil, fmt.Errorf("MINT_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Mint.BatchSize < 1 {
		return nil, fmt.Errorf("MINT_BATCH_SIZE must be at least 1")
	}
	return cfg, nil
}

func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int, errs *[]error) int {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return v
}
