package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "BRK_"

const insecureSecret = "change-me"

type Config struct {
	Port           int               `yaml:"port"`
	DatabaseURL    string            `yaml:"database_url"`
	DatabaseType   string            `yaml:"database_type"`
	JWTSecret      string            `yaml:"jwt_secret"`
	AccessTokenTTL time.Duration     `yaml:"access_token_ttl"`
	RedisURL       string            `yaml:"redis_url"`
	RateLimitRPS   float64           `yaml:"rate_limit_rps"`
	RateLimitBurst int               `yaml:"rate_limit_burst"`
	APIPrefix      string            `yaml:"api_prefix"`
	AuditSalt      string            `yaml:"audit_salt"`
	Schedules      map[string]string `yaml:"schedules"`
}

// ParseFlags builds the configuration from flags, BRK_* environment
// variables (a local .env file is loaded first), an optional YAML file and
// defaults, in that order of precedence.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var configPath string

	fs := flag.NewFlagSet("brikick", flag.ContinueOnError)

	fs.StringVar(&configPath, "config", "", "YAML config file")
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (postgres or sqlite)")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for job locks")
	fs.DurationVar(&cfg.AccessTokenTTL, "token-ttl", 0, "Access token lifetime")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "JWT signing secret (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if configPath == "" {
		configPath = os.Getenv(EnvPrefix + "CONFIG")
	}
	if configPath != "" {
		file, err := loadFile(configPath)
		if err != nil {
			return Config{}, err
		}
		mergeFile(&cfg, file)
	}

	applyDefaults(&cfg)

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or BRK_DATABASE_URL env)")
	}
	if cfg.DatabaseType != "postgres" && cfg.DatabaseType != "sqlite" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("BRK_JWT_SECRET_KEY required")
	}
	if cfg.JWTSecret == insecureSecret {
		return Config{}, errors.New("BRK_JWT_SECRET_KEY must be changed from the default")
	}
	if cfg.AuditSalt == "" {
		cfg.AuditSalt = cfg.JWTSecret
	}

	return cfg, nil
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if cfg.Port == 0 {
		if portStr := os.Getenv(EnvPrefix + "PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return errors.New("invalid BRK_PORT env variable")
			}
			cfg.Port = port
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv(EnvPrefix + "DATABASE_URL")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv(EnvPrefix + "DATABASE_TYPE")
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv(EnvPrefix + "REDIS_URL")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv(EnvPrefix + "JWT_SECRET_KEY")
	}
	if cfg.AccessTokenTTL == 0 {
		if minStr := os.Getenv(EnvPrefix + "ACCESS_TOKEN_EXPIRE_MINUTES"); minStr != "" {
			minutes, err := strconv.Atoi(minStr)
			if err != nil || minutes <= 0 {
				return errors.New("invalid BRK_ACCESS_TOKEN_EXPIRE_MINUTES env variable")
			}
			cfg.AccessTokenTTL = time.Duration(minutes) * time.Minute
		}
	}
	if rps := os.Getenv(EnvPrefix + "RATE_LIMIT_RPS"); rps != "" {
		v, err := strconv.ParseFloat(rps, 64)
		if err != nil {
			return errors.New("invalid BRK_RATE_LIMIT_RPS env variable")
		}
		cfg.RateLimitRPS = v
	}
	if burst := os.Getenv(EnvPrefix + "RATE_LIMIT_BURST"); burst != "" {
		v, err := strconv.Atoi(burst)
		if err != nil {
			return errors.New("invalid BRK_RATE_LIMIT_BURST env variable")
		}
		cfg.RateLimitBurst = v
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = os.Getenv(EnvPrefix + "API_V1_PREFIX")
	}
	if cfg.AuditSalt == "" {
		cfg.AuditSalt = os.Getenv(EnvPrefix + "AUDIT_SALT")
	}
	return nil
}

func loadFile(path string) (Config, error) {
	var file Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return file, nil
}

// mergeFile fills fields still unset after flags and env from the file.
func mergeFile(cfg *Config, file Config) {
	if cfg.Port == 0 {
		cfg.Port = file.Port
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = file.DatabaseURL
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = file.DatabaseType
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = file.JWTSecret
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = file.AccessTokenTTL
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = file.RedisURL
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = file.RateLimitRPS
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = file.RateLimitBurst
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = file.APIPrefix
	}
	if cfg.AuditSalt == "" {
		cfg.AuditSalt = file.AuditSalt
	}
	if len(file.Schedules) > 0 {
		cfg.Schedules = file.Schedules
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 3318
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = "postgres"
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 60 * time.Minute
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 20
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
}
