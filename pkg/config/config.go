package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env         string
	MetricsPort int

	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig governs shift generation behaviour.
type SchedulerConfig struct {
	Timezone           string
	LookaheadDays      int
	SeedLookaheadWeeks int
	MaxSeedShifts      int
	IncrementalEvery   time.Duration
	SeedEvery          time.Duration
	SwapSweepEvery     time.Duration
	JobWorkers         int
	JobRetries         int
	JobRetryDelay      time.Duration
	LockTTL            time.Duration
}

// ExportConfig controls roster export rendering.
type ExportConfig struct {
	StorageDir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.MetricsPort = v.GetInt("METRICS_PORT")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Timezone:           v.GetString("SCHEDULER_TIMEZONE"),
		LookaheadDays:      v.GetInt("SCHEDULER_LOOKAHEAD_DAYS"),
		SeedLookaheadWeeks: v.GetInt("SCHEDULER_SEED_LOOKAHEAD_WEEKS"),
		MaxSeedShifts:      v.GetInt("SCHEDULER_MAX_SEED_SHIFTS"),
		IncrementalEvery:   parseDuration(v.GetString("SCHEDULER_INCREMENTAL_EVERY"), 5*time.Minute),
		SeedEvery:          parseDuration(v.GetString("SCHEDULER_SEED_EVERY"), 24*time.Hour),
		SwapSweepEvery:     parseDuration(v.GetString("SCHEDULER_SWAP_SWEEP_EVERY"), time.Hour),
		JobWorkers:         v.GetInt("SCHEDULER_JOB_WORKERS"),
		JobRetries:         v.GetInt("SCHEDULER_JOB_RETRIES"),
		JobRetryDelay:      parseDuration(v.GetString("SCHEDULER_JOB_RETRY_DELAY"), 5*time.Second),
		LockTTL:            parseDuration(v.GetString("SCHEDULER_LOCK_TTL"), 10*time.Minute),
	}

	cfg.Export = ExportConfig{
		StorageDir: v.GetString("EXPORT_STORAGE_DIR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("METRICS_PORT", 9091)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "roster")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_TIMEZONE", "UTC")
	v.SetDefault("SCHEDULER_LOOKAHEAD_DAYS", 28)
	v.SetDefault("SCHEDULER_SEED_LOOKAHEAD_WEEKS", 12)
	v.SetDefault("SCHEDULER_MAX_SEED_SHIFTS", 60)
	v.SetDefault("SCHEDULER_INCREMENTAL_EVERY", "5m")
	v.SetDefault("SCHEDULER_SEED_EVERY", "24h")
	v.SetDefault("SCHEDULER_SWAP_SWEEP_EVERY", "1h")
	v.SetDefault("SCHEDULER_JOB_WORKERS", 2)
	v.SetDefault("SCHEDULER_JOB_RETRIES", 3)
	v.SetDefault("SCHEDULER_JOB_RETRY_DELAY", "5s")
	v.SetDefault("SCHEDULER_LOCK_TTL", "10m")

	v.SetDefault("EXPORT_STORAGE_DIR", "./exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
