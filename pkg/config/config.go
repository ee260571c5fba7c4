// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Server, Postgres, Redis, Kafka, Engine, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Engine   EngineConfig   `yaml:"engine"`
	Importer ImporterConfig `yaml:"importer"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds Redis connection and result-cache parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	CatalogRefresh string `yaml:"catalogRefresh"`
}

// EngineConfig holds the scoring and similarity-index tunables. The
// suspicion thresholds and shrinkage constant are fixed heuristics from the
// source dataset analysis; they are surfaced here rather than hard-coded,
// but no derivation exists for "better" values.
type EngineConfig struct {
	MinEvidence            float64       `yaml:"minEvidence"`
	SuspicionEngagement    float64       `yaml:"suspicionEngagement"`
	SuspicionMaxSubs       int64         `yaml:"suspicionMaxSubscribers"`
	VocabularyLimit        int           `yaml:"vocabularyLimit"`
	DefaultTopN            int           `yaml:"defaultTopN"`
	MaxTopN                int           `yaml:"maxTopN"`
	DefaultMinReviews      int64         `yaml:"defaultMinReviews"`
	RebuildOnStart         bool          `yaml:"rebuildOnStart"`
	RebuildTimeout         time.Duration `yaml:"rebuildTimeout"`
	ExplorerMinReviews     int64         `yaml:"explorerMinReviews"`
	PriceAdvisorTopPercent float64       `yaml:"priceAdvisorTopPercent"`
}

// ImporterConfig controls the batch CSV import job.
type ImporterConfig struct {
	CSVPath   string `yaml:"csvPath"`
	Table     string `yaml:"table"`
	BatchSize int    `yaml:"batchSize"`
	Truncate  bool   `yaml:"truncate"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-
// variable overrides. It returns a Config populated with sensible defaults
// for any missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects out-of-range engine tunables.
func (c *Config) Validate() error {
	if c.Engine.MinEvidence < 0 {
		return fmt.Errorf("engine.minEvidence must be non-negative, got %v", c.Engine.MinEvidence)
	}
	if c.Engine.VocabularyLimit < 1 {
		return fmt.Errorf("engine.vocabularyLimit must be positive, got %d", c.Engine.VocabularyLimit)
	}
	if c.Engine.SuspicionEngagement < 0 || c.Engine.SuspicionEngagement > 1 {
		return fmt.Errorf("engine.suspicionEngagement must be in [0,1], got %v", c.Engine.SuspicionEngagement)
	}
	if c.Engine.DefaultTopN < 1 || c.Engine.MaxTopN < c.Engine.DefaultTopN {
		return fmt.Errorf("engine topN bounds invalid: default=%d max=%d", c.Engine.DefaultTopN, c.Engine.MaxTopN)
	}
	if c.Engine.PriceAdvisorTopPercent <= 0 || c.Engine.PriceAdvisorTopPercent > 1 {
		return fmt.Errorf("engine.priceAdvisorTopPercent must be in (0,1], got %v", c.Engine.PriceAdvisorTopPercent)
	}
	return nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "courseintel",
			User:            "courseintel",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "courseintel-group",
			Topics: KafkaTopics{
				CatalogRefresh: "catalog.refresh",
			},
		},
		Engine: EngineConfig{
			MinEvidence:            10,
			SuspicionEngagement:    0.99,
			SuspicionMaxSubs:       50,
			VocabularyLimit:        500,
			DefaultTopN:            10,
			MaxTopN:                50,
			DefaultMinReviews:      5,
			RebuildOnStart:         true,
			RebuildTimeout:         2 * time.Minute,
			ExplorerMinReviews:     3,
			PriceAdvisorTopPercent: 0.1,
		},
		Importer: ImporterConfig{
			CSVPath:   "data/udemy_courses.csv",
			Table:     "courses",
			BatchSize: 500,
			Truncate:  false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads CI_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CI_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CI_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CI_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CI_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CI_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CI_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CI_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("CI_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CI_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CI_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CI_IMPORTER_CSV_PATH"); v != "" {
		cfg.Importer.CSVPath = v
	}
	if v := os.Getenv("CI_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CI_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CI_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
