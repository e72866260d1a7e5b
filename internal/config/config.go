// Package config defines all configuration structures for the FigureLens
// engine.  No I/O or parsing logic lives here — only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CatalogConfig selects where catalog snapshots come from.
type CatalogConfig struct {
	// Source is "file" or "postgres".
	Source string `mapstructure:"source"`

	// Path is the JSON catalog file, used when Source is "file".
	Path string `mapstructure:"path"`

	// CacheEnabled routes snapshot loads through the Redis cache.
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the catalog store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for snapshot caching.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// MilvusConfig holds the optional vector-index connection parameters used for
// the quick-match pre-filter on large catalogs.
type MilvusConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Addr       string `mapstructure:"addr"`
	Collection string `mapstructure:"collection"`
	DefaultTopK int   `mapstructure:"default_top_k"`
}

// KafkaConfig holds the recognition-event producer parameters.
type KafkaConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	Topic           string   `mapstructure:"topic"`
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// RecognitionConfig holds the engine tunables: similarity weights, the
// two-stage search parameters and input-quality floors.  The weight values are
// a tuned starting default, not a law; they are deliberately configuration so
// vocabulary and calibration can change without touching scoring code.
type RecognitionConfig struct {
	// Visual similarity term weights.  Must sum to 1.
	ColorWeight   float64 `mapstructure:"color_weight"`
	ShapeWeight   float64 `mapstructure:"shape_weight"`
	TextureWeight float64 `mapstructure:"texture_weight"`
	VectorWeight  float64 `mapstructure:"vector_weight"`

	// Text similarity term weights.  Must sum to 1.
	LexicalWeight    float64 `mapstructure:"lexical_weight"`
	KeyFeatureWeight float64 `mapstructure:"key_feature_weight"`
	SeriesWeight     float64 `mapstructure:"series_weight"`
	TextColorWeight  float64 `mapstructure:"text_color_weight"`
	NameWeight       float64 `mapstructure:"name_weight"`

	// QuickMatchTopK bounds the stage-2 detailed re-rank candidate set.
	QuickMatchTopK int `mapstructure:"quick_match_top_k"`

	// MaxResults is the default result-list length for match calls.
	MaxResults int `mapstructure:"max_results"`

	// MinImageDimension is the smallest acceptable width/height in pixels.
	MinImageDimension int `mapstructure:"min_image_dimension"`

	// MatchWorkers bounds the per-entry scoring fan-out.
	MatchWorkers int `mapstructure:"match_workers"`

	// SynonymTablePath optionally overrides the embedded synonym table.
	SynonymTablePath string `mapstructure:"synonym_table_path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the engine.  Every
// infrastructure component and application service reads its settings from the
// relevant sub-struct.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Milvus      MilvusConfig      `mapstructure:"milvus"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Log         LogConfig         `mapstructure:"log"`
	Recognition RecognitionConfig `mapstructure:"recognition"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

const weightSumTolerance = 1e-6

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Catalog
	switch c.Catalog.Source {
	case "file", "postgres":
	default:
		return fmt.Errorf("config: catalog.source %q is invalid; expected file|postgres", c.Catalog.Source)
	}
	if c.Catalog.Source == "file" && c.Catalog.Path == "" {
		return fmt.Errorf("config: catalog.path is required when catalog.source is file")
	}

	// Database (only when the catalog lives there)
	if c.Catalog.Source == "postgres" {
		if c.Database.Host == "" {
			return fmt.Errorf("config: database.host is required")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required")
		}
	}

	// Redis (only when snapshot caching is on)
	if c.Catalog.CacheEnabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when catalog.cache_enabled is true")
	}

	// Milvus
	if c.Milvus.Enabled && c.Milvus.Addr == "" {
		return fmt.Errorf("config: milvus.addr is required when milvus.enabled is true")
	}

	// Kafka
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker when kafka.enabled is true")
	}

	// Recognition weights
	visual := c.Recognition.ColorWeight + c.Recognition.ShapeWeight +
		c.Recognition.TextureWeight + c.Recognition.VectorWeight
	if diff := visual - 1.0; diff > weightSumTolerance || diff < -weightSumTolerance {
		return fmt.Errorf("config: recognition visual weights sum to %.4f, want 1.0", visual)
	}
	text := c.Recognition.LexicalWeight + c.Recognition.KeyFeatureWeight +
		c.Recognition.SeriesWeight + c.Recognition.TextColorWeight + c.Recognition.NameWeight
	if diff := text - 1.0; diff > weightSumTolerance || diff < -weightSumTolerance {
		return fmt.Errorf("config: recognition text weights sum to %.4f, want 1.0", text)
	}
	if c.Recognition.QuickMatchTopK < 1 {
		return fmt.Errorf("config: recognition.quick_match_top_k must be ≥ 1, got %d", c.Recognition.QuickMatchTopK)
	}
	if c.Recognition.MaxResults < 1 {
		return fmt.Errorf("config: recognition.max_results must be ≥ 1, got %d", c.Recognition.MaxResults)
	}
	if c.Recognition.MinImageDimension < 1 {
		return fmt.Errorf("config: recognition.min_image_dimension must be ≥ 1, got %d", c.Recognition.MinImageDimension)
	}
	if c.Recognition.MatchWorkers < 1 {
		return fmt.Errorf("config: recognition.match_workers must be ≥ 1, got %d", c.Recognition.MatchWorkers)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
