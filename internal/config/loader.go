// Configuration loading via viper: YAML file plus FIGLENS_* environment
// variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all engine settings.
const envPrefix = "FIGLENS"

// newViper builds a pre-configured Viper instance with the engine's standard
// settings: YAML file type, FIGLENS_ env prefix, automatic env binding, and a
// key replacer mapping "." → "_" so that nested keys like "database.host"
// resolve to "FIGLENS_DATABASE_HOST".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Unmarshal only sees keys viper knows about, so env-only keys must be
	// bound explicitly (viper's AutomaticEnv does not cover AllSettings).
	for _, key := range boundKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// boundKeys lists every configuration key so that FIGLENS_* environment
// variables are visible to Unmarshal even without a config file.
var boundKeys = []string{
	"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
	"server.shutdown_timeout",
	"catalog.source", "catalog.path", "catalog.cache_enabled", "catalog.cache_ttl",
	"database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_conns",
	"database.min_conns", "database.conn_max_lifetime", "database.migration_path",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
	"redis.key_prefix",
	"milvus.enabled", "milvus.addr", "milvus.collection", "milvus.default_top_k",
	"kafka.enabled", "kafka.brokers", "kafka.topic", "kafka.producer_retries",
	"kafka.batch_timeout",
	"log.level", "log.format", "log.output",
	"recognition.color_weight", "recognition.shape_weight",
	"recognition.texture_weight", "recognition.vector_weight",
	"recognition.lexical_weight", "recognition.key_feature_weight",
	"recognition.series_weight", "recognition.text_color_weight",
	"recognition.name_weight",
	"recognition.quick_match_top_k", "recognition.max_results",
	"recognition.min_image_dimension", "recognition.match_workers",
	"recognition.synonym_table_path",
}

// Load reads the YAML file at configPath, merges any FIGLENS_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.  Returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from FIGLENS_* environment variables,
// with no config file required.  Preferred for containerised (12-factor)
// deployments.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Intended for
// hot-reloading non-critical settings such as log level and similarity
// weights; callers are responsible for applying only the safe subset of
// changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// A changed file that fails to parse or validate does NOT invoke onChange.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read — errors are ignored here; callers should call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}
