// Package config provides configuration loading, defaults, and validation for
// the FigureLens engine.
package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultCatalogSource = "file"
	DefaultCatalogPath   = "catalog.json"
	DefaultCatalogTTL    = 15 * time.Minute

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "figurelens"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "figlens:"

	DefaultMilvusAddr       = "localhost:19530"
	DefaultMilvusCollection = "catalog_vectors"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "figurelens.recognitions"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Visual similarity weights.  Starting defaults from manual calibration on
	// the reference figure set; tune against a labelled set when one exists.
	DefaultColorWeight   = 0.4
	DefaultShapeWeight   = 0.3
	DefaultTextureWeight = 0.2
	DefaultVectorWeight  = 0.1

	// Text similarity weights.  Key features and proper names carry the most
	// signal; raw lexical overlap is noisy.
	DefaultLexicalWeight    = 0.25
	DefaultKeyFeatureWeight = 0.30
	DefaultSeriesWeight     = 0.15
	DefaultTextColorWeight  = 0.10
	DefaultNameWeight       = 0.20

	DefaultQuickMatchTopK    = 10
	DefaultMaxResults        = 5
	DefaultMinImageDimension = 200
	DefaultMatchWorkers      = 4
)

// ApplyDefaults fills every zero-value field in cfg with the engine default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.  Must be called after unmarshalling and before
// Validate() so optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// ── Catalog ───────────────────────────────────────────────────────────
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = DefaultCatalogSource
	}
	if cfg.Catalog.Source == "file" && cfg.Catalog.Path == "" {
		cfg.Catalog.Path = DefaultCatalogPath
	}
	if cfg.Catalog.CacheTTL == 0 {
		cfg.Catalog.CacheTTL = DefaultCatalogTTL
	}

	// ── Database ──────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MinConns == 0 {
		cfg.Database.MinConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}

	// ── Redis ─────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Milvus ────────────────────────────────────────────────────────────
	if cfg.Milvus.Addr == "" {
		cfg.Milvus.Addr = DefaultMilvusAddr
	}
	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = DefaultMilvusCollection
	}
	if cfg.Milvus.DefaultTopK == 0 {
		cfg.Milvus.DefaultTopK = DefaultQuickMatchTopK
	}

	// ── Kafka ─────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.ProducerRetries == 0 {
		cfg.Kafka.ProducerRetries = 3
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 100 * time.Millisecond
	}

	// ── Log ───────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Recognition ───────────────────────────────────────────────────────
	r := &cfg.Recognition
	if r.ColorWeight == 0 && r.ShapeWeight == 0 && r.TextureWeight == 0 && r.VectorWeight == 0 {
		r.ColorWeight = DefaultColorWeight
		r.ShapeWeight = DefaultShapeWeight
		r.TextureWeight = DefaultTextureWeight
		r.VectorWeight = DefaultVectorWeight
	}
	if r.LexicalWeight == 0 && r.KeyFeatureWeight == 0 && r.SeriesWeight == 0 &&
		r.TextColorWeight == 0 && r.NameWeight == 0 {
		r.LexicalWeight = DefaultLexicalWeight
		r.KeyFeatureWeight = DefaultKeyFeatureWeight
		r.SeriesWeight = DefaultSeriesWeight
		r.TextColorWeight = DefaultTextColorWeight
		r.NameWeight = DefaultNameWeight
	}
	if r.QuickMatchTopK == 0 {
		r.QuickMatchTopK = DefaultQuickMatchTopK
	}
	if r.MaxResults == 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.MinImageDimension == 0 {
		r.MinImageDimension = DefaultMinImageDimension
	}
	if r.MatchWorkers == 0 {
		r.MatchWorkers = DefaultMatchWorkers
	}
}
