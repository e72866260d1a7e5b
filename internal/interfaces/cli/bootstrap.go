package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/turtacn/FigureLens/internal/application/matching"
	"github.com/turtacn/FigureLens/internal/application/recognition"
	"github.com/turtacn/FigureLens/internal/config"
	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/internal/domain/scoring"
	"github.com/turtacn/FigureLens/internal/domain/text"
	"github.com/turtacn/FigureLens/internal/infrastructure/database/postgres"
	"github.com/turtacn/FigureLens/internal/infrastructure/database/redis"
	"github.com/turtacn/FigureLens/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/metrics"
	"github.com/turtacn/FigureLens/internal/infrastructure/search/milvus"
	"github.com/turtacn/FigureLens/internal/infrastructure/storage/file"
)

// app bundles the wired engine with the infrastructure behind it.
type app struct {
	cfg      *config.Config
	log      logging.Logger
	provider catalog.Provider
	orch     *recognition.Orchestrator
	registry *prometheus.Registry

	cleanups []func()
}

// close tears infrastructure down in reverse wiring order.
func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
}

// buildApp wires the recognition engine from configuration: catalog source,
// optional snapshot cache, vector index, event producer and metrics.
func buildApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	provider, err := buildProvider(ctx, cfg, log, a)
	if err != nil {
		a.close()
		return nil, err
	}
	a.provider = provider

	synonyms, err := loadSynonyms(cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	engine, err := matching.New(provider, synonyms, matching.Options{
		VisualWeights: scoring.VisualWeights{
			Color:   cfg.Recognition.ColorWeight,
			Shape:   cfg.Recognition.ShapeWeight,
			Texture: cfg.Recognition.TextureWeight,
			Vector:  cfg.Recognition.VectorWeight,
		},
		TextWeights: scoring.TextWeights{
			Lexical:    cfg.Recognition.LexicalWeight,
			KeyFeature: cfg.Recognition.KeyFeatureWeight,
			Series:     cfg.Recognition.SeriesWeight,
			Color:      cfg.Recognition.TextColorWeight,
			Name:       cfg.Recognition.NameWeight,
		},
		QuickTopK:  cfg.Recognition.QuickMatchTopK,
		MaxResults: cfg.Recognition.MaxResults,
		Workers:    cfg.Recognition.MatchWorkers,
	}, log)
	if err != nil {
		a.close()
		return nil, err
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recMetrics := metrics.NewRecognitionMetrics(a.registry)

	opts := []recognition.Option{recognition.WithMetrics(recMetrics)}

	if cfg.Milvus.Enabled {
		index, err := milvus.NewIndex(ctx, cfg.Milvus, log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.cleanups = append(a.cleanups, func() { index.Close() })
		if err := index.EnsureCollection(ctx); err != nil {
			a.close()
			return nil, err
		}
		if snap, err := provider.Snapshot(ctx); err == nil {
			if err := index.Sync(ctx, snap); err != nil {
				log.Warn("Vector index sync failed, quick match will scan the catalog", logging.Err(err))
			}
		}
		engine.SetVectorIndex(index)
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			a.close()
			return nil, err
		}
		a.cleanups = append(a.cleanups, func() { producer.Close() })
		opts = append(opts, recognition.WithEventSink(producer))
	}

	extractor := feature.NewExtractor(feature.ExtractorConfig{
		MinDimension: cfg.Recognition.MinImageDimension,
	}, log)
	analyzer := text.NewAnalyzer(synonyms, log)

	orch, err := recognition.New(extractor, analyzer, engine, log, opts...)
	if err != nil {
		a.close()
		return nil, err
	}
	a.orch = orch

	if snap, err := provider.Snapshot(ctx); err == nil {
		recMetrics.SetCatalogSize(len(snap))
	}

	return a, nil
}

// buildProvider selects and wires the catalog source, with the optional
// Redis snapshot cache in front of it.
func buildProvider(ctx context.Context, cfg *config.Config, log logging.Logger, a *app) (catalog.Provider, error) {
	var provider catalog.Provider

	switch cfg.Catalog.Source {
	case "postgres":
		conn, err := postgres.NewConnection(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		a.cleanups = append(a.cleanups, conn.Close)
		if cfg.Database.MigrationPath != "" {
			if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
				return nil, err
			}
		}
		provider = postgres.NewProvider(conn, log)
	default:
		fp, err := file.NewProvider(cfg.Catalog.Path, log)
		if err != nil {
			return nil, err
		}
		provider = fp
	}

	if cfg.Catalog.CacheEnabled {
		client, err := redis.NewClient(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		a.cleanups = append(a.cleanups, func() { client.Close() })
		provider = redis.NewSnapshotCache(provider, client, cfg.Redis.KeyPrefix, cfg.Catalog.CacheTTL, log)
	}

	return provider, nil
}

func loadSynonyms(cfg *config.Config) (*text.SynonymTable, error) {
	if cfg.Recognition.SynonymTablePath == "" {
		return text.DefaultSynonymTable(), nil
	}
	return text.LoadSynonymTable(cfg.Recognition.SynonymTablePath)
}
