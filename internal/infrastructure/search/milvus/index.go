// Package milvus implements the optional vector index used by the quick
// match stage.  When configured, candidate feature vectors are pre-filtered
// against a Milvus collection before cosine ranking; when absent or failing,
// the engine scans the whole catalog instead.
package milvus

import (
	"context"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/turtacn/FigureLens/internal/config"
	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/errors"
)

const (
	idField     = "id"
	vectorField = "vector"

	hnswM              = 16
	hnswEfConstruction = 200
	hnswEfSearch       = 64

	searchTimeout = 5 * time.Second
)

// milvusAPI is the slice of the Milvus client the index uses.  client.Client
// satisfies it.
type milvusAPI interface {
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shardNum int32, opts ...client.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error
	LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error
	Upsert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error)
	Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error)
	Close() error
}

// Index is a Milvus-backed vector index over catalog entry ids.
type Index struct {
	cli        milvusAPI
	collection string
	logger     logging.Logger
}

// NewIndex connects to Milvus.  The collection is created and loaded on
// demand by EnsureCollection.
func NewIndex(ctx context.Context, cfg config.MilvusConfig, log logging.Logger) (*Index, error) {
	cli, err := client.NewClient(ctx, client.Config{Address: cfg.Addr})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to connect to milvus").
			WithDetail("addr=" + cfg.Addr)
	}
	collection := cfg.Collection
	if collection == "" {
		collection = "figurelens_vectors"
	}
	return &Index{
		cli:        cli,
		collection: collection,
		logger:     log.Named("index.milvus"),
	}, nil
}

// EnsureCollection creates the collection, its HNSW index and loads it into
// memory if it does not exist yet.
func (ix *Index) EnsureCollection(ctx context.Context) error {
	exists, err := ix.cli.HasCollection(ctx, ix.collection)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to check collection")
	}
	if exists {
		if err := ix.cli.LoadCollection(ctx, ix.collection, false); err != nil {
			return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to load collection")
		}
		return nil
	}

	schema := entity.NewSchema().
		WithName(ix.collection).
		WithDescription("catalog entry feature vectors").
		WithField(entity.NewField().
			WithName(idField).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(128).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(vectorField).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(feature.VectorDim))

	if err := ix.cli.CreateCollection(ctx, schema, 1); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to create collection")
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, hnswM, hnswEfConstruction)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to build index definition")
	}
	if err := ix.cli.CreateIndex(ctx, ix.collection, vectorField, idx, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to create vector index")
	}
	if err := ix.cli.LoadCollection(ctx, ix.collection, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to load collection")
	}

	ix.logger.Info("Vector collection created", logging.String("collection", ix.collection))
	return nil
}

// Sync upserts the feature vectors of all given entries.  Entries without a
// captured visual profile get the neutral default so they stay findable.
func (ix *Index) Sync(ctx context.Context, entries []catalog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, 0, len(entries))
	vecs := make([][]float32, 0, len(entries))
	for i := range entries {
		vf := entries[i].EffectiveFeatures()
		if len(vf.FeatureVector) != feature.VectorDim {
			ix.logger.Warn("Skipping entry with unexpected vector length",
				logging.String("id", entries[i].ID),
				logging.Int("len", len(vf.FeatureVector)),
			)
			continue
		}
		ids = append(ids, entries[i].ID)
		vecs = append(vecs, vf.FeatureVector)
	}
	if len(ids) == 0 {
		return nil
	}

	_, err := ix.cli.Upsert(ctx, ix.collection, "",
		entity.NewColumnVarChar(idField, ids),
		entity.NewColumnFloatVector(vectorField, feature.VectorDim, vecs),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to upsert vectors")
	}
	ix.logger.Info("Vector index synced", logging.Int("entries", len(ids)))
	return nil
}

// TopK returns the ids of the k nearest entries by cosine similarity.
func (ix *Index) TopK(ctx context.Context, vec []float32, k int) ([]string, error) {
	if len(vec) != feature.VectorDim {
		return nil, feature.ValidateVector(vec, make([]float32, feature.VectorDim))
	}
	if k < 1 {
		return nil, errors.New(errors.ErrCodeVectorIndex, "top-k must be positive")
	}

	sp, err := entity.NewIndexHNSWSearchParam(hnswEfSearch)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorIndex, "failed to build search params")
	}

	sctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	results, err := ix.cli.Search(sctx, ix.collection, nil, "", []string{idField},
		[]entity.Vector{entity.FloatVector(vec)}, vectorField, entity.COSINE, k, sp)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVectorIndex, "vector search failed")
	}

	var ids []string
	for _, res := range results {
		col, ok := res.IDs.(*entity.ColumnVarChar)
		if !ok {
			return nil, errors.New(errors.ErrCodeVectorIndex, "unexpected id column type")
		}
		ids = append(ids, col.Data()...)
	}
	return ids, nil
}

// Close releases the client connection.
func (ix *Index) Close() error {
	return ix.cli.Close()
}
