package milvus

import (
	"context"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FigureLens/internal/application/matching"
	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/domain/feature"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/errors"
)

type fakeMilvus struct {
	hasCollection bool
	created       bool
	indexed       bool
	loaded        bool
	upsertIDs     []string
	searchTopK    int
	searchIDs     []string
	searchErr     error
}

func (f *fakeMilvus) HasCollection(ctx context.Context, collName string) (bool, error) {
	return f.hasCollection, nil
}

func (f *fakeMilvus) CreateCollection(ctx context.Context, schema *entity.Schema, shardNum int32, opts ...client.CreateCollectionOption) error {
	f.created = true
	return nil
}

func (f *fakeMilvus) CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error {
	f.indexed = true
	return nil
}

func (f *fakeMilvus) LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error {
	f.loaded = true
	return nil
}

func (f *fakeMilvus) Upsert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error) {
	for _, col := range columns {
		if vc, ok := col.(*entity.ColumnVarChar); ok {
			f.upsertIDs = vc.Data()
		}
	}
	return nil, nil
}

func (f *fakeMilvus) Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string, vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam, opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	f.searchTopK = topK
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []client.SearchResult{{
		ResultCount: len(f.searchIDs),
		IDs:         entity.NewColumnVarChar(idField, f.searchIDs),
	}}, nil
}

func (f *fakeMilvus) Close() error { return nil }

func newTestIndex(f *fakeMilvus) *Index {
	return &Index{cli: f, collection: "figurelens_vectors", logger: logging.NewNopLogger()}
}

func uniformVec(v float32) []float32 {
	out := make([]float32, feature.VectorDim)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestIndexImplementsVectorIndex(t *testing.T) {
	var _ matching.VectorIndex = (*Index)(nil)
}

func TestTopKReturnsIDs(t *testing.T) {
	f := &fakeMilvus{searchIDs: []string{"momo-001", "nova-001"}}
	ix := newTestIndex(f)

	ids, err := ix.TopK(context.Background(), uniformVec(0.5), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"momo-001", "nova-001"}, ids)
	assert.Equal(t, 10, f.searchTopK)
}

func TestTopKRejectsWrongDimension(t *testing.T) {
	ix := newTestIndex(&fakeMilvus{})
	_, err := ix.TopK(context.Background(), make([]float32, 3), 10)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeVectorDimMismatch))
}

func TestTopKRejectsNonPositiveK(t *testing.T) {
	ix := newTestIndex(&fakeMilvus{})
	_, err := ix.TopK(context.Background(), uniformVec(0.1), 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeVectorIndex))
}

func TestTopKWrapsSearchFailure(t *testing.T) {
	ix := newTestIndex(&fakeMilvus{searchErr: assert.AnError})
	_, err := ix.TopK(context.Background(), uniformVec(0.1), 5)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeVectorIndex))
}

func TestEnsureCollectionCreatesOnce(t *testing.T) {
	f := &fakeMilvus{}
	ix := newTestIndex(f)
	require.NoError(t, ix.EnsureCollection(context.Background()))
	assert.True(t, f.created)
	assert.True(t, f.indexed)
	assert.True(t, f.loaded)
}

func TestEnsureCollectionSkipsExisting(t *testing.T) {
	f := &fakeMilvus{hasCollection: true}
	ix := newTestIndex(f)
	require.NoError(t, ix.EnsureCollection(context.Background()))
	assert.False(t, f.created)
	assert.True(t, f.loaded)
}

func TestSyncUpsertsCatalogVectors(t *testing.T) {
	f := &fakeMilvus{}
	ix := newTestIndex(f)

	vf := feature.DefaultVisualFeatures()
	entries := []catalog.Entry{
		{ID: "momo-001", Name: "Momo", Features: &vf},
		{ID: "nova-001", Name: "Nova"}, // neutral default vector
	}
	require.NoError(t, ix.Sync(context.Background(), entries))
	assert.Equal(t, []string{"momo-001", "nova-001"}, f.upsertIDs)
}

func TestSyncEmptyCatalogIsNoop(t *testing.T) {
	ix := newTestIndex(&fakeMilvus{})
	assert.NoError(t, ix.Sync(context.Background(), nil))
}
