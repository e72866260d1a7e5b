package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FigureLens/internal/domain/catalog"
	"github.com/turtacn/FigureLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FigureLens/pkg/errors"
)

// fakeKV is an in-memory stand-in for the Redis client.
type fakeKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := goredis.NewStringCmd(ctx)
	if f.getErr != nil {
		cmd.SetErr(f.getErr)
		return cmd
	}
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(goredis.Nil)
		return cmd
	}
	cmd.SetVal(string(v))
	return cmd
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := goredis.NewStatusCmd(ctx)
	if f.setErr != nil {
		cmd.SetErr(f.setErr)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = v
	case string:
		f.data[key] = []byte(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := goredis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

// countingProvider counts Snapshot loads.
type countingProvider struct {
	mu      sync.Mutex
	loads   int
	entries []catalog.Entry
	err     error
}

func (p *countingProvider) Snapshot(ctx context.Context) ([]catalog.Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads++
	if p.err != nil {
		return nil, p.err
	}
	out := make([]catalog.Entry, len(p.entries))
	copy(out, p.entries)
	return out, nil
}

func (p *countingProvider) Get(ctx context.Context, id string) (*catalog.Entry, error) {
	for i := range p.entries {
		if p.entries[i].ID == id {
			e := p.entries[i]
			return &e, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "catalog entry not found")
}

func (p *countingProvider) Search(ctx context.Context, f catalog.Filter) ([]catalog.Entry, error) {
	var out []catalog.Entry
	for i := range p.entries {
		if f.Matches(&p.entries[i]) {
			out = append(out, p.entries[i])
		}
	}
	return out, nil
}

func (p *countingProvider) loadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads
}

func testEntries() []catalog.Entry {
	return []catalog.Entry{
		{ID: "momo-001", Name: "Momo Classic", Series: "forest"},
		{ID: "nova-001", Name: "Nova", Series: "space"},
	}
}

func TestSnapshotCacheColdAndWarm(t *testing.T) {
	inner := &countingProvider{entries: testEntries()}
	kv := newFakeKV()
	cache := NewSnapshotCache(inner, kv, "figlens:", time.Minute, logging.NewNopLogger())
	ctx := context.Background()

	got, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, inner.loadCount())

	// Warm hit skips the inner provider.
	got, err = cache.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "momo-001", got[0].ID, "cached snapshot must keep catalog order")
	assert.Equal(t, 1, inner.loadCount())
}

func TestSnapshotCacheDegradesOnRedisFailure(t *testing.T) {
	inner := &countingProvider{entries: testEntries()}
	kv := newFakeKV()
	kv.getErr = assert.AnError
	kv.setErr = assert.AnError
	cache := NewSnapshotCache(inner, kv, "", 0, logging.NewNopLogger())

	got, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSnapshotCacheDiscardsCorruptDocument(t *testing.T) {
	inner := &countingProvider{entries: testEntries()}
	kv := newFakeKV()
	kv.data["figlens:catalog:snapshot"] = []byte("{corrupt")
	cache := NewSnapshotCache(inner, kv, "figlens:", time.Minute, logging.NewNopLogger())

	got, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1, inner.loadCount())
}

func TestSnapshotCachePropagatesProviderError(t *testing.T) {
	inner := &countingProvider{err: errors.New(errors.ErrCodeDatabaseError, "boom")}
	cache := NewSnapshotCache(inner, newFakeKV(), "", 0, logging.NewNopLogger())

	_, err := cache.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestSnapshotCacheGetAndSearch(t *testing.T) {
	inner := &countingProvider{entries: testEntries()}
	cache := NewSnapshotCache(inner, newFakeKV(), "", 0, logging.NewNopLogger())
	ctx := context.Background()

	e, err := cache.Get(ctx, "nova-001")
	require.NoError(t, err)
	assert.Equal(t, "Nova", e.Name)

	_, err = cache.Get(ctx, "ghost")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	found, err := cache.Search(ctx, catalog.Filter{Series: "forest"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "momo-001", found[0].ID)
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	inner := &countingProvider{entries: testEntries()}
	kv := newFakeKV()
	cache := NewSnapshotCache(inner, kv, "figlens:", time.Minute, logging.NewNopLogger())
	ctx := context.Background()

	_, err := cache.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx))

	_, err = cache.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.loadCount(), "invalidate must force a reload")
}
