package checkpoint

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/pieceset"
	"github.com/hupe1980/pieceset/blobstore"
	"github.com/hupe1980/pieceset/codec"
	"github.com/hupe1980/pieceset/resource"
	"github.com/hupe1980/pieceset/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	metrics := &pieceset.BasicMetricsCollector{}
	store := New(blobstore.NewMemoryStore(),
		WithCompression(codec.ZSTD),
		WithMetricsCollector(metrics),
		WithLogger(pieceset.NoopLogger()),
	)

	set, err := pieceset.FromIndices(100, 0, 17, 99)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "abc", set))

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, set.Equal(got))
	assert.Equal(t, []int{0, 17, 99}, got.Indices())

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SaveCount)
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Zero(t, stats.SaveErrors)
	assert.Equal(t, stats.SaveBytes, stats.LoadBytes)
}

func TestStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	store := New(blobstore.NewMemoryStore())

	first, err := pieceset.FromIndices(16, 1)
	require.NoError(t, err)
	second := first.Fill()

	require.NoError(t, store.Save(ctx, "t", first))
	require.NoError(t, store.Save(ctx, "t", second))

	got, err := store.Load(ctx, "t")
	require.NoError(t, err)
	assert.True(t, got.IsFull())
}

func TestStore_LoadMissing(t *testing.T) {
	metrics := &pieceset.BasicMetricsCollector{}
	store := New(blobstore.NewMemoryStore(), WithMetricsCollector(metrics))

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.Equal(t, int64(1), metrics.GetStats().LoadErrors)
}

func TestStore_LoadCorrupt(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	store := New(blobs)

	require.NoError(t, blobs.Put(ctx, "bad"+Extension, []byte("not a checkpoint at all")))

	_, err := store.Load(ctx, "bad")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestStore_SaveEmptyName(t *testing.T) {
	store := New(blobstore.NewMemoryStore())
	err := store.Save(context.Background(), "", pieceset.Empty(8))
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestStore_LoadAll(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(7)
	store := New(blobstore.NewLocalStore(t.TempDir()),
		WithConcurrency(3),
		WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes:   1 << 20,
			IOLimitBytesPerSec: 64 << 20,
		})),
	)

	want := make(map[string]pieceset.Set)
	var names []string
	for i := range 10 {
		name := fmt.Sprintf("torrent-%02d", i)
		size := 1 + rng.Intn(5000)
		set := pieceset.MustNew(rng.Payload(size), size)
		require.NoError(t, store.Save(ctx, name, set))
		want[name] = set
		names = append(names, name)
	}

	got, err := store.LoadAll(ctx, names)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for name, set := range want {
		assert.True(t, set.Equal(got[name]), name)
	}

	_, err = store.LoadAll(ctx, append(names, "missing"))
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_LoadAllEmpty(t *testing.T) {
	store := New(blobstore.NewMemoryStore())
	got, err := store.LoadAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ListDelete(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	store := New(blobs)

	require.NoError(t, store.Save(ctx, "b", pieceset.Empty(8)))
	require.NoError(t, store.Save(ctx, "a", pieceset.Empty(8)))
	require.NoError(t, blobs.Put(ctx, "a.tmp", []byte("other")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := New(blobstore.NewLocalStore(t.TempDir()))
	err := store.Save(ctx, "x", pieceset.Empty(8))
	assert.ErrorIs(t, err, context.Canceled)
}
