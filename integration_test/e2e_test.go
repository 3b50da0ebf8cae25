package pieceset_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hupe1980/pieceset"
	"github.com/hupe1980/pieceset/blobstore"
	"github.com/hupe1980/pieceset/checkpoint"
	"github.com/hupe1980/pieceset/codec"
	"github.com/hupe1980/pieceset/swarm"
	"github.com/hupe1980/pieceset/testutil"
	"github.com/hupe1980/pieceset/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_ResumeDownload walks a leecher through a download: it resumes
// from a checkpoint, learns a seeder's pieces over the wire, fetches the
// rarest missing ones, checkpoints, and resumes again.
func TestE2E_ResumeDownload(t *testing.T) {
	ctx := context.Background()
	const numPieces = 1000
	rng := testutil.NewRNG(99)

	metrics := &pieceset.BasicMetricsCollector{}
	store := checkpoint.New(blobstore.NewLocalStore(t.TempDir()),
		checkpoint.WithCompression(codec.ZSTD),
		checkpoint.WithMetricsCollector(metrics),
	)

	// previous session downloaded a few pieces
	initial, err := pieceset.FromIndices(numPieces, rng.Indices(numPieces, 100)...)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "torrent", initial))

	resumed, err := store.Load(ctx, "torrent")
	require.NoError(t, err)
	require.True(t, initial.Equal(resumed))

	tr := swarm.NewTracker(numPieces, swarm.WithMetricsCollector(metrics))
	require.NoError(t, tr.SetLocal(resumed))

	// seeder and a partial peer announce themselves
	seedConn, leechConn := net.Pipe()
	seeder := wire.NewConn(seedConn, wire.WithTimeout(5*time.Second))
	leecher := wire.NewConn(leechConn, wire.WithTimeout(5*time.Second))
	defer func() { _ = seeder.Close() }()
	defer func() { _ = leecher.Close() }()

	partial, err := pieceset.FromIndices(numPieces, rng.Indices(numPieces, 300)...)
	require.NoError(t, err)

	haveMsg, err := wire.NewHave(0)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		if err := seeder.WriteMessage(wire.NewAvailability(pieceset.Empty(numPieces).Fill())); err != nil {
			errc <- err
			return
		}
		if err := seeder.WriteMessage(wire.NewBitfield(partial)); err != nil {
			errc <- err
			return
		}
		errc <- seeder.WriteMessage(haveMsg)
	}()

	msg, err := leecher.ReadMessage()
	require.NoError(t, err)
	seed, err := wire.ParseAvailability(msg, numPieces)
	require.NoError(t, err)
	require.NoError(t, tr.AddPeer(ctx, "seed", seed))

	msg, err = leecher.ReadMessage()
	require.NoError(t, err)
	part, err := wire.ParseAvailability(msg, numPieces)
	require.NoError(t, err)
	require.NoError(t, tr.AddPeer(ctx, "partial", part))

	msg, err = leecher.ReadMessage()
	require.NoError(t, err)
	i, err := wire.ParseHave(msg)
	require.NoError(t, err)
	require.NoError(t, tr.PeerHave(ctx, "partial", i))
	require.NoError(t, <-errc)

	assert.True(t, tr.IsInteresting("seed"))

	// rarest pieces are held only by the seeder
	rarest := tr.Rarest(50)
	require.Len(t, rarest, 50)
	for _, p := range rarest {
		assert.Equal(t, 1, tr.Availability()[p])
		require.NoError(t, tr.MarkHave(p))
	}

	require.NoError(t, store.Save(ctx, "torrent", tr.Local()))
	again, err := store.Load(ctx, "torrent")
	require.NoError(t, err)
	assert.Equal(t, resumed.Count()+50, again.Count())

	sub, err := resumed.IsSubset(again)
	require.NoError(t, err)
	assert.True(t, sub)

	// finish from the seeder alone
	for _, p := range tr.Rarest(-1) {
		require.NoError(t, tr.MarkHave(p))
	}
	assert.True(t, tr.Local().IsFull())
	assert.False(t, tr.IsInteresting("seed"))

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.SaveCount)
	assert.Equal(t, int64(2), stats.LoadCount)
	assert.Equal(t, int64(3), stats.PeerUpdates)
	assert.Zero(t, stats.PeerUpdateErrors)
}
