package swarm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/pieceset"
)

// ErrUnknownPeer is returned for operations on a peer that was never added
// or has been removed.
var ErrUnknownPeer = errors.New("unknown peer")

type options struct {
	logger           *pieceset.Logger
	metricsCollector pieceset.MetricsCollector
}

// Option configures a Tracker.
type Option func(*options)

// WithLogger configures structured logging of peer updates.
func WithLogger(logger *pieceset.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsCollector records every peer update.
func WithMetricsCollector(mc pieceset.MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// Tracker holds the local piece set and the sets advertised by peers.
// All methods are safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	local pieceset.Set
	peers map[string]pieceset.Set
	// avail[i] is the number of peers holding piece i.
	avail []int

	numPieces int
	logger    *pieceset.Logger
	metrics   pieceset.MetricsCollector
}

// NewTracker returns a tracker for a torrent of numPieces pieces with an
// empty local set. It panics if numPieces is negative.
func NewTracker(numPieces int, optFns ...Option) *Tracker {
	o := options{}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = pieceset.NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = pieceset.NoopMetricsCollector{}
	}

	return &Tracker{
		local:     pieceset.Empty(numPieces),
		peers:     make(map[string]pieceset.Set),
		avail:     make([]int, numPieces),
		numPieces: numPieces,
		logger:    o.logger.WithCap(numPieces),
		metrics:   o.metricsCollector,
	}
}

// NumPieces returns the capacity shared by every tracked set.
func (t *Tracker) NumPieces() int { return t.numPieces }

// Local returns a snapshot of the local set.
func (t *Tracker) Local() pieceset.Set {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.local
}

// SetLocal replaces the local set, e.g. after loading a checkpoint.
func (t *Tracker) SetLocal(s pieceset.Set) error {
	if err := t.checkCap(s); err != nil {
		return err
	}
	t.mu.Lock()
	t.local = s
	t.mu.Unlock()
	return nil
}

// MarkHave records that piece i was downloaded and verified locally.
func (t *Tracker) MarkHave(i int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, err := t.local.Insert(i)
	if err != nil {
		return err
	}
	t.local = next
	return nil
}

// AddPeer registers a peer with its advertised set, replacing any set
// previously recorded for the same id.
func (t *Tracker) AddPeer(ctx context.Context, id string, s pieceset.Set) (err error) {
	defer func() { t.recordPeerUpdate(ctx, id, s.Count(), err) }()

	if err := t.checkCap(s); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.peers[id]; ok {
		t.adjust(old, -1)
	}
	t.peers[id] = s
	t.adjust(s, 1)
	return nil
}

// PeerHave records a peer's "have" announcement for piece i.
func (t *Tracker) PeerHave(ctx context.Context, id string, i int) (err error) {
	pieces := 0
	defer func() { t.recordPeerUpdate(ctx, id, pieces, err) }()

	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.peers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, id)
	}
	next, err := cur.Insert(i)
	if err != nil {
		return err
	}
	if !cur.Contains(i) {
		t.avail[i]++
	}
	t.peers[id] = next
	pieces = next.Count()
	return nil
}

// RemovePeer forgets a disconnected peer. Removing an unknown peer is a
// no-op.
func (t *Tracker) RemovePeer(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.peers[id]; ok {
		t.adjust(old, -1)
		delete(t.peers, id)
	}
}

// Peer returns a snapshot of the set advertised by id.
func (t *Tracker) Peer(id string) (pieceset.Set, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.peers[id]
	return s, ok
}

// Peers returns the ids of all tracked peers, sorted.
func (t *Tracker) Peers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.peers))
	for id := range t.peers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Interesting returns the pieces id has that the local client lacks.
func (t *Tracker) Interesting(id string) (pieceset.Set, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.peers[id]
	if !ok {
		return pieceset.Set{}, fmt.Errorf("%w: %s", ErrUnknownPeer, id)
	}
	return s.Difference(t.local)
}

// IsInteresting reports whether id has any piece the local client lacks.
func (t *Tracker) IsInteresting(id string) bool {
	s, err := t.Interesting(id)
	return err == nil && !s.IsEmpty()
}

// Availability returns, for every piece, the number of peers holding it.
func (t *Tracker) Availability() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.avail)
}

// Rarest returns up to n pieces missing locally that at least one peer
// holds, ordered by ascending availability and then by index. A negative n
// returns them all.
func (t *Tracker) Rarest(n int) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	missing := t.local.Fill()
	missing, _ = missing.Difference(t.local)

	out := []int{}
	for i := range missing.All() {
		if t.avail[i] > 0 {
			out = append(out, i)
		}
	}
	slices.SortStableFunc(out, func(a, b int) int {
		return t.avail[a] - t.avail[b]
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// adjust adds delta to the availability of every member of s.
// Callers hold t.mu.
func (t *Tracker) adjust(s pieceset.Set, delta int) {
	for i := range s.All() {
		t.avail[i] += delta
	}
}

func (t *Tracker) checkCap(s pieceset.Set) error {
	if s.Cap() != t.numPieces {
		return &pieceset.ErrCapacityMismatch{Left: t.numPieces, Right: s.Cap()}
	}
	return nil
}

func (t *Tracker) recordPeerUpdate(ctx context.Context, id string, pieces int, err error) {
	t.metrics.RecordPeerUpdate(err)
	t.logger.LogPeerUpdate(ctx, id, pieces, err)
}
