// Package swarm tracks which pieces the local client and each connected
// peer hold, and derives what to request next.
//
// A Tracker owns the mutable "current" sets. Every accessor returns an
// immutable pieceset.Set snapshot, so callers never share state with the
// tracker or with each other.
//
//	tr := swarm.NewTracker(info.NumPieces())
//	_ = tr.AddPeer(peerID, theirBitfield)
//	for _, i := range tr.Rarest(5) {
//	    // request piece i
//	}
package swarm
