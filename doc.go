// Package pieceset provides a fixed-capacity set of piece indices backed by
// a packed bit vector, with a lossless mapping to and from the big-endian
// byte string peers exchange on the wire.
//
// # Quick Start
//
//	have, err := pieceset.New(payload, numPieces) // validates length and padding
//	if err != nil {
//	    return err // malformed peer input
//	}
//	want, _ := have.Fill().Difference(have)
//	for i := range want.All() {
//	    // request piece i
//	}
//	msg := have.Bytes() // ceil(numPieces/8) bytes, zero padding
//
// # Representation
//
// Index 0 is the most significant bit of the first byte. When the capacity
// is not a multiple of 8 the unused low bits of the last byte are padding;
// New rejects payloads with nonzero padding and every operation keeps it
// zero, so Bytes always round-trips.
//
// # Values
//
// A Set is immutable. Insert, Delete, Union and friends return new sets,
// which makes a Set safe to share between goroutines without locking.
// Callers that need a shared, mutable "current set" own the serialization
// of writes (see the swarm package for one such owner).
//
// # Errors
//
// Construction fails with ErrSizeTooSmall or ErrOutOfBounds. Mutations with
// an index outside [0, Cap) fail with *ErrIndexOutOfRange, and binary
// operations between sets of different capacity fail with
// *ErrCapacityMismatch. Nothing is silently wrapped or truncated.
//
// # Subpackages
//
//   - wire: BitTorrent peer-wire framing (bitfield, have, have-all, have-none)
//   - swarm: piece availability across connected peers
//   - checkpoint: durable, compressed set snapshots on a blobstore
//   - blobstore: memory, local, S3 (+ DynamoDB commits) and MinIO backends
//   - roaringset: conversion to and from roaring bitmaps
//   - codec: LZ4 and zstd block compression for checkpoints
//   - resource: memory, worker and IO budgets
//   - metrics/prometheus: a MetricsCollector backed by Prometheus
package pieceset
