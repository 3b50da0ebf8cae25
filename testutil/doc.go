// Package testutil provides testing utilities for pieceset.
//
// This package is intended for use in tests and benchmarks only.
// It generates random wire payloads with valid padding and provides a
// bit-by-bit reference model the packed implementation is checked against.
//
// # Random Payloads
//
//	rng := testutil.NewRNG(seed)
//	payload := rng.Payload(1024) // 128 bytes, padding bits zero
//
// # Reference Model
//
//	want := testutil.ReferenceIndices(payload, 1024)
//	union := testutil.Union(want, other)
package testutil
