package testutil

import (
	"math/rand"
	"slices"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	_, _ = r.rand.Read(b)
	return b
}

// Payload returns a random wire payload for size bits: ceil(size/8) bytes
// with every padding bit cleared.
func (r *RNG) Payload(size int) []byte {
	b := r.Bytes((size + 7) / 8)
	if pad := len(b)*8 - size; pad > 0 {
		b[len(b)-1] &= 0xff << pad
	}
	return b
}

// Indices returns n distinct pseudo-random indices in [0,size), sorted.
// n is clamped to size.
func (r *RNG) Indices(size, n int) []int {
	n = min(n, size)
	r.mu.Lock()
	perm := r.rand.Perm(size)
	r.mu.Unlock()
	out := perm[:n]
	slices.Sort(out)
	return out
}

// ReferenceIndices scans payload bit by bit, most significant bit first,
// and returns the indices in [0,size) whose bit is set.
func ReferenceIndices(payload []byte, size int) []int {
	out := []int{}
	for i := 0; i < size; i++ {
		if payload[i/8]>>(7-i%8)&1 == 1 {
			out = append(out, i)
		}
	}
	return out
}

// ReferencePayload is the inverse of ReferenceIndices.
func ReferencePayload(indices []int, size int) []byte {
	b := make([]byte, (size+7)/8)
	for _, i := range indices {
		b[i/8] |= 1 << (7 - i%8)
	}
	return b
}

// Union returns the sorted union of a and b.
func Union(a, b []int) []int {
	m := toMap(a)
	for _, v := range b {
		m[v] = struct{}{}
	}
	return fromMap(m)
}

// Intersection returns the sorted intersection of a and b.
func Intersection(a, b []int) []int {
	mb := toMap(b)
	m := make(map[int]struct{})
	for _, v := range a {
		if _, ok := mb[v]; ok {
			m[v] = struct{}{}
		}
	}
	return fromMap(m)
}

// Difference returns the sorted elements of a not in b.
func Difference(a, b []int) []int {
	mb := toMap(b)
	m := make(map[int]struct{})
	for _, v := range a {
		if _, ok := mb[v]; !ok {
			m[v] = struct{}{}
		}
	}
	return fromMap(m)
}

// Subset reports whether every element of a is in b.
func Subset(a, b []int) bool {
	return len(Difference(a, b)) == 0
}

// Disjoint reports whether a and b share no element.
func Disjoint(a, b []int) bool {
	return len(Intersection(a, b)) == 0
}

func toMap(s []int) map[int]struct{} {
	m := make(map[int]struct{}, len(s))
	for _, v := range s {
		m[v] = struct{}{}
	}
	return m
}

func fromMap(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
