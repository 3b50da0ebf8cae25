package pieceset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"
	"math"
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// Set is a fixed-capacity set of piece indices in [0, Cap()).
//
// Membership is stored as a packed bit vector of ceil(Cap()/8) bytes,
// most significant bit first: index 0 is the high bit of the first byte.
// Padding bits in the final byte are always zero.
//
// A Set is an immutable value. Every operation returns a new Set and leaves
// its receiver untouched, so a Set may be shared between goroutines freely.
// The zero value is the empty set of capacity 0.
type Set struct {
	size   int
	pieces []byte
}

// New builds a Set of capacity size from its big-endian wire form.
//
// An empty content yields the all-zero set of the given capacity. Otherwise
// content must hold exactly ceil(size/8) bytes and every padding bit past
// size must be zero; anything else is rejected with ErrOutOfBounds rather
// than masked away. A negative size, or non-empty content for size 0,
// fails with ErrSizeTooSmall.
func New(content []byte, size int) (Set, error) {
	if size < 0 {
		return Set{}, fmt.Errorf("%w: %d", ErrSizeTooSmall, size)
	}

	if len(content) == 0 {
		return Set{size: size, pieces: make([]byte, byteLen(size))}, nil
	}

	if size == 0 {
		return Set{}, fmt.Errorf("%w: %d content bytes for size 0", ErrSizeTooSmall, len(content))
	}

	if want := byteLen(size); len(content) != want {
		return Set{}, fmt.Errorf("%w: %d bytes for %d bits, want %d", ErrOutOfBounds, len(content), size, want)
	}

	if p := padBits(size); p > 0 {
		last := content[len(content)-1]
		if mask := byte(1)<<p - 1; last&mask != 0 {
			return Set{}, fmt.Errorf("%w: padding bits set in final byte %08b", ErrOutOfBounds, last)
		}
	}

	return Set{size: size, pieces: bytes.Clone(content)}, nil
}

// MustNew is like New but panics on invalid input.
// Use it only where the payload has already been validated.
func MustNew(content []byte, size int) Set {
	s, err := New(content, size)
	if err != nil {
		panic(err)
	}
	return s
}

// Empty returns the set of capacity size with no members.
// It panics if size is negative.
func Empty(size int) Set {
	if size < 0 {
		panic(fmt.Errorf("%w: %d", ErrSizeTooSmall, size))
	}
	return Set{size: size, pieces: make([]byte, byteLen(size))}
}

// FromIndices returns a set of capacity size holding the given indices.
func FromIndices(size int, indices ...int) (Set, error) {
	s, err := New(nil, size)
	if err != nil {
		return Set{}, err
	}
	return s.InsertAll(slices.Values(indices))
}

// Cap returns the capacity, i.e. the number of addressable indices.
func (s Set) Cap() int { return s.size }

// Contains reports whether i is a member. Indices outside [0, Cap()) are
// never members.
func (s Set) Contains(i int) bool {
	if i < 0 || i >= s.size {
		return false
	}
	return s.pieces[i>>3]&mask(i) != 0
}

// Insert returns a copy of s with i added.
func (s Set) Insert(i int) (Set, error) {
	if err := s.checkIndex(i); err != nil {
		return Set{}, err
	}
	out := s.clone()
	out.pieces[i>>3] |= mask(i)
	return out, nil
}

// Delete returns a copy of s with i removed. Deleting an absent index is
// a no-op.
func (s Set) Delete(i int) (Set, error) {
	if err := s.checkIndex(i); err != nil {
		return Set{}, err
	}
	out := s.clone()
	out.pieces[i>>3] &^= mask(i)
	return out, nil
}

// InsertAll returns a copy of s with every index yielded by seq added.
// It stops at the first index outside [0, Cap()).
func (s Set) InsertAll(seq iter.Seq[int]) (Set, error) {
	out := s.clone()
	for i := range seq {
		if err := s.checkIndex(i); err != nil {
			return Set{}, err
		}
		out.pieces[i>>3] |= mask(i)
	}
	return out, nil
}

// Fill returns the set of the same capacity with every index present.
func (s Set) Fill() Set {
	out := Set{size: s.size, pieces: make([]byte, len(s.pieces))}
	for i := range out.pieces {
		out.pieces[i] = 0xff
	}
	if n := len(out.pieces); n > 0 {
		out.pieces[n-1] = lastByteMask(s.size)
	}
	return out
}

// IsEmpty reports whether s has no members.
func (s Set) IsEmpty() bool {
	for _, b := range s.pieces {
		if b != 0 {
			return false
		}
	}
	return true
}

// IsFull reports whether every index in [0, Cap()) is a member.
func (s Set) IsFull() bool {
	n := len(s.pieces)
	if n == 0 {
		return true
	}
	for _, b := range s.pieces[:n-1] {
		if b != 0xff {
			return false
		}
	}
	return s.pieces[n-1] == lastByteMask(s.size)
}

// Union returns the members of s or o.
func (s Set) Union(o Set) (Set, error) {
	return s.combine(o, func(a, b byte) byte { return a | b })
}

// Intersection returns the members of both s and o.
func (s Set) Intersection(o Set) (Set, error) {
	return s.combine(o, func(a, b byte) byte { return a & b })
}

// Difference returns the members of s that are not in o.
func (s Set) Difference(o Set) (Set, error) {
	return s.combine(o, func(a, b byte) byte { return a &^ b })
}

// IsSubset reports whether every member of s is also a member of o.
func (s Set) IsSubset(o Set) (bool, error) {
	if err := s.checkCap(o); err != nil {
		return false, err
	}
	for i, b := range s.pieces {
		if b&^o.pieces[i] != 0 {
			return false, nil
		}
	}
	return true, nil
}

// IsDisjoint reports whether s and o share no members.
func (s Set) IsDisjoint(o Set) (bool, error) {
	if err := s.checkCap(o); err != nil {
		return false, err
	}
	for i, b := range s.pieces {
		if b&o.pieces[i] != 0 {
			return false, nil
		}
	}
	return true, nil
}

// Equal reports whether s and o have the same capacity and the same members.
// Sets of different capacity are never equal.
func (s Set) Equal(o Set) bool {
	return s.size == o.size && bytes.Equal(s.pieces, o.pieces)
}

// Count returns the number of members.
func (s Set) Count() int {
	n := 0
	p := s.pieces
	for len(p) >= 8 {
		n += bits.OnesCount64(binary.BigEndian.Uint64(p))
		p = p[8:]
	}
	for _, b := range p {
		n += bits.OnesCount8(b)
	}
	return n
}

// All returns an iterator over the members in ascending order.
func (s Set) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for bi, b := range s.pieces {
			for b != 0 {
				lz := bits.LeadingZeros8(b)
				if !yield(bi<<3 + lz) {
					return
				}
				b &^= 0x80 >> lz
			}
		}
	}
}

// Indices returns the members in ascending order.
func (s Set) Indices() []int {
	out := make([]int, 0, s.Count())
	for i := range s.All() {
		out = append(out, i)
	}
	return out
}

// Bytes returns the big-endian wire form: ceil(Cap()/8) bytes with zero
// padding. New(s.Bytes(), s.Cap()) reproduces s.
func (s Set) Bytes() []byte {
	out := make([]byte, len(s.pieces))
	copy(out, s.pieces)
	return out
}

// MarshalBinary encodes the capacity as a uvarint followed by Bytes().
func (s Set) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, binary.MaxVarintLen64+len(s.pieces))
	buf = binary.AppendUvarint(buf, uint64(s.size))
	return append(buf, s.pieces...), nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (s *Set) UnmarshalBinary(data []byte) error {
	size, n := binary.Uvarint(data)
	if n <= 0 {
		return fmt.Errorf("%w: malformed capacity prefix", ErrOutOfBounds)
	}
	if size > math.MaxInt-7 {
		return fmt.Errorf("%w: capacity %d", ErrOutOfBounds, size)
	}

	payload := data[n:]
	if want := byteLen(int(size)); len(payload) != want {
		return fmt.Errorf("%w: %d bytes for %d bits, want %d", ErrOutOfBounds, len(payload), size, want)
	}

	decoded, err := New(payload, int(size))
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// String renders the members and capacity, e.g. "[0 2 4 6]/8".
func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('[')
	first := true
	for i := range s.All() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(strconv.Itoa(i))
	}
	b.WriteString("]/")
	b.WriteString(strconv.Itoa(s.size))
	return b.String()
}

func (s Set) combine(o Set, op func(a, b byte) byte) (Set, error) {
	if err := s.checkCap(o); err != nil {
		return Set{}, err
	}
	out := Set{size: s.size, pieces: make([]byte, len(s.pieces))}
	for i, b := range s.pieces {
		out.pieces[i] = op(b, o.pieces[i])
	}
	return out, nil
}

func (s Set) clone() Set {
	return Set{size: s.size, pieces: bytes.Clone(s.pieces)}
}

func (s Set) checkIndex(i int) error {
	if i < 0 || i >= s.size {
		return &ErrIndexOutOfRange{Index: i, Cap: s.size}
	}
	return nil
}

func (s Set) checkCap(o Set) error {
	if s.size != o.size {
		return &ErrCapacityMismatch{Left: s.size, Right: o.size}
	}
	return nil
}

// byteLen is the storage width in bytes for size bits.
func byteLen(size int) int { return (size + 7) / 8 }

// padBits is the number of unused low bits in the final storage byte.
func padBits(size int) int { return byteLen(size)*8 - size }

// lastByteMask has a 1 for every meaningful bit of the final storage byte.
func lastByteMask(size int) byte { return 0xff << padBits(size) }

func mask(i int) byte { return 0x80 >> (i & 7) }
