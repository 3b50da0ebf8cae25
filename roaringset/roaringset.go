package roaringset

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/pieceset"
)

// ErrCapacityTooLarge is returned for sets whose indices do not fit in
// the 32-bit domain of a roaring bitmap.
var ErrCapacityTooLarge = errors.New("capacity exceeds 32-bit index range")

// ToBitmap returns a roaring bitmap holding the members of s.
func ToBitmap(s pieceset.Set) (*roaring.Bitmap, error) {
	if uint64(s.Cap()) > math.MaxUint32+1 {
		return nil, fmt.Errorf("%w: %d", ErrCapacityTooLarge, s.Cap())
	}

	members := make([]uint32, 0, s.Count())
	for i := range s.All() {
		members = append(members, uint32(i))
	}

	bm := roaring.New()
	bm.AddMany(members)
	bm.RunOptimize()
	return bm, nil
}

// FromBitmap returns the set of capacity size holding the members of bm.
// A member at or above size fails with *pieceset.ErrIndexOutOfRange.
func FromBitmap(bm *roaring.Bitmap, size int) (pieceset.Set, error) {
	s, err := pieceset.New(nil, size)
	if err != nil {
		return pieceset.Set{}, err
	}
	if bm == nil || bm.IsEmpty() {
		return s, nil
	}
	if maxIndex := int64(bm.Maximum()); maxIndex >= int64(size) {
		return pieceset.Set{}, &pieceset.ErrIndexOutOfRange{Index: int(maxIndex), Cap: size}
	}
	return s.InsertAll(values(bm))
}

// ToBitSet returns a bitset of length Cap() holding the members of s.
func ToBitSet(s pieceset.Set) *bitset.BitSet {
	b := bitset.New(uint(s.Cap()))
	for i := range s.All() {
		b.Set(uint(i))
	}
	return b
}

// FromBitSet returns the set of capacity size holding the members of b.
// A member at or above size fails with *pieceset.ErrIndexOutOfRange.
func FromBitSet(b *bitset.BitSet, size int) (pieceset.Set, error) {
	if b == nil {
		return pieceset.New(nil, size)
	}
	return FromBitmap(roaring.FromBitSet(b), size)
}

func values(bm *roaring.Bitmap) iter.Seq[int] {
	return func(yield func(int) bool) {
		it := bm.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}
