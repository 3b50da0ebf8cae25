// Package roaringset converts piece sets to and from compressed roaring
// bitmaps and bits-and-blooms bitsets, for callers that index pieces with
// those libraries. The dense pieceset representation is unchanged; these
// are copies in both directions.
package roaringset
