package checkpoint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/hupe1980/pieceset"
	"github.com/hupe1980/pieceset/codec"
)

// ErrCorrupt is returned when a checkpoint record cannot be decoded.
var ErrCorrupt = errors.New("corrupt checkpoint")

const (
	// Version is the record format version written by Encode.
	Version = 1

	headerSize = 20
)

var magic = [4]byte{'P', 'S', 'E', 'T'}

// Encode serializes s as a checkpoint record, compressing its wire form
// with the given codec.
func Encode(s pieceset.Set, c codec.Type) ([]byte, error) {
	payload := s.Bytes()

	block, err := codec.Compress(payload, c)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize+len(block))
	copy(out[0:4], magic[:])
	out[4] = Version
	out[5] = byte(c)
	// out[6:8] reserved
	binary.LittleEndian.PutUint64(out[8:], uint64(s.Cap()))
	binary.LittleEndian.PutUint32(out[16:], crc32.ChecksumIEEE(payload))
	copy(out[headerSize:], block)
	return out, nil
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (pieceset.Set, error) {
	if len(data) < headerSize {
		return pieceset.Set{}, fmt.Errorf("%w: %d bytes is too small for header", ErrCorrupt, len(data))
	}
	if [4]byte(data[0:4]) != magic {
		return pieceset.Set{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[0:4])
	}
	if data[4] != Version {
		return pieceset.Set{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data[4])
	}

	c := codec.Type(data[5])
	if !c.Valid() {
		return pieceset.Set{}, fmt.Errorf("%w: unknown codec %d", ErrCorrupt, data[5])
	}

	capacity := binary.LittleEndian.Uint64(data[8:])
	if capacity > math.MaxUint32*8 {
		return pieceset.Set{}, fmt.Errorf("%w: capacity %d", ErrCorrupt, capacity)
	}
	size := int(capacity)
	want := (size + 7) / 8

	payload, err := codec.DecompressLimit(data[headerSize:], c, want)
	if err != nil {
		return pieceset.Set{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if len(payload) != want {
		return pieceset.Set{}, fmt.Errorf("%w: %d payload bytes for capacity %d, want %d", ErrCorrupt, len(payload), size, want)
	}
	if sum := binary.LittleEndian.Uint32(data[16:]); crc32.ChecksumIEEE(payload) != sum {
		return pieceset.Set{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	s, err := pieceset.New(payload, size)
	if err != nil {
		return pieceset.Set{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return s, nil
}
