// Package codec implements the block compression used for persisted piece
// sets.
//
// A block is [UncompressedSize uint32][CompressedSize uint32][Data...], little
// endian. A CompressedSize of 0 means the data is stored raw because
// compression did not pay off. The compression type is not part of the block;
// callers record it (the checkpoint header does).
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores blocks raw.
	None Type = 0
	// LZ4 is fast block compression, good for frequently rewritten sets.
	LZ4 Type = 1
	// ZSTD gives a better ratio, good for archived sets.
	ZSTD Type = 2
)

// ErrCorruptBlock is returned when a block header does not match its data.
var ErrCorruptBlock = errors.New("corrupt block")

// String returns the stable name of the type.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Valid reports whether t is a known compression type.
func (t Type) Valid() bool {
	return t <= ZSTD
}

// ParseType returns the compression type with the given name.
func ParseType(name string) (Type, bool) {
	switch name {
	case "none", "":
		return None, true
	case "lz4":
		return LZ4, true
	case "zstd":
		return ZSTD, true
	default:
		return None, false
	}
}

const headerSize = 8

// Blocks whose compressed form is above this fraction of the input are
// stored raw.
const maxRatio = 0.9

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Compress encodes data as a block using the given algorithm.
func Compress(data []byte, t Type) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unsupported compression type %s", t)
	}

	var compressed []byte
	switch t {
	case LZ4:
		c, err := compressLZ4(data)
		if err != nil {
			return nil, err
		}
		compressed = c
	case ZSTD:
		compressed = compressZSTD(data)
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*maxRatio {
		return frame(data, 0), nil
	}
	return frame(compressed, len(data)), nil
}

// frame prepends the block header. uncompressed == 0 marks a raw block.
func frame(payload []byte, uncompressed int) []byte {
	out := make([]byte, headerSize+len(payload))
	if uncompressed == 0 {
		binary.LittleEndian.PutUint32(out[0:], uint32(len(payload)))
		binary.LittleEndian.PutUint32(out[4:], 0)
	} else {
		binary.LittleEndian.PutUint32(out[0:], uint32(uncompressed))
		binary.LittleEndian.PutUint32(out[4:], uint32(len(payload)))
	}
	copy(out[headerSize:], payload)
	return out
}

func compressLZ4(data []byte) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return buf[:n], nil
}

func compressZSTD(data []byte) []byte {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil)
}

// Decompress decodes a block produced by Compress with the same type.
// Trailing bytes after the block are rejected.
func Decompress(block []byte, t Type) ([]byte, error) {
	return decompress(block, t, math.MaxUint32, false)
}

// DecompressLimit is like Decompress but rejects blocks that claim more than
// maxSize decoded bytes before allocating for them. Use it for blocks read
// from untrusted storage when the expected size is already known.
func DecompressLimit(block []byte, t Type, maxSize int) ([]byte, error) {
	if maxSize < 0 {
		return nil, fmt.Errorf("negative size limit %d", maxSize)
	}
	return decompress(block, t, uint64(maxSize), true)
}

// minDecoderMemory covers the smallest window the zstd encoder emits for
// tiny inputs.
const minDecoderMemory = 64 << 10

func decompress(block []byte, t Type, maxSize uint64, limited bool) ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unsupported compression type %s", t)
	}
	if len(block) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is too small for header", ErrCorruptBlock, len(block))
	}

	uncompressedSize := binary.LittleEndian.Uint32(block[0:])
	compressedSize := binary.LittleEndian.Uint32(block[4:])
	body := block[headerSize:]

	if uint64(uncompressedSize) > maxSize {
		return nil, fmt.Errorf("%w: block claims %d bytes, limit %d", ErrCorruptBlock, uncompressedSize, maxSize)
	}

	if compressedSize == 0 {
		if uint64(len(body)) != uint64(uncompressedSize) {
			return nil, fmt.Errorf("%w: raw size %d, have %d bytes", ErrCorruptBlock, uncompressedSize, len(body))
		}
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	}

	if uint64(len(body)) != uint64(compressedSize) {
		return nil, fmt.Errorf("%w: compressed size %d, have %d bytes", ErrCorruptBlock, compressedSize, len(body))
	}

	result := make([]byte, uncompressedSize)

	switch t {
	case LZ4:
		n, err := lz4.UncompressBlock(body, result)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptBlock, err)
		}
		if uint32(n) != uncompressedSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return result, nil

	case ZSTD:
		var dec *zstd.Decoder
		if limited {
			d, err := zstd.NewReader(nil,
				zstd.WithDecoderConcurrency(1),
				zstd.WithDecoderMaxMemory(max(maxSize, minDecoderMemory)),
			)
			if err != nil {
				return nil, err
			}
			defer d.Close()
			dec = d
		} else {
			dec = getZstdDecoder()
			defer putZstdDecoder(dec)
		}

		decoded, err := dec.DecodeAll(body, result[:0])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptBlock, err)
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorruptBlock)
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("%w: compressed block for type %s", ErrCorruptBlock, t)
	}
}
