// Package checkpoint persists piece sets as durable "resume data", so a
// download can restart knowing which pieces it already has.
//
// # Record Format
//
// Each checkpoint is one blob, little endian:
//
//	magic "PSET" (4) | version (1) | codec (1) | reserved (2) |
//	capacity (8) | crc32 of the wire bytes (4) | block
//
// block is the set's wire form (pieceset.Set.Bytes) compressed by package
// codec. Decoding rebuilds the set through pieceset.New, so a record whose
// padding bits are set is rejected like any other corrupt input.
//
// # Usage
//
//	store := checkpoint.New(blobstore.NewLocalStore("./resume"),
//	    checkpoint.WithCompression(codec.ZSTD),
//	    checkpoint.WithLogger(pieceset.NewTextLogger(slog.LevelInfo)),
//	)
//
//	if err := store.Save(ctx, infoHash, have); err != nil {
//	    return err
//	}
//	have, err := store.Load(ctx, infoHash)
package checkpoint
