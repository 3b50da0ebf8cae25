// Package wire frames piece sets for the BitTorrent peer wire protocol.
//
// Messages are length-prefixed as in BEP 3: a 4-byte big-endian length,
// a 1-byte message id and the payload. A zero length is a keep-alive.
// The bitfield payload is exactly pieceset.Set.Bytes, and parsing goes
// through pieceset.New, so a peer that sends a bitfield of the wrong
// length or with padding bits set is rejected.
//
// BEP 6 have-all and have-none messages map to full and empty sets.
//
//	conn, err := wire.DialUTP(ctx, addr)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
//	if err := conn.WriteMessage(wire.NewBitfield(have)); err != nil {
//	    return err
//	}
//	msg, err := conn.ReadMessage()
//	theirs, err := wire.ParseAvailability(msg, numPieces)
package wire
