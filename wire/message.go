package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/pieceset"
)

// MessageID identifies a peer wire message.
type MessageID uint8

const (
	MsgChoke         MessageID = 0
	MsgUnchoke       MessageID = 1
	MsgInterested    MessageID = 2
	MsgNotInterested MessageID = 3
	MsgHave          MessageID = 4
	MsgBitfield      MessageID = 5
	MsgRequest       MessageID = 6
	MsgPiece         MessageID = 7
	MsgCancel        MessageID = 8
	// BEP 6 fast extension
	MsgHaveAll  MessageID = 0x0E
	MsgHaveNone MessageID = 0x0F
)

// MaxMessageLength bounds the length prefix accepted by ReadMessage.
// It fits a 16 KiB block plus header and a bitfield for 1<<20 pieces.
const MaxMessageLength = 1<<17 + 13

var (
	// ErrMessageTooLarge is returned when a length prefix exceeds the limit.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrUnexpectedMessage is returned when parsing a message of the wrong type.
	ErrUnexpectedMessage = errors.New("unexpected message")
	// ErrMalformed is returned for a payload of the wrong shape.
	ErrMalformed = errors.New("malformed message")
)

func (id MessageID) String() string {
	switch id {
	case MsgChoke:
		return "choke"
	case MsgUnchoke:
		return "unchoke"
	case MsgInterested:
		return "interested"
	case MsgNotInterested:
		return "not interested"
	case MsgHave:
		return "have"
	case MsgBitfield:
		return "bitfield"
	case MsgRequest:
		return "request"
	case MsgPiece:
		return "piece"
	case MsgCancel:
		return "cancel"
	case MsgHaveAll:
		return "have all"
	case MsgHaveNone:
		return "have none"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(id))
	}
}

// Message is a single peer wire message. A nil *Message is a keep-alive.
type Message struct {
	ID      MessageID
	Payload []byte
}

// Serialize returns the length-prefixed encoding of m.
func (m *Message) Serialize() []byte {
	if m == nil {
		return make([]byte, 4)
	}
	buf := make([]byte, 4+1+len(m.Payload))
	binary.BigEndian.PutUint32(buf, uint32(1+len(m.Payload)))
	buf[4] = byte(m.ID)
	copy(buf[5:], m.Payload)
	return buf
}

func (m *Message) String() string {
	if m == nil {
		return "keep-alive"
	}
	return fmt.Sprintf("%s [%d bytes]", m.ID, len(m.Payload))
}

// ReadMessage reads one message from r. It returns a nil message for a
// keep-alive.
func ReadMessage(r io.Reader) (*Message, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length == 0 {
		return nil, nil
	}
	if length > MaxMessageLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return &Message{ID: MessageID(buf[0]), Payload: buf[1:]}, nil
}

// NewBitfield returns a bitfield message advertising s.
func NewBitfield(s pieceset.Set) *Message {
	return &Message{ID: MsgBitfield, Payload: s.Bytes()}
}

// NewHave returns a have message for piece i. The index must fit the
// unsigned 32-bit field of the message.
func NewHave(i int) (*Message, error) {
	if i < 0 || uint64(i) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: have index %d", pieceset.ErrOutOfBounds, i)
	}
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(i))
	return &Message{ID: MsgHave, Payload: payload}, nil
}

// NewAvailability returns the most compact message advertising s:
// have-all for a full set, have-none for an empty one, a bitfield otherwise.
// Only peers that negotiated the fast extension understand the first two.
func NewAvailability(s pieceset.Set) *Message {
	switch {
	case s.Cap() > 0 && s.IsFull():
		return &Message{ID: MsgHaveAll}
	case s.IsEmpty():
		return &Message{ID: MsgHaveNone}
	default:
		return NewBitfield(s)
	}
}

// ParseBitfield decodes a bitfield message for a torrent of numPieces.
func ParseBitfield(msg *Message, numPieces int) (pieceset.Set, error) {
	if err := expect(msg, MsgBitfield); err != nil {
		return pieceset.Set{}, err
	}
	if want := (numPieces + 7) / 8; len(msg.Payload) != want {
		return pieceset.Set{}, fmt.Errorf("%w: bitfield of %d bytes for %d pieces, want %d", pieceset.ErrOutOfBounds, len(msg.Payload), numPieces, want)
	}
	return pieceset.New(msg.Payload, numPieces)
}

// ParseHave returns the piece index announced by a have message.
func ParseHave(msg *Message) (int, error) {
	if err := expect(msg, MsgHave); err != nil {
		return 0, err
	}
	if len(msg.Payload) != 4 {
		return 0, fmt.Errorf("%w: have payload of %d bytes", ErrMalformed, len(msg.Payload))
	}
	return int(binary.BigEndian.Uint32(msg.Payload)), nil
}

// ParseAvailability decodes any message that advertises a peer's full
// piece set: bitfield, have-all or have-none.
func ParseAvailability(msg *Message, numPieces int) (pieceset.Set, error) {
	if msg == nil {
		return pieceset.Set{}, fmt.Errorf("%w: keep-alive", ErrUnexpectedMessage)
	}
	switch msg.ID {
	case MsgBitfield:
		return ParseBitfield(msg, numPieces)
	case MsgHaveAll, MsgHaveNone:
		if len(msg.Payload) != 0 {
			return pieceset.Set{}, fmt.Errorf("%w: %s with %d byte payload", ErrMalformed, msg.ID, len(msg.Payload))
		}
		s, err := pieceset.New(nil, numPieces)
		if err != nil {
			return pieceset.Set{}, err
		}
		if msg.ID == MsgHaveAll {
			s = s.Fill()
		}
		return s, nil
	default:
		return pieceset.Set{}, fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.ID)
	}
}

func expect(msg *Message, id MessageID) error {
	if msg == nil {
		return fmt.Errorf("%w: expected %s, got keep-alive", ErrUnexpectedMessage, id)
	}
	if msg.ID != id {
		return fmt.Errorf("%w: expected %s, got %s", ErrUnexpectedMessage, id, msg.ID)
	}
	return nil
}
