package messages

import (
	"encoding/binary"
	"fmt"

	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// Submessage is one decoded submessage header with its raw body.
type Submessage struct {
	ID    SubmessageID
	Flags byte
	Body  []byte
}

// Len returns the encoded size including the submessage header.
func (s Submessage) Len() int {
	return SubmessageHeaderSize + len(s.Body)
}

// Split walks the submessages of a complete message. A zero
// octetsToNextHeader on a non-INFO_TS/PAD submessage extends it to the
// end of the message.
func Split(msg []byte) (Header, []Submessage, error) {
	h, err := ParseHeader(msg)
	if err != nil {
		return h, nil, err
	}

	var out []Submessage
	rest := msg[HeaderSize:]
	for len(rest) > 0 {
		if len(rest) < SubmessageHeaderSize {
			return h, out, fmt.Errorf("%w: %d trailing bytes", ErrInvalidSubmessage, len(rest))
		}
		id, flags := SubmessageID(rest[0]), rest[1]
		var n int
		if flags&FlagEndianness != 0 {
			n = int(binary.LittleEndian.Uint16(rest[2:4]))
		} else {
			n = int(binary.BigEndian.Uint16(rest[2:4]))
		}
		rest = rest[SubmessageHeaderSize:]
		if n == 0 && id != IDInfoTS && id != IDPad {
			n = len(rest)
		}
		if n > len(rest) {
			return h, out, fmt.Errorf("%w: %s claims %d bytes, %d left", ErrInvalidSubmessage, id, n, len(rest))
		}
		out = append(out, Submessage{ID: id, Flags: flags, Body: rest[:n]})
		rest = rest[n:]
	}
	return h, out, nil
}

// InfoDstPrefix decodes the body of an INFO_DST submessage.
func InfoDstPrefix(s Submessage) (rtps.GuidPrefix, error) {
	var p rtps.GuidPrefix
	if s.ID != IDInfoDst || len(s.Body) != rtps.GuidPrefixSize {
		return p, fmt.Errorf("%w: not an INFO_DST", ErrInvalidSubmessage)
	}
	copy(p[:], s.Body)
	return p, nil
}

// WriterSequenceNumber decodes the writer sequence number of a DATA or
// DATA_FRAG submessage.
func WriterSequenceNumber(s Submessage) (rtps.SequenceNumber, error) {
	if (s.ID != IDData && s.ID != IDDataFrag) || len(s.Body) < 20 || s.Flags&FlagEndianness == 0 {
		return 0, fmt.Errorf("%w: not a little-endian DATA", ErrInvalidSubmessage)
	}
	high := int32(binary.LittleEndian.Uint32(s.Body[12:16]))
	low := binary.LittleEndian.Uint32(s.Body[16:20])
	return rtps.NewSequenceNumber(high, low), nil
}
