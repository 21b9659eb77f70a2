package messages

import (
	"bytes"
	"fmt"

	"github.com/bft-labs/rtpsgroup/pkg/cdr"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// HeaderSize is the size of the RTPS message header.
const HeaderSize = 20

var protocolRTPS = []byte("RTPS")

// Header is the fixed prefix of every RTPS message.
type Header struct {
	Version rtps.ProtocolVersion
	Vendor  rtps.VendorID
	Prefix  rtps.GuidPrefix
}

// AddHeader writes h. It fails without writing if fewer than HeaderSize
// bytes are free.
func AddHeader(b *cdr.Buffer, h Header) error {
	if b.Free() < HeaderSize {
		return fmt.Errorf("write header: %w", cdr.ErrBufferFull)
	}
	_, _ = b.Write(protocolRTPS)
	_ = b.WriteByte(h.Version.Major)
	_ = b.WriteByte(h.Version.Minor)
	_, _ = b.Write(h.Vendor[:])
	_, _ = b.Write(h.Prefix[:])
	return nil
}

// ParseHeader decodes the header at the start of msg.
func ParseHeader(msg []byte) (Header, error) {
	var h Header
	if len(msg) < HeaderSize || !bytes.Equal(msg[:4], protocolRTPS) {
		return h, fmt.Errorf("%w: bad message header", ErrInvalidSubmessage)
	}
	h.Version = rtps.ProtocolVersion{Major: msg[4], Minor: msg[5]}
	copy(h.Vendor[:], msg[6:8])
	copy(h.Prefix[:], msg[8:HeaderSize])
	return h, nil
}
