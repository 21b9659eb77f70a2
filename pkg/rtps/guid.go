package rtps

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GuidPrefixSize is the wire size of a GUID prefix.
const GuidPrefixSize = 12

// GuidPrefix identifies a participant.
type GuidPrefix [GuidPrefixSize]byte

// GuidPrefixUnknown is the prefix addressing every participant.
var GuidPrefixUnknown GuidPrefix

// VendorID identifies the implementation that produced a message.
type VendorID [2]byte

// VendorIDUnknown is used when no vendor id has been assigned.
var VendorIDUnknown VendorID

// ProtocolVersion is the RTPS protocol version carried in every header.
type ProtocolVersion struct {
	Major byte
	Minor byte
}

// ProtocolVersion22 is the version written by this implementation.
var ProtocolVersion22 = ProtocolVersion{Major: 2, Minor: 2}

// NewGuidPrefix returns a random prefix whose first two bytes carry the
// vendor id, as RTPS recommends.
func NewGuidPrefix(vendor VendorID) GuidPrefix {
	u := uuid.New()
	var p GuidPrefix
	p[0], p[1] = vendor[0], vendor[1]
	copy(p[2:], u[:GuidPrefixSize-2])
	return p
}

// ParseGuidPrefix parses 24 hex digits, optionally separated by dots.
func ParseGuidPrefix(s string) (GuidPrefix, error) {
	var p GuidPrefix
	raw, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(s), ".", ""))
	if err != nil {
		return p, fmt.Errorf("parse guid prefix %q: %w", s, err)
	}
	if len(raw) != GuidPrefixSize {
		return p, fmt.Errorf("parse guid prefix %q: want %d bytes, got %d", s, GuidPrefixSize, len(raw))
	}
	copy(p[:], raw)
	return p, nil
}

// IsUnknown reports whether p is GuidPrefixUnknown.
func (p GuidPrefix) IsUnknown() bool {
	return p == GuidPrefixUnknown
}

func (p GuidPrefix) String() string {
	var sb strings.Builder
	for i, c := range p {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(hex.EncodeToString([]byte{c}))
	}
	return sb.String()
}

// EntityID identifies an endpoint within a participant.
type EntityID [4]byte

// EntityIDUnknown addresses every endpoint of the destination participant.
var EntityIDUnknown EntityID

// Entity kinds occupying the last byte of a user-defined EntityID.
const (
	EntityKindWriterWithKey byte = 0x02
	EntityKindWriterNoKey   byte = 0x03
	EntityKindReaderNoKey   byte = 0x04
	EntityKindReaderWithKey byte = 0x07
)

// NewEntityID builds a user-defined entity id from a 24-bit key and a kind.
func NewEntityID(key uint32, kind byte) EntityID {
	return EntityID{byte(key >> 16), byte(key >> 8), byte(key), kind}
}

// IsWriter reports whether the entity kind denotes a writer.
func (e EntityID) IsWriter() bool {
	k := e[3] & 0x0f
	return k == 0x02 || k == 0x03
}

func (e EntityID) String() string {
	return hex.EncodeToString(e[:])
}

// GUID globally identifies an endpoint.
type GUID struct {
	Prefix GuidPrefix
	Entity EntityID
}

func (g GUID) String() string {
	return g.Prefix.String() + "|" + g.Entity.String()
}
