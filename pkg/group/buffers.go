package group

import (
	"fmt"
	"sync/atomic"

	"github.com/bft-labs/rtpsgroup/pkg/cdr"
	"github.com/bft-labs/rtpsgroup/pkg/messages"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// Participant identifies the local participant whose header starts every
// message.
type Participant struct {
	Prefix  rtps.GuidPrefix
	Vendor  rtps.VendorID
	Version rtps.ProtocolVersion
}

func (p Participant) header() messages.Header {
	v := p.Version
	if v == (rtps.ProtocolVersion{}) {
		v = rtps.ProtocolVersion22
	}
	return messages.Header{Version: v, Vendor: p.Vendor, Prefix: p.Prefix}
}

// Buffers is the storage a session assembles into: a scratch buffer for
// the submessage being composed, the accumulator holding the message being
// built, and an encryption scratch when submessages are protected.
//
// Buffers are allocated once and reused by many sessions, one at a time.
type Buffers struct {
	submessage *cdr.Buffer
	full       *cdr.Buffer
	encrypt    *cdr.Buffer

	busy atomic.Bool
}

// NewBuffers allocates buffers of the given capacity and primes the
// accumulator with the header for p. secure adds the encryption scratch.
func NewBuffers(p Participant, capacity int, secure bool) (*Buffers, error) {
	if capacity < messages.HeaderSize+messages.SubmessageHeaderSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	b := &Buffers{
		submessage: cdr.New(capacity),
		full:       cdr.New(capacity),
	}
	if secure {
		b.encrypt = cdr.New(capacity)
	}
	b.prime(p.header())
	return b, nil
}

// Capacity returns the largest message the buffers can hold.
func (b *Buffers) Capacity() int {
	return b.full.Capacity()
}

// Secure reports whether an encryption scratch was allocated.
func (b *Buffers) Secure() bool {
	return b.encrypt != nil
}

// prime rewrites the accumulator so it holds only h.
func (b *Buffers) prime(h messages.Header) {
	b.full.Reset()
	// Capacity was checked in NewBuffers.
	_ = messages.AddHeader(b.full, h)
}

// resetToHeader drops everything after the header.
func (b *Buffers) resetToHeader() {
	b.full.Truncate(messages.HeaderSize)
}

// pending reports whether anything follows the header.
func (b *Buffers) pending() bool {
	return b.full.Length() > messages.HeaderSize
}

func (b *Buffers) acquire() bool {
	return b.busy.CompareAndSwap(false, true)
}

func (b *Buffers) release() {
	b.busy.Store(false)
}
