package security

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/bft-labs/rtpsgroup/pkg/cdr"
	"github.com/bft-labs/rtpsgroup/pkg/messages"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// Transformation kinds carried in SEC_PREFIX.
const (
	KindAES128GCM uint32 = 0x00000002
	KindAES256GCM uint32 = 0x00000004
)

const (
	prefixBodySize  = 20 // kind, key id, session id, iv suffix
	postfixBodySize = 20 // mac, receiver-specific mac count
	tagSize         = 16
)

// Overhead is the number of bytes AESGCM adds to a submessage before
// alignment padding of the ciphertext.
const Overhead = 3*messages.SubmessageHeaderSize + prefixBodySize + 4 + postfixBodySize

// AESGCM protects submessages as SEC_PREFIX, SEC_BODY, SEC_POSTFIX with
// AES-GCM. The prefix is authenticated as additional data.
type AESGCM struct {
	aead      cipher.AEAD
	kind      uint32
	sessionID uint32
	counter   atomic.Uint64
}

// NewAESGCM builds a transform from a 16 or 32 byte key.
func NewAESGCM(key []byte, sessionID uint32) (*AESGCM, error) {
	var kind uint32
	switch len(key) {
	case 16:
		kind = KindAES128GCM
	case 32:
		kind = KindAES256GCM
	default:
		return nil, fmt.Errorf("%w: length %d", ErrInvalidKey, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &AESGCM{aead: aead, kind: kind, sessionID: sessionID}, nil
}

func (t *AESGCM) nonce(suffix uint64) []byte {
	n := make([]byte, t.aead.NonceSize())
	binary.BigEndian.PutUint32(n[0:4], t.sessionID)
	binary.BigEndian.PutUint64(n[4:12], suffix)
	return n
}

// EncodeSubmessage implements SubmessageTransform.
func (t *AESGCM) EncodeSubmessage(plain []byte, endpoint rtps.GUID, out *cdr.Buffer) error {
	pad := (4 - len(plain)%4) % 4
	need := Overhead + len(plain) + pad
	if out.Free() < need {
		return fmt.Errorf("encode submessage: %w: need %d, have %d", cdr.ErrBufferFull, need, out.Free())
	}
	if 4+len(plain)+pad > messages.MaxSubmessageBody {
		return fmt.Errorf("encode submessage: %w: body of %d bytes", cdr.ErrBufferFull, len(plain))
	}

	suffix := t.counter.Add(1)
	if suffix == math.MaxUint64 {
		return ErrCounterWrapped
	}

	// Space is checked above so the writes below cannot fail.
	start := out.Length()
	writeSubmessageHeader(out, messages.IDSecPrefix, prefixBodySize)
	_ = writeUint32BE(out, t.kind)
	_, _ = out.Write(endpoint.Entity[:])
	_ = writeUint32BE(out, t.sessionID)
	_ = writeUint64BE(out, suffix)

	sealed := t.aead.Seal(nil, t.nonce(suffix), plain, out.Bytes()[start:])
	ciphertext, tag := sealed[:len(plain)], sealed[len(plain):]

	writeSubmessageHeader(out, messages.IDSecBody, 4+len(ciphertext)+pad)
	_ = writeUint32BE(out, uint32(len(ciphertext)))
	_, _ = out.Write(ciphertext)
	_ = out.WriteZeros(pad)

	writeSubmessageHeader(out, messages.IDSecPostfix, postfixBodySize)
	_, _ = out.Write(tag)
	_ = writeUint32BE(out, 0)
	return nil
}

// DecodeSubmessage reverses EncodeSubmessage on the three protection
// submessages found at the start of p. It returns the plaintext and the
// number of bytes consumed.
func (t *AESGCM) DecodeSubmessage(p []byte) ([]byte, int, error) {
	prefix, n1, err := nextSubmessage(p, messages.IDSecPrefix)
	if err != nil {
		return nil, 0, err
	}
	body, n2, err := nextSubmessage(p[n1:], messages.IDSecBody)
	if err != nil {
		return nil, 0, err
	}
	postfix, n3, err := nextSubmessage(p[n1+n2:], messages.IDSecPostfix)
	if err != nil {
		return nil, 0, err
	}
	if len(prefix) != prefixBodySize || len(postfix) != postfixBodySize || len(body) < 4 {
		return nil, 0, ErrMalformed
	}
	if binary.BigEndian.Uint32(prefix[8:12]) != t.sessionID {
		return nil, 0, fmt.Errorf("%w: session id mismatch", ErrAuthentication)
	}
	suffix := binary.BigEndian.Uint64(prefix[12:20])
	clen := int(binary.BigEndian.Uint32(body[0:4]))
	if clen > len(body)-4 {
		return nil, 0, ErrMalformed
	}

	sealed := make([]byte, 0, clen+tagSize)
	sealed = append(sealed, body[4:4+clen]...)
	sealed = append(sealed, postfix[:tagSize]...)
	plain, err := t.aead.Open(nil, t.nonce(suffix), sealed, p[:n1])
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return plain, n1 + n2 + n3, nil
}

func writeSubmessageHeader(b *cdr.Buffer, id messages.SubmessageID, n int) {
	_ = b.WriteByte(byte(id))
	_ = b.WriteByte(messages.FlagEndianness)
	_ = b.WriteUint16(uint16(n))
}

func writeUint32BE(b *cdr.Buffer, v uint32) error {
	var p [4]byte
	binary.BigEndian.PutUint32(p[:], v)
	_, err := b.Write(p[:])
	return err
}

func writeUint64BE(b *cdr.Buffer, v uint64) error {
	var p [8]byte
	binary.BigEndian.PutUint64(p[:], v)
	_, err := b.Write(p[:])
	return err
}

// nextSubmessage returns the body of the submessage at the start of p and
// the total bytes it occupies.
func nextSubmessage(p []byte, want messages.SubmessageID) ([]byte, int, error) {
	if len(p) < messages.SubmessageHeaderSize || messages.SubmessageID(p[0]) != want {
		return nil, 0, fmt.Errorf("%w: expected %s", ErrMalformed, want)
	}
	n := int(binary.LittleEndian.Uint16(p[2:4]))
	end := messages.SubmessageHeaderSize + n
	if end > len(p) {
		return nil, 0, fmt.Errorf("%w: %s truncated", ErrMalformed, want)
	}
	return p[messages.SubmessageHeaderSize:end], end, nil
}
