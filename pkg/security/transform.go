package security

import (
	"errors"

	"github.com/bft-labs/rtpsgroup/pkg/cdr"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// SubmessageTransform protects one composed submessage. Implementations
// write the protected form into out and must not write anything on
// failure that a caller could mistake for output.
type SubmessageTransform interface {
	EncodeSubmessage(plain []byte, endpoint rtps.GUID, out *cdr.Buffer) error
}

// Transform errors.
var (
	ErrInvalidKey     = errors.New("security: invalid key")
	ErrMalformed      = errors.New("security: malformed protected submessage")
	ErrAuthentication = errors.New("security: authentication failed")
	ErrCounterWrapped = errors.New("security: nonce counter exhausted")
)
