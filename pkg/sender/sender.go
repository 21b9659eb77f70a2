package sender

import (
	"context"
	"errors"

	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// Sender transmits assembled RTPS messages to the current set of
// destinations.
type Sender interface {
	// DestinationsHaveChanged reports whether the destination locators
	// changed since the last call, clearing the flag. A message group
	// flushes before mixing submessages for different locator sets.
	DestinationsHaveChanged() bool

	// DestinationGUIDPrefix returns the prefix shared by every current
	// destination, or rtps.GuidPrefixUnknown when they differ.
	DestinationGUIDPrefix() rtps.GuidPrefix

	// RemoteGUIDs returns the GUIDs of the current destinations.
	RemoteGUIDs() []rtps.GUID

	// Send transmits msg synchronously. The context carries the absolute
	// deadline; exceeding it returns an error matching ErrTimeout or
	// context.DeadlineExceeded.
	Send(ctx context.Context, msg []byte) error
}

// Sender errors.
var (
	// ErrTimeout is returned when a send could not complete before the deadline.
	ErrTimeout = errors.New("sender: deadline exceeded")

	// ErrNoDestinations is returned when Send is called with nothing to send to.
	ErrNoDestinations = errors.New("sender: no destinations")
)

// IsTimeout reports whether err is a deadline failure from any layer.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
