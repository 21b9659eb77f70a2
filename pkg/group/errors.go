package group

import "errors"

// Session errors. Every error returned by a Group matches exactly one of
// these with errors.Is, so callers can tell which kind of failure occurred.
var (
	// ErrSubmessageTooLarge is returned when a submessage cannot fit even in
	// an empty message. Nothing is written and the session stays usable.
	ErrSubmessageTooLarge = errors.New("group: submessage does not fit in an empty message")

	// ErrInvalidFragment is returned for a fragment number of 0 or one past
	// the last fragment of the change.
	ErrInvalidFragment = errors.New("group: invalid fragment number")

	// ErrInvalidRange is returned for sequence numbers that do not form a
	// valid range.
	ErrInvalidRange = errors.New("group: invalid sequence number range")

	// ErrTimeout is returned when a send did not complete before the
	// session deadline. The session is unusable afterwards.
	ErrTimeout = errors.New("group: send deadline exceeded")

	// ErrSendFailed is returned when the sender rejected a message. The
	// session is unusable afterwards.
	ErrSendFailed = errors.New("group: send failed")

	// ErrSecurity is returned when the submessage transform failed. The
	// submessage is dropped; plaintext is never sent in its place.
	ErrSecurity = errors.New("group: submessage protection failed")

	// ErrSessionFailed is returned by any call after a timeout or send
	// failure has already been reported.
	ErrSessionFailed = errors.New("group: session failed")

	// ErrSessionClosed is returned by any call after Close.
	ErrSessionClosed = errors.New("group: session closed")

	// ErrBuffersBusy is returned by New when another session is still
	// accumulating into the same buffers.
	ErrBuffersBusy = errors.New("group: buffers in use by another session")

	// ErrInvalidCapacity is returned by NewBuffers for a capacity that
	// cannot hold a header and one submessage header.
	ErrInvalidCapacity = errors.New("group: invalid buffer capacity")
)
