package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/rtpsgroup/pkg/cdr"
	"github.com/bft-labs/rtpsgroup/pkg/log"
	"github.com/bft-labs/rtpsgroup/pkg/messages"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
	"github.com/bft-labs/rtpsgroup/pkg/security"
	"github.com/bft-labs/rtpsgroup/pkg/sender"
)

// DefaultMaxBlocking bounds sends when no deadline is given.
const DefaultMaxBlocking = 24 * time.Hour

// Group assembles submessages into messages for one sender. It is used by a
// single goroutine for its whole life and must be closed exactly once.
type Group struct {
	endpoint rtps.GUID
	header   messages.Header
	buffers  *Buffers
	sender   sender.Sender

	ctx       context.Context
	deadline  time.Time
	transform security.SubmessageTransform
	logger    log.Logger

	frame    framing
	sent     int64
	messages int

	failed error
	closed bool
}

// Option configures a Group.
type Option func(*options)

type options struct {
	ctx       context.Context
	deadline  time.Time
	transform security.SubmessageTransform
	logger    log.Logger
}

// WithContext sets the parent context of every send. Cancelling it aborts
// an in-flight send with ErrSendFailed.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithDeadline sets the absolute time by which every send must complete.
// Defaults to DefaultMaxBlocking from construction.
func WithDeadline(t time.Time) Option {
	return func(o *options) {
		o.deadline = t
	}
}

// WithTransform protects every submessage with t. The buffers must have
// been allocated secure.
func WithTransform(t security.SubmessageTransform) Option {
	return func(o *options) {
		o.transform = t
	}
}

// WithLogger sets the logger for flushes and dropped submessages.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New starts a session for endpoint of participant p. The accumulator of
// buffers is reset to p's header; buffers stay reserved until Close.
func New(p Participant, endpoint rtps.GUID, buffers *Buffers, s sender.Sender, opts ...Option) (*Group, error) {
	o := options{
		ctx:      context.Background(),
		deadline: time.Now().Add(DefaultMaxBlocking),
		logger:   log.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transform != nil && !buffers.Secure() {
		return nil, fmt.Errorf("%w: transform set on buffers without encryption scratch", ErrSecurity)
	}
	if !buffers.acquire() {
		return nil, ErrBuffersBusy
	}

	g := &Group{
		endpoint:  endpoint,
		header:    p.header(),
		buffers:   buffers,
		sender:    s,
		ctx:       o.ctx,
		deadline:  o.deadline,
		transform: o.transform,
		logger:    o.logger,
	}
	buffers.prime(g.header)
	return g, nil
}

// Flush sends whatever is pending without ending the session. It does
// nothing when only the header is buffered.
func (g *Group) Flush() error {
	if err := g.usable(); err != nil {
		return err
	}
	return g.flush()
}

// FlushAndReset flushes and then zeroes the processed byte count.
func (g *Group) FlushAndReset() error {
	if err := g.Flush(); err != nil {
		return err
	}
	g.sent = 0
	return nil
}

// BytesProcessed returns the bytes sent by this session plus those
// pending in the current message.
func (g *Group) BytesProcessed() int64 {
	if !g.buffers.pending() {
		return g.sent
	}
	return g.sent + int64(g.buffers.full.Length())
}

// MessagesSent returns how many messages this session has sent.
func (g *Group) MessagesSent() int {
	return g.messages
}

// Deadline returns the absolute send deadline.
func (g *Group) Deadline() time.Time {
	return g.deadline
}

// Close sends pending submessages and releases the buffers. It reports the
// failure of that final send. A session whose failure was already
// reported is closed without sending and Close returns nil.
func (g *Group) Close() error {
	if g.closed {
		return ErrSessionClosed
	}
	g.closed = true
	defer g.buffers.release()

	if g.failed != nil {
		g.discard()
		return nil
	}
	return g.flush()
}

// abort ends the session without sending anything.
func (g *Group) abort() {
	if g.closed {
		return
	}
	g.closed = true
	g.discard()
	g.buffers.release()
}

func (g *Group) usable() error {
	if g.closed {
		return ErrSessionClosed
	}
	if g.failed != nil {
		return fmt.Errorf("%w: %v", ErrSessionFailed, g.failed)
	}
	return nil
}

func (g *Group) discard() {
	if g.buffers.pending() {
		g.logger.Warn("discarding pending submessages",
			log.Int("bytes", g.buffers.full.Length()-messages.HeaderSize),
		)
	}
	g.resetToHeader()
}

func (g *Group) resetToHeader() {
	g.buffers.resetToHeader()
	g.frame = framing{}
}

func (g *Group) flush() error {
	if !g.buffers.pending() {
		return nil
	}

	ctx, cancel := context.WithDeadline(g.ctx, g.deadline)
	defer cancel()

	n := g.buffers.full.Length()
	err := g.sender.Send(ctx, g.buffers.full.Bytes())
	g.resetToHeader()
	if err != nil {
		if sender.IsTimeout(err) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		} else {
			err = fmt.Errorf("%w: %v", ErrSendFailed, err)
		}
		g.failed = err
		g.logger.Error("flush failed",
			log.Int("bytes", n),
			log.Time("deadline", g.deadline),
			log.Err(err),
		)
		return err
	}

	g.sent += int64(n)
	g.messages++
	g.logger.Debug("flushed message",
		log.Int("bytes", n),
		log.Int("messages", g.messages),
	)
	return nil
}

// composer writes one submessage into the scratch buffer.
type composer func(b *cdr.Buffer) (big bool, err error)

// insert runs compose into the scratch buffer, protects the result when a
// transform is set, and appends it to the current message behind whatever
// framing it needs. ts is the source timestamp the submessage must carry,
// or nil.
//
// The final size is known before anything is appended, so a failed insert
// leaves the current message untouched.
func (g *Group) insert(kind messages.SubmessageID, compose composer, ts *rtps.Time) error {
	if err := g.usable(); err != nil {
		return err
	}
	if g.sender.DestinationsHaveChanged() {
		if err := g.flush(); err != nil {
			return err
		}
	}

	scratch := g.buffers.submessage
	scratch.Reset()
	big, err := compose(scratch)
	if err != nil {
		return g.tooLarge(kind, err)
	}
	payload := scratch.Bytes()

	if g.transform != nil {
		out := g.buffers.encrypt
		out.Reset()
		if err := g.transform.EncodeSubmessage(payload, g.endpoint, out); err != nil {
			if errors.Is(err, cdr.ErrBufferFull) {
				return g.tooLarge(kind, err)
			}
			return fmt.Errorf("%w: %s: %v", ErrSecurity, kind, err)
		}
		payload = out.Bytes()
		big = false
	}

	dst := g.sender.DestinationGUIDPrefix()
	next, extra := g.frame.next(dst, ts)
	if g.buffers.full.Free() < extra+len(payload) {
		if err := g.flush(); err != nil {
			return err
		}
		next, extra = g.frame.next(dst, ts)
		if g.buffers.full.Free() < extra+len(payload) {
			return g.tooLarge(kind, fmt.Errorf("need %d bytes, capacity %d", extra+len(payload), g.buffers.Capacity()))
		}
	}

	full := g.buffers.full
	start := full.Length()
	if err := g.frame.emit(full, next); err != nil {
		full.Truncate(start)
		return g.tooLarge(kind, err)
	}
	if _, err := full.Write(payload); err != nil {
		full.Truncate(start)
		return g.tooLarge(kind, err)
	}
	g.frame = next

	// Nothing may follow a submessage whose length did not fit the header.
	if big {
		return g.flush()
	}
	return nil
}

func (g *Group) tooLarge(kind messages.SubmessageID, cause error) error {
	err := fmt.Errorf("%w: %s: %v", ErrSubmessageTooLarge, kind, cause)
	g.logger.Error("submessage dropped", log.Stringer("kind", kind), log.Err(cause))
	return err
}

// readerID is the entity addressed when there is exactly one remote
// endpoint, and ENTITYID_UNKNOWN otherwise.
func (g *Group) readerID() rtps.EntityID {
	guids := g.sender.RemoteGUIDs()
	if len(guids) == 1 {
		return guids[0].Entity
	}
	return rtps.EntityIDUnknown
}
