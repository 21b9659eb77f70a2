package history

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eapache/queue"

	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// ErrEmptyPayload is returned when an alive change carries no payload.
var ErrEmptyPayload = errors.New("history: empty payload")

// Cache is a KEEP_LAST writer history. Sequence numbers are assigned on
// Add starting at 1 and stay contiguous; once depth changes are held the
// oldest is evicted. Changes handed out are shared and must not be
// modified.
type Cache struct {
	mu           sync.RWMutex
	writer       rtps.GUID
	depth        int
	fragmentSize uint16
	next         rtps.SequenceNumber
	evicted      int
	changes      *queue.Queue
}

// New returns an empty history for writer keeping at most depth changes.
// Payloads longer than fragmentSize are marked for fragmentation; zero
// disables fragmentation.
func New(writer rtps.GUID, depth int, fragmentSize uint16) *Cache {
	if depth < 1 {
		depth = 1
	}
	return &Cache{
		writer:       writer,
		depth:        depth,
		fragmentSize: fragmentSize,
		next:         1,
		changes:      queue.New(),
	}
}

// Add stores an alive sample stamped with ts.
func (c *Cache) Add(payload []byte, ts rtps.Time) (*rtps.CacheChange, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	return c.AddChange(rtps.Alive, rtps.InstanceHandle{}, payload, ts), nil
}

// AddChange stores a change of any kind.
func (c *Cache) AddChange(kind rtps.ChangeKind, handle rtps.InstanceHandle, payload []byte, ts rtps.Time) *rtps.CacheChange {
	c.mu.Lock()
	defer c.mu.Unlock()

	change := &rtps.CacheChange{
		Kind:            kind,
		WriterGUID:      c.writer,
		SequenceNumber:  c.next,
		SourceTimestamp: ts,
		InstanceHandle:  handle,
		Payload:         append([]byte(nil), payload...),
	}
	if c.fragmentSize > 0 && len(payload) > int(c.fragmentSize) {
		change.FragmentSize = c.fragmentSize
	}
	c.next++

	c.changes.Add(change)
	for c.changes.Length() > c.depth {
		c.changes.Remove()
		c.evicted++
	}
	return change
}

// Get returns the change with sequence number sn if it is still held.
func (c *Cache) Get(sn rtps.SequenceNumber) (*rtps.CacheChange, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index(sn)
	if !ok {
		return nil, false
	}
	return c.changes.Get(i).(*rtps.CacheChange), true
}

// Min returns the oldest held sequence number.
func (c *Cache) Min() (rtps.SequenceNumber, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.changes.Length() == 0 {
		return 0, false
	}
	return c.changes.Peek().(*rtps.CacheChange).SequenceNumber, true
}

// Max returns the newest held sequence number.
func (c *Cache) Max() (rtps.SequenceNumber, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.changes.Length() == 0 {
		return 0, false
	}
	return c.changes.Get(-1).(*rtps.CacheChange).SequenceNumber, true
}

// Bounds returns the range a HEARTBEAT announces: [min, max], or
// [next, next-1] when nothing is held.
func (c *Cache) Bounds() (first, last rtps.SequenceNumber) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.changes.Length() == 0 {
		return c.next, c.next - 1
	}
	first = c.changes.Peek().(*rtps.CacheChange).SequenceNumber
	return first, c.next - 1
}

// Range returns the held changes with from <= sn <= to in order.
func (c *Cache) Range(from, to rtps.SequenceNumber) []*rtps.CacheChange {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*rtps.CacheChange
	for i := 0; i < c.changes.Length(); i++ {
		ch := c.changes.Get(i).(*rtps.CacheChange)
		if ch.SequenceNumber < from {
			continue
		}
		if ch.SequenceNumber > to {
			break
		}
		out = append(out, ch)
	}
	return out
}

// Evicted returns the sequence numbers in [from, to] that were assigned
// but are no longer held. Readers that still miss them are sent a GAP.
func (c *Cache) Evicted(from, to rtps.SequenceNumber) []rtps.SequenceNumber {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oldest := c.next
	if c.changes.Length() > 0 {
		oldest = c.changes.Peek().(*rtps.CacheChange).SequenceNumber
	}
	if from < 1 {
		from = 1
	}
	var out []rtps.SequenceNumber
	for sn := from; sn <= to && sn < oldest; sn++ {
		out = append(out, sn)
	}
	return out
}

// Len returns the number of held changes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changes.Length()
}

// Stats returns the next sequence number to assign and how many changes
// were evicted so far.
func (c *Cache) Stats() (next rtps.SequenceNumber, evicted int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.next, c.evicted
}

func (c *Cache) index(sn rtps.SequenceNumber) (int, bool) {
	n := c.changes.Length()
	if n == 0 {
		return 0, false
	}
	first := c.changes.Peek().(*rtps.CacheChange).SequenceNumber
	i := int(sn - first)
	if sn < first || i >= n {
		return 0, false
	}
	return i, true
}

func (c *Cache) String() string {
	first, last := c.Bounds()
	return fmt.Sprintf("history(%s, [%d, %d])", c.writer, first, last)
}
