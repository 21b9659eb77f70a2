package sender

import (
	"context"
	"sync"

	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// Recorder is an in-memory Sender. It keeps a copy of every message it is
// asked to send and can be told to block until the deadline or to fail.
// The CLI uses it for dry runs; tests use it as the Sender fake.
type Recorder struct {
	mu       sync.Mutex
	prefix   rtps.GuidPrefix
	guids    []rtps.GUID
	changed  bool
	block    bool
	fail     error
	calls    int
	messages [][]byte
}

// NewRecorder returns a recorder with no destinations.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetDestination changes the destination participant without changing
// locators, so no flush is forced.
func (r *Recorder) SetDestination(prefix rtps.GuidPrefix, guids ...rtps.GUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefix = prefix
	r.guids = append([]rtps.GUID(nil), guids...)
}

// ChangeLocators makes the next DestinationsHaveChanged call report true.
func (r *Recorder) ChangeLocators() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = true
}

// Block makes Send wait for the context to end.
func (r *Recorder) Block(block bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.block = block
}

// Fail makes Send return err. A nil err restores normal behaviour.
func (r *Recorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// DestinationsHaveChanged implements Sender.
func (r *Recorder) DestinationsHaveChanged() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := r.changed
	r.changed = false
	return changed
}

// DestinationGUIDPrefix implements Sender.
func (r *Recorder) DestinationGUIDPrefix() rtps.GuidPrefix {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefix
}

// RemoteGUIDs implements Sender.
func (r *Recorder) RemoteGUIDs() []rtps.GUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rtps.GUID(nil), r.guids...)
}

// Send implements Sender.
func (r *Recorder) Send(ctx context.Context, msg []byte) error {
	r.mu.Lock()
	r.calls++
	block, fail := r.block, r.fail
	r.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if fail != nil {
		return fail
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, append([]byte(nil), msg...))
	return nil
}

// Calls returns how many times Send was invoked, including failed calls.
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Messages returns copies of the successfully sent messages in order.
func (r *Recorder) Messages() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.messages))
	copy(out, r.messages)
	return out
}

// Reset forgets recorded messages and the call count.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = 0
	r.messages = nil
}
