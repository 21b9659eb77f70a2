package group

import (
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
	"github.com/bft-labs/rtpsgroup/pkg/sender"
)

// Run opens a session, hands it to fn and closes it.
//
// When fn returns nil, Run returns the result of Close, so a failed final
// send is never lost. When fn returns an error, whatever was already
// accumulated is still sent and fn's error is returned; a failure of that
// last send is dropped in its favour. A session that already failed sends
// nothing more. A panic in fn abandons the session without sending.
func Run(p Participant, endpoint rtps.GUID, buffers *Buffers, s sender.Sender, fn func(*Group) error, opts ...Option) error {
	g, err := New(p, endpoint, buffers, s, opts...)
	if err != nil {
		return err
	}

	panicking := true
	defer func() {
		if panicking {
			g.abort()
		}
	}()

	err = fn(g)
	panicking = false
	if err != nil {
		_ = g.Close()
		return err
	}
	return g.Close()
}
