package group

import (
	"github.com/bft-labs/rtpsgroup/pkg/cdr"
	"github.com/bft-labs/rtpsgroup/pkg/messages"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// framing is the INFO_DST / INFO_TS context in force for the next
// submessage of the current message. The zero value is the context of a
// header-only message: unknown destination, no timestamp.
type framing struct {
	dst   rtps.GuidPrefix
	ts    rtps.Time
	hasTS bool
}

// next returns the context after a submessage for dst (and ts, when not
// nil) and the bytes of framing submessages needed to get there.
func (f framing) next(dst rtps.GuidPrefix, ts *rtps.Time) (framing, int) {
	n, extra := f, 0
	if dst != f.dst {
		n.dst = dst
		extra += messages.InfoDstSize
	}
	if ts != nil && (!f.hasTS || *ts != f.ts) {
		n.ts, n.hasTS = *ts, true
		extra += messages.InfoTSLen(*ts)
	}
	return n, extra
}

// emit writes the framing submessages that move the context from f to n.
func (f framing) emit(b *cdr.Buffer, n framing) error {
	if n.dst != f.dst {
		if err := messages.AddInfoDst(b, n.dst); err != nil {
			return err
		}
	}
	if n.hasTS && (!f.hasTS || n.ts != f.ts) {
		if err := messages.AddInfoTS(b, n.ts); err != nil {
			return err
		}
	}
	return nil
}
