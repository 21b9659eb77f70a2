// Package group packs RTPS submessages into size-bounded messages.
//
// A Group is a short-lived session bound to one participant, one local
// endpoint, a set of caller-owned Buffers, a sender.Sender and an absolute
// send deadline. Each Add call composes one submessage into scratch space,
// decides whether INFO_DST or INFO_TS framing must precede it, flushes the
// current message first if the result would not fit, and appends it.
// Close sends whatever is left and reports the outcome.
//
//	buffers, _ := group.NewBuffers(participant, 65500, false)
//	err := group.Run(participant, writerGUID, buffers, udp, func(g *group.Group) error {
//		if err := g.AddData(change, false); err != nil {
//			return err
//		}
//		return g.AddHeartbeat(1, change.SequenceNumber, count, false, false)
//	}, group.WithDeadline(time.Now().Add(100*time.Millisecond)))
//
// Timeouts and send failures end the session: the error is returned once,
// later calls return ErrSessionFailed and Close sends nothing more. An
// oversized submessage or a failing transform only fails its own Add call.
//
// A Group is not safe for concurrent use, and Buffers serve one session at
// a time.
package group
