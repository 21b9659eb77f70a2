// Package history holds the samples of one writer until they are sent.
//
// It is the read side a message group's caller draws changes from: look
// up a change by sequence number, walk a range, or ask for the bounds to
// announce in a HEARTBEAT. Storage is a ring queue bounded by a KEEP_LAST
// depth.
package history
