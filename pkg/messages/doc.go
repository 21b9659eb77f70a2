// Package messages encodes RTPS 2.2 messages: the message header and the
// submessages the message group emits (DATA, DATA_FRAG, HEARTBEAT, GAP,
// ACKNACK, NACK_FRAG, INFO_DST and INFO_TS).
//
// Every Add function writes one complete submessage into a cdr.Buffer or
// nothing at all; on failure the buffer is rolled back to where it was.
// Split decodes a message back into its submessages and is what the tests
// and the CLI dry-run mode use to inspect output.
package messages
