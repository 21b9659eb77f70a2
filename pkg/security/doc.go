// Package security defines the submessage protection capability a message
// group can be built with, and an AES-GCM implementation of it.
//
// A protected submessage is emitted as SEC_PREFIX, SEC_BODY and
// SEC_POSTFIX. The prefix carries the transformation kind, the sending
// endpoint's entity id as key id, the session id and a per-submessage
// counter that together form the GCM nonce. The postfix carries the tag.
package security
