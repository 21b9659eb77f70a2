// Package cdr provides the fixed-capacity byte buffer used to compose and
// accumulate RTPS messages.
//
// A Buffer never grows. Every write either fits completely or fails with
// ErrBufferFull and leaves the buffer untouched, so callers can compose a
// submessage and learn its final size before committing it anywhere else.
//
// All multi-byte values are written little-endian; RTPS submessages built
// on top of this package set the endianness flag accordingly.
package cdr
