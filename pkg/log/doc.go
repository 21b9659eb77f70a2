// Package log is the structured logging abstraction used by the message
// group, the senders and the publisher.
//
// Library code depends only on the Logger interface. The CLI wires a
// zerolog-backed adapter:
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//
// Tests and embedders that want silence use NewNoopLogger.
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package log
