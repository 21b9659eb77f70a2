// Package sender defines how an assembled RTPS message leaves the process.
//
// The Sender interface is what a message group flushes into. Two
// implementations are provided:
//
//   - UDPSender writes each message to every distinct locator of its
//     current destinations, honoring the context deadline as the socket
//     write deadline.
//   - Recorder keeps messages in memory. It backs dry runs and tests and
//     can simulate a blocked or failing transport.
//
// Destinations are written "prefix[/entity]@host:port":
//
//	d, err := sender.ParseDestination("01.0f.00.00.00.00.00.00.00.00.00.01@127.0.0.1:7411")
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
package sender
