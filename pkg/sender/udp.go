package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/bft-labs/rtpsgroup/pkg/log"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// UDPSender sends every message to each distinct locator of its current
// destinations over one UDP socket. It is safe for concurrent use; the
// destination set may be replaced while a publisher is sending.
type UDPSender struct {
	conn   *net.UDPConn
	logger log.Logger

	mu      sync.Mutex
	dests   []Destination
	changed bool
}

// NewUDPSender wraps an existing socket.
func NewUDPSender(conn *net.UDPConn, logger log.Logger) *UDPSender {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &UDPSender{conn: conn, logger: logger}
}

// ListenUDP opens a socket bound to addr ("" for any) and sizes its kernel
// send buffer when sendBuffer is positive.
func ListenUDP(addr string, sendBuffer int, logger log.Logger) (*UDPSender, error) {
	var laddr *net.UDPAddr
	if addr != "" {
		a, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", addr, err)
		}
		laddr = a
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}
	if sendBuffer > 0 {
		if err := setSendBuffer(conn, sendBuffer); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set send buffer: %w", err)
		}
	}
	return NewUDPSender(conn, logger), nil
}

// LocalAddr returns the bound address.
func (s *UDPSender) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// SetDestinations replaces the destination set. The change is reported by
// DestinationsHaveChanged only when the locators differ.
func (s *UDPSender) SetDestinations(dests []Destination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !sameLocators(s.dests, dests) {
		s.changed = true
	}
	s.dests = append([]Destination(nil), dests...)
}

// Destinations returns a copy of the current destination set.
func (s *UDPSender) Destinations() []Destination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Destination(nil), s.dests...)
}

// DestinationsHaveChanged implements Sender.
func (s *UDPSender) DestinationsHaveChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.changed
	s.changed = false
	return changed
}

// DestinationGUIDPrefix implements Sender.
func (s *UDPSender) DestinationGUIDPrefix() rtps.GuidPrefix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return commonPrefix(s.dests)
}

// RemoteGUIDs implements Sender.
func (s *UDPSender) RemoteGUIDs() []rtps.GUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]rtps.GUID, len(s.dests))
	for i, d := range s.dests {
		out[i] = d.GUID
	}
	return out
}

// Send implements Sender. The write deadline of the socket is taken from
// the context.
func (s *UDPSender) Send(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return err
	}

	s.mu.Lock()
	addrs := make([]netip.AddrPort, 0, len(s.dests))
	seen := make(map[netip.AddrPort]struct{}, len(s.dests))
	for _, d := range s.dests {
		if _, ok := seen[d.Addr]; ok {
			continue
		}
		seen[d.Addr] = struct{}{}
		addrs = append(addrs, d.Addr)
	}
	s.mu.Unlock()

	if len(addrs) == 0 {
		return ErrNoDestinations
	}

	deadline, _ := ctx.Deadline()
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	defer s.conn.SetWriteDeadline(time.Time{})

	for _, addr := range addrs {
		if _, err := s.conn.WriteToUDPAddrPort(msg, addr); err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return fmt.Errorf("%w: write to %s: %v", ErrTimeout, addr, err)
			}
			return fmt.Errorf("write to %s: %w", addr, err)
		}
	}

	s.logger.Debug("sent message",
		log.Int("bytes", len(msg)),
		log.Int("locators", len(addrs)),
	)
	return nil
}

// Close closes the socket.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
