package sender

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"strings"

	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// Destination is one remote endpoint and the locator it is reached at.
type Destination struct {
	GUID rtps.GUID
	Addr netip.AddrPort
}

// ParseDestination parses "prefix[/entity]@host:port", where prefix is 24
// hex digits (dots allowed) and entity 8 hex digits. A missing entity
// addresses every endpoint of the participant.
func ParseDestination(s string) (Destination, error) {
	var d Destination
	id, addr, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok {
		return d, fmt.Errorf("parse destination %q: missing @host:port", s)
	}

	prefixStr, entityStr, hasEntity := strings.Cut(id, "/")
	prefix, err := rtps.ParseGuidPrefix(prefixStr)
	if err != nil {
		return d, fmt.Errorf("parse destination: %w", err)
	}
	d.GUID.Prefix = prefix

	if hasEntity {
		raw, err := hex.DecodeString(entityStr)
		if err != nil || len(raw) != len(d.GUID.Entity) {
			return d, fmt.Errorf("parse destination %q: bad entity id", s)
		}
		copy(d.GUID.Entity[:], raw)
	}

	ap, err := netip.ParseAddrPort(addr)
	if err != nil {
		return d, fmt.Errorf("parse destination %q: %w", s, err)
	}
	d.Addr = ap
	return d, nil
}

func (d Destination) String() string {
	if d.GUID.Entity == rtps.EntityIDUnknown {
		return d.GUID.Prefix.String() + "@" + d.Addr.String()
	}
	return d.GUID.Prefix.String() + "/" + d.GUID.Entity.String() + "@" + d.Addr.String()
}

// commonPrefix returns the prefix shared by all destinations.
func commonPrefix(dests []Destination) rtps.GuidPrefix {
	if len(dests) == 0 {
		return rtps.GuidPrefixUnknown
	}
	p := dests[0].GUID.Prefix
	for _, d := range dests[1:] {
		if d.GUID.Prefix != p {
			return rtps.GuidPrefixUnknown
		}
	}
	return p
}

// sameLocators reports whether a and b reach the same set of addresses.
func sameLocators(a, b []Destination) bool {
	set := make(map[netip.AddrPort]int, len(a))
	for _, d := range a {
		set[d.Addr] |= 1
	}
	for _, d := range b {
		set[d.Addr] |= 2
	}
	for _, v := range set {
		if v != 3 {
			return false
		}
	}
	return true
}
