package group

import (
	"fmt"
	"slices"

	"github.com/bft-labs/rtpsgroup/pkg/cdr"
	"github.com/bft-labs/rtpsgroup/pkg/messages"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// AddData appends a DATA submessage for change, preceded by an INFO_TS
// with its source timestamp when that differs from the one in force.
func (g *Group) AddData(change *rtps.CacheChange, expectsInlineQos bool) error {
	reader := g.readerID()
	ts := change.SourceTimestamp
	return g.insert(messages.IDData, func(b *cdr.Buffer) (bool, error) {
		return messages.AddData(b, change, reader, expectsInlineQos)
	}, &ts)
}

// AddDataFrag appends the DATA_FRAG carrying fragment fn (1-based) of
// change.
func (g *Group) AddDataFrag(change *rtps.CacheChange, fn rtps.FragmentNumber, expectsInlineQos bool) error {
	if fn == 0 || uint32(fn) > change.FragmentCount() {
		return fmt.Errorf("%w: %d of %d", ErrInvalidFragment, fn, change.FragmentCount())
	}
	reader := g.readerID()
	ts := change.SourceTimestamp
	return g.insert(messages.IDDataFrag, func(b *cdr.Buffer) (bool, error) {
		return messages.AddDataFrag(b, change, reader, fn, expectsInlineQos)
	}, &ts)
}

// AddHeartbeat appends a HEARTBEAT announcing [first, last]. last may be
// first-1 to announce an empty history.
func (g *Group) AddHeartbeat(first, last rtps.SequenceNumber, count uint32, final, liveliness bool) error {
	if first < 1 || last < first-1 {
		return fmt.Errorf("%w: heartbeat [%d, %d]", ErrInvalidRange, first, last)
	}
	reader := g.readerID()
	return g.insert(messages.IDHeartbeat, func(b *cdr.Buffer) (bool, error) {
		return false, messages.AddHeartbeat(b, reader, g.endpoint.Entity, first, last, count, final, liveliness)
	}, nil)
}

// AddGap declares every sequence number in seqs irrelevant. The numbers
// may come in any order; as many GAP submessages as needed are appended.
func (g *Group) AddGap(seqs []rtps.SequenceNumber) error {
	if len(seqs) == 0 {
		return nil
	}
	sorted := slices.Clone(seqs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if sorted[0] < 1 {
		return fmt.Errorf("%w: gap of %d", ErrInvalidRange, sorted[0])
	}

	var gb gapBuilder
	for _, sn := range sorted {
		if gb.add(sn) {
			continue
		}
		if err := g.addGap(gb.start, gb.list); err != nil {
			return err
		}
		gb = gapBuilder{}
		gb.add(sn)
	}
	return g.addGap(gb.start, gb.list)
}

// AddGapRange declares [first, last] irrelevant with a single GAP.
func (g *Group) AddGapRange(first, last rtps.SequenceNumber) error {
	if first < 1 || last < first {
		return fmt.Errorf("%w: gap [%d, %d]", ErrInvalidRange, first, last)
	}
	return g.addGap(first, rtps.NewSequenceNumberSet(last+1))
}

func (g *Group) addGap(start rtps.SequenceNumber, list rtps.SequenceNumberSet) error {
	reader := g.readerID()
	return g.insert(messages.IDGap, func(b *cdr.Buffer) (bool, error) {
		return false, messages.AddGap(b, reader, g.endpoint.Entity, start, list)
	}, nil)
}

// AddAcknack appends an ACKNACK from this endpoint for the remote writer.
func (g *Group) AddAcknack(set rtps.SequenceNumberSet, count uint32, final bool) error {
	if set.Base < 1 {
		return fmt.Errorf("%w: acknack base %d", ErrInvalidRange, set.Base)
	}
	writer := g.readerID()
	return g.insert(messages.IDAckNack, func(b *cdr.Buffer) (bool, error) {
		return false, messages.AddAckNack(b, g.endpoint.Entity, writer, set, count, final)
	}, nil)
}

// AddNackFrag appends a NACK_FRAG requesting the fragments in set of
// sample sn.
func (g *Group) AddNackFrag(sn rtps.SequenceNumber, set rtps.FragmentNumberSet, count uint32) error {
	if sn < 1 {
		return fmt.Errorf("%w: nack_frag of %d", ErrInvalidRange, sn)
	}
	if set.Base == 0 {
		return fmt.Errorf("%w: fragment set base 0", ErrInvalidFragment)
	}
	writer := g.readerID()
	return g.insert(messages.IDNackFrag, func(b *cdr.Buffer) (bool, error) {
		return false, messages.AddNackFrag(b, g.endpoint.Entity, writer, sn, set, count)
	}, nil)
}

// gapBuilder accumulates ascending sequence numbers into one GAP: a
// contiguous run starting at start, then a bitmap from the first hole.
type gapBuilder struct {
	start   rtps.SequenceNumber
	list    rtps.SequenceNumberSet
	started bool
}

// add reports whether sn fits the GAP being built.
func (gb *gapBuilder) add(sn rtps.SequenceNumber) bool {
	switch {
	case !gb.started:
		gb.start, gb.started = sn, true
		gb.list = rtps.NewSequenceNumberSet(sn + 1)
		return true
	case gb.list.NumBits() == 0 && sn == gb.list.Base:
		gb.list.Base++
		return true
	default:
		return gb.list.Add(sn)
	}
}
