package messages

import (
	"errors"
	"fmt"

	"github.com/bft-labs/rtpsgroup/pkg/cdr"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// SubmessageID is the kind octet of a submessage header.
type SubmessageID byte

const (
	IDPad        SubmessageID = 0x01
	IDAckNack    SubmessageID = 0x06
	IDHeartbeat  SubmessageID = 0x07
	IDGap        SubmessageID = 0x08
	IDInfoTS     SubmessageID = 0x09
	IDInfoDst    SubmessageID = 0x0e
	IDNackFrag   SubmessageID = 0x12
	IDData       SubmessageID = 0x15
	IDDataFrag   SubmessageID = 0x16
	IDSecBody    SubmessageID = 0x30
	IDSecPrefix  SubmessageID = 0x31
	IDSecPostfix SubmessageID = 0x32
)

func (id SubmessageID) String() string {
	switch id {
	case IDPad:
		return "PAD"
	case IDAckNack:
		return "ACKNACK"
	case IDHeartbeat:
		return "HEARTBEAT"
	case IDGap:
		return "GAP"
	case IDInfoTS:
		return "INFO_TS"
	case IDInfoDst:
		return "INFO_DST"
	case IDNackFrag:
		return "NACK_FRAG"
	case IDData:
		return "DATA"
	case IDDataFrag:
		return "DATA_FRAG"
	case IDSecBody:
		return "SEC_BODY"
	case IDSecPrefix:
		return "SEC_PREFIX"
	case IDSecPostfix:
		return "SEC_POSTFIX"
	default:
		return fmt.Sprintf("SUBMSG(%#02x)", byte(id))
	}
}

// Submessage flags. FlagEndianness is always set since every value is
// written little-endian.
const (
	FlagEndianness byte = 0x01

	FlagFinal      byte = 0x02 // HEARTBEAT, ACKNACK
	FlagLiveliness byte = 0x04 // HEARTBEAT
	FlagInvalidate byte = 0x02 // INFO_TS

	FlagInlineQos byte = 0x02 // DATA, DATA_FRAG
	FlagData      byte = 0x04 // DATA
	FlagKey       byte = 0x08 // DATA
	FlagFragKey   byte = 0x04 // DATA_FRAG
)

// Fixed sizes, header included.
const (
	SubmessageHeaderSize = 4
	InfoDstSize          = SubmessageHeaderSize + rtps.GuidPrefixSize
	InfoTSSize           = SubmessageHeaderSize + 8
	HeartbeatSize        = SubmessageHeaderSize + 28

	// MaxSubmessageBody is the largest body whose length fits the 16-bit
	// octetsToNextHeader field.
	MaxSubmessageBody = 0xffff
)

// ErrInvalidSubmessage is returned by the parser on structurally broken input.
var ErrInvalidSubmessage = errors.New("messages: invalid submessage")

// compose writes one submessage header, calls body, then patches the
// length. The buffer is rolled back if anything fails so a failed compose
// never leaves a truncated submessage behind. big reports a body longer
// than MaxSubmessageBody, written with octetsToNextHeader = 0.
func compose(b *cdr.Buffer, id SubmessageID, flags byte, body func(b *cdr.Buffer) error) (big bool, err error) {
	start := b.Length()
	defer func() {
		if err != nil {
			b.Truncate(start)
		}
	}()

	if err = b.WriteByte(byte(id)); err != nil {
		return false, err
	}
	if err = b.WriteByte(flags | FlagEndianness); err != nil {
		return false, err
	}
	if err = b.WriteUint16(0); err != nil {
		return false, err
	}
	if err = body(b); err != nil {
		return false, err
	}

	n := b.Length() - start - SubmessageHeaderSize
	if n > MaxSubmessageBody {
		return true, nil
	}
	return false, b.PutUint16At(start+2, uint16(n))
}

func writeEntityIDs(b *cdr.Buffer, reader, writer rtps.EntityID) error {
	if _, err := b.Write(reader[:]); err != nil {
		return err
	}
	_, err := b.Write(writer[:])
	return err
}

func writeSequenceNumber(b *cdr.Buffer, sn rtps.SequenceNumber) error {
	if err := b.WriteInt32(sn.High()); err != nil {
		return err
	}
	return b.WriteUint32(sn.Low())
}

func writeWords(b *cdr.Buffer, numBits uint32, words []uint32) error {
	if err := b.WriteUint32(numBits); err != nil {
		return err
	}
	for _, w := range words {
		if err := b.WriteUint32(w); err != nil {
			return err
		}
	}
	return nil
}

func writeSequenceNumberSet(b *cdr.Buffer, set rtps.SequenceNumberSet) error {
	if err := writeSequenceNumber(b, set.Base); err != nil {
		return err
	}
	return writeWords(b, set.NumBits(), set.Words())
}

func writeFragmentNumberSet(b *cdr.Buffer, set rtps.FragmentNumberSet) error {
	if err := b.WriteUint32(uint32(set.Base)); err != nil {
		return err
	}
	return writeWords(b, set.NumBits(), set.Words())
}

// AddInfoDst writes an INFO_DST submessage.
func AddInfoDst(b *cdr.Buffer, dst rtps.GuidPrefix) error {
	_, err := compose(b, IDInfoDst, 0, func(b *cdr.Buffer) error {
		_, err := b.Write(dst[:])
		return err
	})
	return err
}

// AddInfoTS writes an INFO_TS submessage. An invalid time is written as an
// invalidating INFO_TS with no body.
func AddInfoTS(b *cdr.Buffer, ts rtps.Time) error {
	if !ts.IsValid() {
		_, err := compose(b, IDInfoTS, FlagInvalidate, func(*cdr.Buffer) error { return nil })
		return err
	}
	_, err := compose(b, IDInfoTS, 0, func(b *cdr.Buffer) error {
		if err := b.WriteInt32(ts.Seconds); err != nil {
			return err
		}
		return b.WriteUint32(ts.Fraction)
	})
	return err
}

// InfoTSLen returns the encoded size of the INFO_TS for ts.
func InfoTSLen(ts rtps.Time) int {
	if !ts.IsValid() {
		return SubmessageHeaderSize
	}
	return InfoTSSize
}

// AddHeartbeat writes a HEARTBEAT submessage.
func AddHeartbeat(b *cdr.Buffer, reader, writer rtps.EntityID, first, last rtps.SequenceNumber, count uint32, final, liveliness bool) error {
	var flags byte
	if final {
		flags |= FlagFinal
	}
	if liveliness {
		flags |= FlagLiveliness
	}
	_, err := compose(b, IDHeartbeat, flags, func(b *cdr.Buffer) error {
		if err := writeEntityIDs(b, reader, writer); err != nil {
			return err
		}
		if err := writeSequenceNumber(b, first); err != nil {
			return err
		}
		if err := writeSequenceNumber(b, last); err != nil {
			return err
		}
		return b.WriteUint32(count)
	})
	return err
}

// AddGap writes a GAP submessage declaring [gapStart, gapList.Base) and
// every member of gapList irrelevant.
func AddGap(b *cdr.Buffer, reader, writer rtps.EntityID, gapStart rtps.SequenceNumber, gapList rtps.SequenceNumberSet) error {
	_, err := compose(b, IDGap, 0, func(b *cdr.Buffer) error {
		if err := writeEntityIDs(b, reader, writer); err != nil {
			return err
		}
		if err := writeSequenceNumber(b, gapStart); err != nil {
			return err
		}
		return writeSequenceNumberSet(b, gapList)
	})
	return err
}

// AddAckNack writes an ACKNACK submessage.
func AddAckNack(b *cdr.Buffer, reader, writer rtps.EntityID, set rtps.SequenceNumberSet, count uint32, final bool) error {
	var flags byte
	if final {
		flags |= FlagFinal
	}
	_, err := compose(b, IDAckNack, flags, func(b *cdr.Buffer) error {
		if err := writeEntityIDs(b, reader, writer); err != nil {
			return err
		}
		if err := writeSequenceNumberSet(b, set); err != nil {
			return err
		}
		return b.WriteUint32(count)
	})
	return err
}

// AddNackFrag writes a NACK_FRAG submessage.
func AddNackFrag(b *cdr.Buffer, reader, writer rtps.EntityID, sn rtps.SequenceNumber, set rtps.FragmentNumberSet, count uint32) error {
	_, err := compose(b, IDNackFrag, 0, func(b *cdr.Buffer) error {
		if err := writeEntityIDs(b, reader, writer); err != nil {
			return err
		}
		if err := writeSequenceNumber(b, sn); err != nil {
			return err
		}
		if err := writeFragmentNumberSet(b, set); err != nil {
			return err
		}
		return b.WriteUint32(count)
	})
	return err
}
