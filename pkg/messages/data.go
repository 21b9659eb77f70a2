package messages

import (
	"github.com/bft-labs/rtpsgroup/pkg/cdr"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// Parameter ids used in inline QoS.
const (
	PIDSentinel   uint16 = 0x0001
	PIDKeyHash    uint16 = 0x0070
	PIDStatusInfo uint16 = 0x0071
)

const (
	statusDisposed     byte = 0x01
	statusUnregistered byte = 0x02
)

// octetsToInlineQos values: bytes between that field and the inline QoS.
const (
	dataOctetsToInlineQos     = 16
	dataFragOctetsToInlineQos = 28
)

func statusInfo(kind rtps.ChangeKind) byte {
	switch kind {
	case rtps.NotAliveDisposed:
		return statusDisposed
	case rtps.NotAliveUnregistered:
		return statusUnregistered
	case rtps.NotAliveDisposedUnregistered:
		return statusDisposed | statusUnregistered
	default:
		return 0
	}
}

// needsInlineQos reports whether a parameter list must follow the fixed
// part. Instance state changes always carry one.
func needsInlineQos(change *rtps.CacheChange, expectsInlineQos bool) bool {
	return expectsInlineQos || change.Kind != rtps.Alive
}

func writeInlineQos(b *cdr.Buffer, change *rtps.CacheChange) error {
	if change.HasKey() {
		if err := b.WriteUint16(PIDKeyHash); err != nil {
			return err
		}
		if err := b.WriteUint16(16); err != nil {
			return err
		}
		if _, err := b.Write(change.InstanceHandle[:]); err != nil {
			return err
		}
	}
	if change.Kind != rtps.Alive {
		if err := b.WriteUint16(PIDStatusInfo); err != nil {
			return err
		}
		if err := b.WriteUint16(4); err != nil {
			return err
		}
		if _, err := b.Write([]byte{0, 0, 0, statusInfo(change.Kind)}); err != nil {
			return err
		}
	}
	if err := b.WriteUint16(PIDSentinel); err != nil {
		return err
	}
	return b.WriteUint16(0)
}

func writeAligned(b *cdr.Buffer, p []byte) error {
	if _, err := b.Write(p); err != nil {
		return err
	}
	if pad := (4 - len(p)%4) % 4; pad > 0 {
		return b.WriteZeros(pad)
	}
	return nil
}

// AddData writes a DATA submessage for change addressed to reader. Alive
// changes carry their payload; instance state changes carry only inline
// QoS. big reports a submessage that must end its message.
func AddData(b *cdr.Buffer, change *rtps.CacheChange, reader rtps.EntityID, expectsInlineQos bool) (big bool, err error) {
	inlineQos := needsInlineQos(change, expectsInlineQos)
	withData := change.Kind == rtps.Alive && len(change.Payload) > 0

	var flags byte
	if inlineQos {
		flags |= FlagInlineQos
	}
	if withData {
		flags |= FlagData
	}

	return compose(b, IDData, flags, func(b *cdr.Buffer) error {
		if err := b.WriteUint16(0); err != nil {
			return err
		}
		if err := b.WriteUint16(dataOctetsToInlineQos); err != nil {
			return err
		}
		if err := writeEntityIDs(b, reader, change.WriterGUID.Entity); err != nil {
			return err
		}
		if err := writeSequenceNumber(b, change.SequenceNumber); err != nil {
			return err
		}
		if inlineQos {
			if err := writeInlineQos(b, change); err != nil {
				return err
			}
		}
		if withData {
			return writeAligned(b, change.Payload)
		}
		return nil
	})
}

// AddDataFrag writes a DATA_FRAG submessage carrying fragment fn of change.
// The caller validates fn against change.FragmentCount.
func AddDataFrag(b *cdr.Buffer, change *rtps.CacheChange, reader rtps.EntityID, fn rtps.FragmentNumber, expectsInlineQos bool) (big bool, err error) {
	inlineQos := needsInlineQos(change, expectsInlineQos)

	var flags byte
	if inlineQos {
		flags |= FlagInlineQos
	}

	return compose(b, IDDataFrag, flags, func(b *cdr.Buffer) error {
		if err := b.WriteUint16(0); err != nil {
			return err
		}
		if err := b.WriteUint16(dataFragOctetsToInlineQos); err != nil {
			return err
		}
		if err := writeEntityIDs(b, reader, change.WriterGUID.Entity); err != nil {
			return err
		}
		if err := writeSequenceNumber(b, change.SequenceNumber); err != nil {
			return err
		}
		if err := b.WriteUint32(uint32(fn)); err != nil {
			return err
		}
		if err := b.WriteUint16(1); err != nil {
			return err
		}
		if err := b.WriteUint16(change.FragmentSize); err != nil {
			return err
		}
		if err := b.WriteUint32(uint32(len(change.Payload))); err != nil {
			return err
		}
		if inlineQos {
			if err := writeInlineQos(b, change); err != nil {
				return err
			}
		}
		return writeAligned(b, change.Fragment(fn))
	})
}
