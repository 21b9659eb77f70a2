package rtps

// ChangeKind tells whether a change carries data or an instance state
// transition.
type ChangeKind int

const (
	Alive ChangeKind = iota
	NotAliveDisposed
	NotAliveUnregistered
	NotAliveDisposedUnregistered
)

func (k ChangeKind) String() string {
	switch k {
	case Alive:
		return "Alive"
	case NotAliveDisposed:
		return "NotAliveDisposed"
	case NotAliveUnregistered:
		return "NotAliveUnregistered"
	case NotAliveDisposedUnregistered:
		return "NotAliveDisposedUnregistered"
	default:
		return "Unknown"
	}
}

// InstanceHandle is the 16-byte key hash of a keyed sample.
type InstanceHandle [16]byte

// CacheChange is one sample held in a writer history. Message assembly only
// reads it.
type CacheChange struct {
	Kind            ChangeKind
	WriterGUID      GUID
	SequenceNumber  SequenceNumber
	SourceTimestamp Time
	InstanceHandle  InstanceHandle

	// Payload is the serialized sample including its 4-byte encapsulation
	// header.
	Payload []byte

	// FragmentSize is the size of every fragment but the last. Zero means
	// the change is sent unfragmented.
	FragmentSize uint16
}

// HasKey reports whether an instance handle was set.
func (c *CacheChange) HasKey() bool {
	return c.InstanceHandle != InstanceHandle{}
}

// FragmentCount returns how many fragments the payload splits into, or
// zero when the change is not fragmented.
func (c *CacheChange) FragmentCount() uint32 {
	if c.FragmentSize == 0 {
		return 0
	}
	size := uint32(c.FragmentSize)
	return (uint32(len(c.Payload)) + size - 1) / size
}

// Fragment returns the bytes of fragment fn (1-based). The caller must
// check the range first.
func (c *CacheChange) Fragment(fn FragmentNumber) []byte {
	size := int(c.FragmentSize)
	start := int(fn-1) * size
	end := start + size
	if end > len(c.Payload) {
		end = len(c.Payload)
	}
	return c.Payload[start:end]
}
