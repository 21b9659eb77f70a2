package rtps

// SequenceNumber orders the samples of one writer. On the wire it is split
// into a signed high word and an unsigned low word.
type SequenceNumber int64

// SequenceNumberUnknown is the RTPS SEQUENCENUMBER_UNKNOWN value {-1, 0}.
const SequenceNumberUnknown SequenceNumber = -1 << 32

// NewSequenceNumber joins the two wire words.
func NewSequenceNumber(high int32, low uint32) SequenceNumber {
	return SequenceNumber(int64(high)<<32 | int64(low))
}

// High returns the upper wire word.
func (s SequenceNumber) High() int32 {
	return int32(int64(s) >> 32)
}

// Low returns the lower wire word.
func (s SequenceNumber) Low() uint32 {
	return uint32(int64(s))
}

// MaxSetBits is the largest bitmap a sequence or fragment number set may carry.
const MaxSetBits = 256

// bitmap is the sparse part of a number set. Bit 0 is the most significant
// bit of the first word, matching the wire layout.
type bitmap struct {
	numBits uint32
	words   [MaxSetBits / 32]uint32
}

func (b *bitmap) set(off uint32) {
	b.words[off/32] |= 1 << (31 - off%32)
	if off+1 > b.numBits {
		b.numBits = off + 1
	}
}

func (b *bitmap) test(off uint32) bool {
	if off >= b.numBits {
		return false
	}
	return b.words[off/32]&(1<<(31-off%32)) != 0
}

// NumBits returns the number of significant bits.
func (b *bitmap) NumBits() uint32 {
	return b.numBits
}

// Words returns the bitmap words that go on the wire.
func (b *bitmap) Words() []uint32 {
	return b.words[:(b.numBits+31)/32]
}

// Empty reports whether no bit is set.
func (b *bitmap) Empty() bool {
	for _, w := range b.Words() {
		if w != 0 {
			return false
		}
	}
	return true
}

// SequenceNumberSet is a base plus a bitmap over at most 256 following
// sequence numbers.
type SequenceNumberSet struct {
	Base SequenceNumber
	bitmap
}

// NewSequenceNumberSet returns an empty set starting at base.
func NewSequenceNumberSet(base SequenceNumber) SequenceNumberSet {
	return SequenceNumberSet{Base: base}
}

// Add marks sn. It returns false when sn falls outside the set's window.
func (s *SequenceNumberSet) Add(sn SequenceNumber) bool {
	if sn < s.Base || sn-s.Base >= MaxSetBits {
		return false
	}
	s.set(uint32(sn - s.Base))
	return true
}

// Contains reports whether sn is marked.
func (s SequenceNumberSet) Contains(sn SequenceNumber) bool {
	if sn < s.Base || sn-s.Base >= MaxSetBits {
		return false
	}
	return s.test(uint32(sn - s.Base))
}

// Members returns the marked sequence numbers in ascending order.
func (s SequenceNumberSet) Members() []SequenceNumber {
	var out []SequenceNumber
	for i := uint32(0); i < s.numBits; i++ {
		if s.test(i) {
			out = append(out, s.Base+SequenceNumber(i))
		}
	}
	return out
}
