package rtps

// FragmentNumber identifies a piece of a fragmented sample. Numbering
// starts at 1.
type FragmentNumber uint32

// FragmentNumberSet is a base plus a bitmap over at most 256 following
// fragment numbers.
type FragmentNumberSet struct {
	Base FragmentNumber
	bitmap
}

// NewFragmentNumberSet returns an empty set starting at base.
func NewFragmentNumberSet(base FragmentNumber) FragmentNumberSet {
	return FragmentNumberSet{Base: base}
}

// Add marks fn. It returns false when fn falls outside the set's window.
func (s *FragmentNumberSet) Add(fn FragmentNumber) bool {
	if fn < s.Base || fn-s.Base >= MaxSetBits {
		return false
	}
	s.set(uint32(fn - s.Base))
	return true
}

// Contains reports whether fn is marked.
func (s FragmentNumberSet) Contains(fn FragmentNumber) bool {
	if fn < s.Base || fn-s.Base >= MaxSetBits {
		return false
	}
	return s.test(uint32(fn - s.Base))
}

// Members returns the marked fragment numbers in ascending order.
func (s FragmentNumberSet) Members() []FragmentNumber {
	var out []FragmentNumber
	for i := uint32(0); i < s.numBits; i++ {
		if s.test(i) {
			out = append(out, s.Base+FragmentNumber(i))
		}
	}
	return out
}
