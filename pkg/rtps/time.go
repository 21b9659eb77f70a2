package rtps

import "time"

// Time is the RTPS wire timestamp: seconds since the epoch plus a binary
// fraction of a second.
type Time struct {
	Seconds  int32
	Fraction uint32
}

// TimeInvalid is TIME_INVALID.
var TimeInvalid = Time{Seconds: -1, Fraction: 0xffffffff}

// FromTime converts a wall-clock time.
func FromTime(t time.Time) Time {
	ns := uint64(t.Nanosecond())
	return Time{
		Seconds:  int32(t.Unix()),
		Fraction: uint32((ns << 32) / uint64(time.Second)),
	}
}

// Time converts back to a wall-clock time, rounding the fraction to
// nanoseconds.
func (t Time) Time() time.Time {
	ns := (uint64(t.Fraction)*uint64(time.Second) + (1 << 31)) >> 32
	return time.Unix(int64(t.Seconds), int64(ns))
}

// IsValid reports whether t is not TimeInvalid.
func (t Time) IsValid() bool {
	return t != TimeInvalid
}
