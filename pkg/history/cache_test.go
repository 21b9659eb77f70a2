package history

import (
	"errors"
	"testing"

	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

var testWriter = rtps.GUID{Prefix: rtps.GuidPrefix{1}, Entity: rtps.NewEntityID(1, rtps.EntityKindWriterNoKey)}

func TestCache_AddAssignsSequenceNumbers(t *testing.T) {
	c := New(testWriter, 10, 0)

	if first, last := c.Bounds(); first != 1 || last != 0 {
		t.Errorf("empty bounds = [%d, %d], want [1, 0]", first, last)
	}
	if _, ok := c.Min(); ok {
		t.Error("Min on empty history")
	}

	payload := []byte("abc")
	for i := 1; i <= 3; i++ {
		ch, err := c.Add(payload, rtps.Time{Seconds: int32(i)})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if ch.SequenceNumber != rtps.SequenceNumber(i) {
			t.Errorf("sn = %d, want %d", ch.SequenceNumber, i)
		}
		if ch.WriterGUID != testWriter {
			t.Errorf("writer = %s", ch.WriterGUID)
		}
	}
	payload[0] = 'x'
	if ch, _ := c.Get(1); ch.Payload[0] != 'a' {
		t.Error("payload not copied")
	}

	if first, last := c.Bounds(); first != 1 || last != 3 {
		t.Errorf("bounds = [%d, %d], want [1, 3]", first, last)
	}
	if _, err := c.Add(nil, rtps.Time{}); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("empty payload = %v", err)
	}
}

func TestCache_KeepLastEvicts(t *testing.T) {
	c := New(testWriter, 2, 0)
	for i := 0; i < 5; i++ {
		_, _ = c.Add([]byte{byte(i)}, rtps.Time{})
	}

	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	if lo, _ := c.Min(); lo != 4 {
		t.Errorf("min = %d, want 4", lo)
	}
	if hi, _ := c.Max(); hi != 5 {
		t.Errorf("max = %d, want 5", hi)
	}
	if _, ok := c.Get(3); ok {
		t.Error("evicted change still returned")
	}
	if ch, ok := c.Get(5); !ok || ch.Payload[0] != 4 {
		t.Errorf("Get(5) = %v, %v", ch, ok)
	}

	next, evicted := c.Stats()
	if next != 6 || evicted != 3 {
		t.Errorf("stats = %d, %d", next, evicted)
	}

	got := c.Evicted(2, 5)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("Evicted(2, 5) = %v, want [2 3]", got)
	}
}

func TestCache_Range(t *testing.T) {
	c := New(testWriter, 10, 0)
	for i := 0; i < 6; i++ {
		_, _ = c.Add([]byte{byte(i)}, rtps.Time{})
	}

	tests := []struct {
		name     string
		from, to rtps.SequenceNumber
		want     []rtps.SequenceNumber
	}{
		{"all", 1, 6, []rtps.SequenceNumber{1, 2, 3, 4, 5, 6}},
		{"middle", 3, 4, []rtps.SequenceNumber{3, 4}},
		{"past end", 5, 100, []rtps.SequenceNumber{5, 6}},
		{"empty", 7, 9, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Range(tt.from, tt.to)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, ch := range got {
				if ch.SequenceNumber != tt.want[i] {
					t.Errorf("[%d] = %d, want %d", i, ch.SequenceNumber, tt.want[i])
				}
			}
		})
	}
}

func TestCache_MarksFragmentation(t *testing.T) {
	c := New(testWriter, 4, 8)
	small, _ := c.Add(make([]byte, 8), rtps.Time{})
	large, _ := c.Add(make([]byte, 20), rtps.Time{})

	if small.FragmentSize != 0 {
		t.Error("payload equal to fragment size marked for fragmentation")
	}
	if large.FragmentSize != 8 || large.FragmentCount() != 3 {
		t.Errorf("large change: size %d, count %d", large.FragmentSize, large.FragmentCount())
	}
}

func TestCache_AddChangeDispose(t *testing.T) {
	c := New(testWriter, 4, 0)
	ch := c.AddChange(rtps.NotAliveDisposed, rtps.InstanceHandle{9}, []byte{0, 1, 0, 0}, rtps.Time{})
	if ch.Kind != rtps.NotAliveDisposed || !ch.HasKey() {
		t.Errorf("change = %+v", ch)
	}
}
