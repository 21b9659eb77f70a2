package main

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/bft-labs/rtpsgroup/internal/cliconfig"
	"github.com/bft-labs/rtpsgroup/pkg/log"
	"github.com/bft-labs/rtpsgroup/pkg/sender"
)

func TestSamplePayload(t *testing.T) {
	p := samplePayload(7, 32)
	if len(p) != 32 {
		t.Fatalf("len = %d, want 32", len(p))
	}
	if p[0] != 0 || p[1] != 0x01 {
		t.Errorf("encapsulation = %x, want 0001", p[:2])
	}
	if binary.LittleEndian.Uint32(p[4:]) != 7 {
		t.Error("sample index not encoded")
	}
	if len(samplePayload(0, 2)) != 8 {
		t.Error("payload shorter than the encapsulation header")
	}
}

func TestParseDestinations(t *testing.T) {
	dests, err := parseDestinations([]string{
		"01.0f.00.00.00.00.00.00.00.00.00.02@127.0.0.1:7411",
		"010f00000000000000000003/00000104@127.0.0.1:7412",
	})
	if err != nil {
		t.Fatalf("parseDestinations: %v", err)
	}
	if len(dests) != 2 || dests[1].Addr.Port() != 7412 {
		t.Errorf("unexpected destinations: %v", dests)
	}
	if _, err := parseDestinations([]string{"nope"}); err == nil {
		t.Error("expected error for malformed destination")
	}
}

func TestRoundLogger_DrainsRecorder(t *testing.T) {
	rec := sender.NewRecorder()
	r := &roundLogger{logger: log.NewNoopLogger(), recorder: rec}
	r.OnSendSuccess(0, 0, time.Millisecond)
	if len(rec.Messages()) != 0 {
		t.Error("recorder not drained")
	}
}

func TestReload_IgnoresEmptyDestinations(t *testing.T) {
	udp, err := sender.ListenUDP("127.0.0.1:0", 0, nil)
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer udp.Close()
	d, _ := sender.ParseDestination("01.0f.00.00.00.00.00.00.00.00.00.02@127.0.0.1:7411")
	udp.SetDestinations([]sender.Destination{d})

	reload(cliconfig.Config{}, cliconfig.FileConfig{}, udp, nil, log.NewNoopLogger())
	if got := udp.Destinations(); len(got) != 1 || got[0] != d {
		t.Errorf("destinations changed to %v", got)
	}
}
