package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type prefix string

func (p prefix) String() string { return "prefix:" + string(p) }

func TestZerologAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf))

	z.Info("flushed",
		Int("bytes", 64),
		Stringer("dst", prefix("01")),
		Err(errors.New("boom")),
		Bool("final", true),
		Uint32("count", 7),
		Time("deadline", time.Unix(0, 0).UTC()),
	)

	out := buf.String()
	for _, want := range []string{`"bytes":64`, `"dst":"prefix:01"`, `"error":"boom"`, `"final":true`, `"count":7`, `"deadline":"1970-01-01T00:00:00Z"`, `"message":"flushed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestZerologAdapter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	z.Debug("hidden")
	z.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug/info written at warn level: %s", buf.String())
	}
	z.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn not written")
	}
}

func TestZerologAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	z := NewZerologAdapterWithLogger(zerolog.New(&buf)).With(String("component", "group"))
	z.Error("failed")
	if !strings.Contains(buf.String(), `"component":"group"`) {
		t.Errorf("component field missing: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{" WARN ", zerolog.WarnLevel, true},
		{"", zerolog.InfoLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v,%v want %v,%v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
