package cliconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Destinations:    []string{"x@127.0.0.1:7411"},
				WriterKey:       7,
				PublishInterval: "250ms",
				FragmentSize:    1024,
				Once:            &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Destinations:    []string{"x@127.0.0.1:7411"},
				WriterKey:       7,
				PublishInterval: 250 * time.Millisecond,
				FragmentSize:    1024,
				Once:            true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				ListenAddr: ":7400",
				LogLevel:   "warn",
			},
			changed: map[string]bool{"listen": true},
			initial: Config{ListenAddr: ":9000", LogLevel: "info"},
			expected: Config{
				ListenAddr: ":9000", // unchanged because flag was set
				LogLevel:   "warn",
			},
		},
		{
			name:       "explicit false disables watch",
			fileConfig: FileConfig{Watch: &falseVal},
			changed:    map[string]bool{},
			initial:    Config{Watch: true},
			expected:   Config{Watch: false},
		},
		{
			name:       "zero values leave config alone",
			fileConfig: FileConfig{},
			changed:    map[string]bool{},
			initial:    Config{PayloadSize: 64},
			expected:   Config{PayloadSize: 64},
		},
		{
			name:       "invalid duration",
			fileConfig: FileConfig{SampleInterval: "often"},
			changed:    map[string]bool{},
			initial:    Config{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyFileConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		`destinations = ["01.0f.00.00.00.00.00.00.00.00.00.02@127.0.0.1:7411"]`,
		`publish_interval = "50ms"`,
		`history_depth = 8`,
		`expects_inline_qos = true`,
		`log_level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}
	if len(fc.Destinations) != 1 || fc.PublishInterval != "50ms" || fc.HistoryDepth != 8 {
		t.Errorf("unexpected file config: %+v", fc)
	}
	if fc.ExpectsInlineQos == nil || !*fc.ExpectsInlineQos {
		t.Error("expects_inline_qos not decoded")
	}
	if fc.Once != nil {
		t.Error("unset bool should stay nil")
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("destinations = ["), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(path); err == nil {
		t.Error("expected error for malformed toml")
	}
}

func TestPrecedence_FileOverEnvOverFlags(t *testing.T) {
	t.Setenv("RTPSGROUP_LOG_LEVEL", "warn")
	t.Setenv("RTPSGROUP_PAYLOAD_SIZE", "512")

	cfg := DefaultConfig()
	changed := map[string]bool{}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatal(err)
	}
	if err := ApplyFileConfig(&cfg, FileConfig{LogLevel: "error"}, changed); err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want file value", cfg.LogLevel)
	}
	if cfg.PayloadSize != 512 {
		t.Errorf("PayloadSize = %d, want env value", cfg.PayloadSize)
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if FileExists(path) {
		t.Error("FileExists true before creation")
	}
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("FileExists false after creation")
	}
}
