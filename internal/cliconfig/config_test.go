package cliconfig

import (
	"bytes"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ListenAddr != ":0" {
		t.Errorf("ListenAddr = %v, want :0", cfg.ListenAddr)
	}
	if cfg.PublishInterval != 100*time.Millisecond {
		t.Errorf("PublishInterval = %v, want 100ms", cfg.PublishInterval)
	}
	if cfg.MaxMessageSize != 65500 {
		t.Errorf("MaxMessageSize = %v, want 65500", cfg.MaxMessageSize)
	}
	if cfg.FragmentSize != 16<<10 {
		t.Errorf("FragmentSize = %v, want 16KB", cfg.FragmentSize)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Destinations = []string{"01.0f.00.00.00.00.00.00.00.00.00.01@127.0.0.1:7411"}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults with destination", func(*Config) {}, false},
		{"missing destinations", func(c *Config) { c.Destinations = nil }, true},
		{"dry run needs no destinations", func(c *Config) { c.Destinations = nil; c.DryRun = true }, false},
		{"zero payload", func(c *Config) { c.PayloadSize = 0 }, true},
		{"negative samples", func(c *Config) { c.Samples = -1 }, true},
		{"zero sample interval", func(c *Config) { c.SampleInterval = 0 }, true},
		{"zero publish interval", func(c *Config) { c.PublishInterval = 0 }, true},
		{"zero max blocking", func(c *Config) { c.MaxBlocking = 0 }, true},
		{"message too small", func(c *Config) { c.MaxMessageSize = 20 }, true},
		{"fragment too large", func(c *Config) { c.FragmentSize = 70000 }, true},
		{"fragment not below message size", func(c *Config) { c.MaxMessageSize = 1000; c.FragmentSize = 1000 }, true},
		{"fragmentation disabled", func(c *Config) { c.FragmentSize = 0 }, false},
		{"writer key zero", func(c *Config) { c.WriterKey = 0 }, true},
		{"writer key over 24 bits", func(c *Config) { c.WriterKey = 1 << 24 }, true},
		{"bad security key", func(c *Config) { c.SecurityKey = "zz" }, true},
		{"short security key", func(c *Config) { c.SecurityKey = "0011" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateDerivedDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.Once = true
	cfg.HistoryDepth = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Samples != 1 {
		t.Errorf("Samples = %d, want 1 for --once", cfg.Samples)
	}
	if cfg.HistoryDepth != 1 {
		t.Errorf("HistoryDepth = %d, want 1", cfg.HistoryDepth)
	}
}

func TestConfig_Key(t *testing.T) {
	cfg := Config{}
	key, err := cfg.Key()
	if err != nil || key != nil {
		t.Fatalf("Key() without key = %v, %v", key, err)
	}

	cfg.SecurityKey = "000102030405060708090a0b0c0d0e0f"
	key, err = cfg.Key()
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	if !bytes.Equal(key, want) {
		t.Errorf("Key() = %x, want %x", key, want)
	}
}

func TestConfig_Masked(t *testing.T) {
	cfg := Config{SecurityKey: "000102030405060708090a0b0c0d0e0f"}
	masked := cfg.Masked()
	if masked.SecurityKey != "***" {
		t.Errorf("masked key = %q", masked.SecurityKey)
	}
	if cfg.SecurityKey == "***" {
		t.Error("Masked modified the original")
	}
	if (Config{}).Masked().SecurityKey != "" {
		t.Error("empty key should stay empty")
	}
}
