package cliconfig

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/rtpsgroup/pkg/messages"
)

// Config holds CLI configuration for rtpsgroup.
type Config struct {
	Destinations []string
	ListenAddr   string
	SendBuffer   int

	ParticipantPrefix string
	StateDir          string
	WriterKey         int

	PayloadSize    int
	Samples        int
	SampleInterval time.Duration

	PublishInterval time.Duration
	MaxBlocking     time.Duration
	MaxMessageSize  int
	FragmentSize    int
	HistoryDepth    int

	SecurityKey      string
	ExpectsInlineQos bool

	Once     bool
	DryRun   bool
	Watch    bool
	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":0",
		WriterKey:       1,
		PayloadSize:     256,
		SampleInterval:  100 * time.Millisecond,
		PublishInterval: 100 * time.Millisecond,
		MaxBlocking:     100 * time.Millisecond,
		MaxMessageSize:  65500,
		FragmentSize:    16 << 10, // 16KB
		HistoryDepth:    64,
		LogLevel:        "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if len(c.Destinations) == 0 && !c.DryRun {
		return fmt.Errorf("at least one destination is required (or dry-run)")
	}
	if c.PayloadSize <= 0 {
		return fmt.Errorf("payload size must be positive")
	}
	if c.Samples < 0 {
		return fmt.Errorf("samples must not be negative")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive")
	}
	if c.PublishInterval <= 0 {
		return fmt.Errorf("publish interval must be positive")
	}
	if c.MaxBlocking <= 0 {
		return fmt.Errorf("max blocking time must be positive")
	}
	if c.MaxMessageSize < messages.HeaderSize+messages.SubmessageHeaderSize {
		return fmt.Errorf("max message size %d too small", c.MaxMessageSize)
	}
	if c.FragmentSize < 0 || c.FragmentSize > 0xffff {
		return fmt.Errorf("fragment size must be between 0 and 65535")
	}
	if c.FragmentSize > 0 && c.FragmentSize >= c.MaxMessageSize {
		return fmt.Errorf("fragment size must be smaller than the max message size")
	}
	if c.WriterKey <= 0 || c.WriterKey > 0xffffff {
		return fmt.Errorf("writer key must fit 24 bits")
	}
	if c.HistoryDepth <= 0 {
		c.HistoryDepth = 1
	}
	if _, err := c.Key(); err != nil {
		return err
	}
	if c.Once && c.Samples == 0 {
		c.Samples = 1
	}
	return nil
}

// Key decodes the hex security key. It returns nil when no key is set.
func (c *Config) Key() ([]byte, error) {
	if c.SecurityKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.SecurityKey)
	if err != nil {
		return nil, fmt.Errorf("security key: %w", err)
	}
	if len(key) != 16 && len(key) != 32 {
		return nil, fmt.Errorf("security key must be 16 or 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.SecurityKey != "" {
		c.SecurityKey = "***"
	}
	return c
}

// configSetter applies values from a lower-precedence source unless the
// corresponding flag was set explicitly.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses an int from an environment value.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setStringsFromString splits a comma separated environment value.
func (s *configSetter) setStringsFromString(flag, value string, dst *[]string) {
	if value == "" || s.changed[flag] {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
