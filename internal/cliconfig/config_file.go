package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Destinations      []string `toml:"destinations"`
	ListenAddr        string   `toml:"listen_addr"`
	SendBuffer        int      `toml:"send_buffer"`
	ParticipantPrefix string   `toml:"participant_prefix"`
	StateDir          string   `toml:"state_dir"`
	WriterKey         int      `toml:"writer_key"`
	PayloadSize       int      `toml:"payload_size"`
	Samples           int      `toml:"samples"`
	SampleInterval    string   `toml:"sample_interval"`
	PublishInterval   string   `toml:"publish_interval"`
	MaxBlocking       string   `toml:"max_blocking"`
	MaxMessageSize    int      `toml:"max_message_size"`
	FragmentSize      int      `toml:"fragment_size"`
	HistoryDepth      int      `toml:"history_depth"`
	SecurityKey       string   `toml:"security_key"`
	ExpectsInlineQos  *bool    `toml:"expects_inline_qos"`
	Once              *bool    `toml:"once"`
	Watch             *bool    `toml:"watch"`
	LogLevel          string   `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.rtpsgroup/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".rtpsgroup", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStrings("dest", fc.Destinations, &cfg.Destinations)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("participant", fc.ParticipantPrefix, &cfg.ParticipantPrefix)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("security-key", fc.SecurityKey, &cfg.SecurityKey)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("sample-interval", fc.SampleInterval, &cfg.SampleInterval); err != nil {
		return err
	}
	if err := s.setDuration("interval", fc.PublishInterval, &cfg.PublishInterval); err != nil {
		return err
	}
	if err := s.setDuration("max-blocking", fc.MaxBlocking, &cfg.MaxBlocking); err != nil {
		return err
	}

	s.setInt("send-buffer", fc.SendBuffer, &cfg.SendBuffer)
	s.setInt("writer-key", fc.WriterKey, &cfg.WriterKey)
	s.setInt("payload-size", fc.PayloadSize, &cfg.PayloadSize)
	s.setInt("samples", fc.Samples, &cfg.Samples)
	s.setInt("max-message-size", fc.MaxMessageSize, &cfg.MaxMessageSize)
	s.setInt("fragment-size", fc.FragmentSize, &cfg.FragmentSize)
	s.setInt("history-depth", fc.HistoryDepth, &cfg.HistoryDepth)

	s.setBool("inline-qos", fc.ExpectsInlineQos, &cfg.ExpectsInlineQos)
	s.setBool("once", fc.Once, &cfg.Once)
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
