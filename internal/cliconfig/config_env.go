package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (RTPSGROUP_*). It respects flags that have been explicitly set.
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setStringsFromString("dest", os.Getenv("RTPSGROUP_DESTINATIONS"), &cfg.Destinations)
	s.setString("listen", os.Getenv("RTPSGROUP_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("participant", os.Getenv("RTPSGROUP_PARTICIPANT_PREFIX"), &cfg.ParticipantPrefix)
	s.setString("state-dir", os.Getenv("RTPSGROUP_STATE_DIR"), &cfg.StateDir)
	s.setString("security-key", os.Getenv("RTPSGROUP_SECURITY_KEY"), &cfg.SecurityKey)
	s.setString("log-level", os.Getenv("RTPSGROUP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("sample-interval", os.Getenv("RTPSGROUP_SAMPLE_INTERVAL"), &cfg.SampleInterval); err != nil {
		return err
	}
	if err := s.setDuration("interval", os.Getenv("RTPSGROUP_PUBLISH_INTERVAL"), &cfg.PublishInterval); err != nil {
		return err
	}
	if err := s.setDuration("max-blocking", os.Getenv("RTPSGROUP_MAX_BLOCKING"), &cfg.MaxBlocking); err != nil {
		return err
	}

	ints := []struct {
		flag, env string
		dst       *int
	}{
		{"send-buffer", "RTPSGROUP_SEND_BUFFER", &cfg.SendBuffer},
		{"writer-key", "RTPSGROUP_WRITER_KEY", &cfg.WriterKey},
		{"payload-size", "RTPSGROUP_PAYLOAD_SIZE", &cfg.PayloadSize},
		{"samples", "RTPSGROUP_SAMPLES", &cfg.Samples},
		{"max-message-size", "RTPSGROUP_MAX_MESSAGE_SIZE", &cfg.MaxMessageSize},
		{"fragment-size", "RTPSGROUP_FRAGMENT_SIZE", &cfg.FragmentSize},
		{"history-depth", "RTPSGROUP_HISTORY_DEPTH", &cfg.HistoryDepth},
	}
	for _, i := range ints {
		if err := s.setIntFromString(i.flag, os.Getenv(i.env), i.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("inline-qos", os.Getenv("RTPSGROUP_EXPECTS_INLINE_QOS"), &cfg.ExpectsInlineQos)
	s.setBoolFromString("once", os.Getenv("RTPSGROUP_ONCE"), &cfg.Once)
	s.setBoolFromString("dry-run", os.Getenv("RTPSGROUP_DRY_RUN"), &cfg.DryRun)
	s.setBoolFromString("watch", os.Getenv("RTPSGROUP_WATCH"), &cfg.Watch)

	return nil
}
