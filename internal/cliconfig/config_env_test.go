package cliconfig

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"RTPSGROUP_DESTINATIONS":       "a@127.0.0.1:1, b@127.0.0.1:2",
				"RTPSGROUP_LOG_LEVEL":          "debug",
				"RTPSGROUP_PUBLISH_INTERVAL":   "1s",
				"RTPSGROUP_MAX_MESSAGE_SIZE":   "1400",
				"RTPSGROUP_EXPECTS_INLINE_QOS": "1",
				"RTPSGROUP_ONCE":               "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Destinations:     []string{"a@127.0.0.1:1", "b@127.0.0.1:2"},
				LogLevel:         "debug",
				PublishInterval:  time.Second,
				MaxMessageSize:   1400,
				ExpectsInlineQos: true,
				Once:             true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"RTPSGROUP_LISTEN_ADDR": ":7400",
				"RTPSGROUP_STATE_DIR":   "/env/state",
			},
			changed: map[string]bool{"listen": true},
			initial: Config{ListenAddr: ":9000"},
			expected: Config{
				ListenAddr: ":9000",
				StateDir:   "/env/state",
			},
		},
		{
			name: "false bool overrides",
			envVars: map[string]string{
				"RTPSGROUP_WATCH": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{Watch: true},
			expected: Config{Watch: false},
		},
		{
			name:     "invalid duration",
			envVars:  map[string]string{"RTPSGROUP_MAX_BLOCKING": "soon"},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
		{
			name:     "invalid int",
			envVars:  map[string]string{"RTPSGROUP_SAMPLES": "many"},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}
