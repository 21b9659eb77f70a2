package cliconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bft-labs/rtpsgroup/pkg/rtps"
)

// DefaultIdentityName is the file under StateDir holding the participant
// identity.
const DefaultIdentityName = "participant.json"

type participantIdentity struct {
	GuidPrefix string    `json:"guid_prefix"`
	CreatedAt  time.Time `json:"created_at"`
}

// LoadParticipant resolves the local GUID prefix. An explicit
// ParticipantPrefix wins; otherwise the identity file in StateDir is read,
// and created with a fresh prefix when missing. Without a StateDir the
// prefix is generated for this run only. The resolved prefix is written
// back to cfg.ParticipantPrefix.
func LoadParticipant(cfg *Config, vendor rtps.VendorID) (rtps.GuidPrefix, error) {
	if cfg.ParticipantPrefix != "" {
		p, err := rtps.ParseGuidPrefix(cfg.ParticipantPrefix)
		if err != nil {
			return p, fmt.Errorf("participant prefix: %w", err)
		}
		return p, nil
	}

	if cfg.StateDir == "" {
		p := rtps.NewGuidPrefix(vendor)
		cfg.ParticipantPrefix = p.String()
		return p, nil
	}

	path := filepath.Join(cfg.StateDir, DefaultIdentityName)
	p, err := readIdentity(path)
	if errors.Is(err, os.ErrNotExist) {
		p = rtps.NewGuidPrefix(vendor)
		err = writeIdentity(path, p)
	}
	if err != nil {
		return p, fmt.Errorf("participant identity: %w", err)
	}
	cfg.ParticipantPrefix = p.String()
	return p, nil
}

func readIdentity(path string) (rtps.GuidPrefix, error) {
	var p rtps.GuidPrefix
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	var id participantIdentity
	if err := json.Unmarshal(b, &id); err != nil {
		return p, fmt.Errorf("decode %s: %w", path, err)
	}
	return rtps.ParseGuidPrefix(id.GuidPrefix)
}

func writeIdentity(path string, p rtps.GuidPrefix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(participantIdentity{
		GuidPrefix: p.String(),
		CreatedAt:  time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
