package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/rtpsgroup/internal/app"
	"github.com/bft-labs/rtpsgroup/internal/cliconfig"
	"github.com/bft-labs/rtpsgroup/pkg/group"
	"github.com/bft-labs/rtpsgroup/pkg/history"
	"github.com/bft-labs/rtpsgroup/pkg/log"
	"github.com/bft-labs/rtpsgroup/pkg/messages"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
	"github.com/bft-labs/rtpsgroup/pkg/security"
	"github.com/bft-labs/rtpsgroup/pkg/sender"
)

// vendor is written into the message header and generated prefixes.
var vendor = rtps.VendorID{0x01, 0x0f}

const helpDescription = `
Publish samples from a writer history as batched RTPS messages.

Each publish round opens a message group: unsent samples go out as DATA or
DATA_FRAG, samples evicted before they were sent are announced with GAPs,
and a HEARTBEAT closes the round. Submessages are packed into as few UDP
datagrams as the message size allows, with INFO_DST and INFO_TS emitted
only when the destination or source timestamp changes.

Destinations are written prefix[/entity]@host:port, for example
  01.0f.00.00.00.00.00.00.00.00.00.02@127.0.0.1:7411
`

var exampleUsage = strings.TrimSpace(`
  rtpsgroup --dest 01.0f.00.00.00.00.00.00.00.00.00.02@127.0.0.1:7411 --samples 100
  rtpsgroup --dry-run --once --payload-size 40000 --log-level debug
  rtpsgroup --config $HOME/.rtpsgroup/config.toml --watch
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var destinations []string

	root := &cobra.Command{
		Use:          "rtpsgroup",
		Short:        "Publish samples as batched RTPS messages",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			if changed["dest"] {
				cfg.Destinations = destinations
			}

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			zl := cliconfig.Logger(cfg.LogLevel)
			prefix, err := cliconfig.LoadParticipant(&cfg, vendor)
			if err != nil {
				return err
			}
			zl.Info().Interface("config", cfg.Masked()).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cfgFile, prefix, zl)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.rtpsgroup/config.toml)")
	flags.StringSliceVar(&destinations, "dest", nil, "destination prefix[/entity]@host:port (repeatable)")
	flags.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "local UDP address to send from")
	flags.IntVar(&cfg.SendBuffer, "send-buffer", cfg.SendBuffer, "socket send buffer size in bytes (0 keeps the OS default)")

	flags.StringVar(&cfg.ParticipantPrefix, "participant", cfg.ParticipantPrefix, "local GUID prefix (generated and persisted when empty)")
	flags.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory holding the persisted participant identity")
	flags.IntVar(&cfg.WriterKey, "writer-key", cfg.WriterKey, "entity key of the writer")

	flags.IntVar(&cfg.PayloadSize, "payload-size", cfg.PayloadSize, "bytes per generated sample")
	flags.IntVar(&cfg.Samples, "samples", cfg.Samples, "samples to generate (0 is unbounded)")
	flags.DurationVar(&cfg.SampleInterval, "sample-interval", cfg.SampleInterval, "interval between generated samples")

	flags.DurationVar(&cfg.PublishInterval, "interval", cfg.PublishInterval, "interval between publish rounds")
	flags.DurationVar(&cfg.MaxBlocking, "max-blocking", cfg.MaxBlocking, "maximum time a round may block sending")
	flags.IntVar(&cfg.MaxMessageSize, "max-message-size", cfg.MaxMessageSize, "maximum RTPS message size in bytes")
	flags.IntVar(&cfg.FragmentSize, "fragment-size", cfg.FragmentSize, "fragment samples larger than this (0 disables)")
	flags.IntVar(&cfg.HistoryDepth, "history-depth", cfg.HistoryDepth, "samples kept in the writer history")

	flags.StringVar(&cfg.SecurityKey, "security-key", cfg.SecurityKey, "hex AES-GCM key protecting every submessage")
	flags.BoolVar(&cfg.ExpectsInlineQos, "inline-qos", cfg.ExpectsInlineQos, "send inline QoS with every DATA")
	flags.BoolVar(&cfg.Once, "once", cfg.Once, "publish the generated samples and exit")
	flags.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "log messages instead of sending them")
	flags.BoolVar(&cfg.Watch, "watch", cfg.Watch, "reload destinations and interval when the config file changes")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		l := cliconfig.Logger("info")
		l.Error().Err(err).Msg("rtpsgroup")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config, cfgFile string, prefix rtps.GuidPrefix, zl zerolog.Logger) error {
	logger := log.NewZerologAdapterWithLogger(zl)

	participant := group.Participant{Prefix: prefix, Vendor: vendor}
	writer := rtps.GUID{Prefix: prefix, Entity: rtps.NewEntityID(uint32(cfg.WriterKey), rtps.EntityKindWriterNoKey)}
	cache := history.New(writer, cfg.HistoryDepth, uint16(cfg.FragmentSize))

	var transform security.SubmessageTransform
	key, err := cfg.Key()
	if err != nil {
		return err
	}
	if key != nil {
		t, err := security.NewAESGCM(key, binary.BigEndian.Uint32(prefix[8:]))
		if err != nil {
			return err
		}
		transform = t
	}

	var s sender.Sender
	var udp *sender.UDPSender
	events := &roundLogger{logger: logger.With(log.String("component", "publisher"))}
	if cfg.DryRun {
		rec := sender.NewRecorder()
		if len(cfg.Destinations) > 0 {
			dests, err := parseDestinations(cfg.Destinations)
			if err != nil {
				return err
			}
			guids := make([]rtps.GUID, len(dests))
			for i, d := range dests {
				guids[i] = d.GUID
			}
			rec.SetDestination(dests[0].GUID.Prefix, guids...)
		}
		events.recorder = rec
		s = rec
	} else {
		udp, err = sender.ListenUDP(cfg.ListenAddr, cfg.SendBuffer, logger.With(log.String("component", "sender")))
		if err != nil {
			return err
		}
		defer udp.Close()
		dests, err := parseDestinations(cfg.Destinations)
		if err != nil {
			return err
		}
		udp.SetDestinations(dests)
		logger.Info("sending", log.Stringer("local", udp.LocalAddr()), log.Int("destinations", len(dests)))
		s = udp
	}

	pub, err := app.NewPublisher(app.PublisherConfig{
		Participant:      participant,
		Writer:           writer,
		Interval:         cfg.PublishInterval,
		MaxBlocking:      cfg.MaxBlocking,
		MaxMessageSize:   cfg.MaxMessageSize,
		ExpectsInlineQos: cfg.ExpectsInlineQos,
		Once:             cfg.Once,
	}, cache, s, transform, logger.With(log.String("component", "publisher")), events)
	if err != nil {
		return err
	}

	if cfg.Once {
		// All samples exist before the first round so a single pass drains them.
		for i := 0; i < cfg.Samples; i++ {
			if _, err := pub.Publish(samplePayload(i, cfg.PayloadSize)); err != nil {
				return err
			}
		}
	} else {
		go generate(ctx, pub, cfg, logger)
	}

	if cfg.Watch && cfgFile != "" && udp != nil {
		go func() {
			err := cliconfig.Watch(ctx, cfgFile, cliconfig.DefaultDebounceDelay, logger, func(fc cliconfig.FileConfig, err error) {
				if err != nil {
					return
				}
				reload(cfg, fc, udp, pub, logger)
			})
			if err != nil {
				logger.Warn("config watch stopped", log.Err(err))
			}
		}()
	}

	svc := app.NewService(pub, logger, events)
	if err := svc.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("received signal, stopping")
	case <-svc.Done():
	}
	if err := svc.Stop(); err != nil && !errors.Is(err, app.ErrNotRunning) {
		return err
	}

	stats := pub.Stats()
	logger.Info("publisher stopped",
		log.Int64("last_sent", int64(stats.LastSent)),
		log.Int("rounds", stats.Rounds),
		log.Int("failures", stats.Failures),
		log.Int("dropped", stats.Dropped))
	return svc.Err()
}

func parseDestinations(raw []string) ([]sender.Destination, error) {
	dests := make([]sender.Destination, 0, len(raw))
	for _, r := range raw {
		d, err := sender.ParseDestination(r)
		if err != nil {
			return nil, err
		}
		dests = append(dests, d)
	}
	return dests, nil
}

// reload applies the watched file on top of the running configuration.
// Only the destinations and publish interval take effect without restart.
func reload(cfg cliconfig.Config, fc cliconfig.FileConfig, udp *sender.UDPSender, pub *app.Publisher, logger log.Logger) {
	if err := cliconfig.ApplyFileConfig(&cfg, fc, map[string]bool{}); err != nil {
		logger.Warn("ignoring config change", log.Err(err))
		return
	}
	dests, err := parseDestinations(cfg.Destinations)
	if err != nil || len(dests) == 0 {
		logger.Warn("ignoring config change", log.Err(err), log.Int("destinations", len(dests)))
		return
	}
	udp.SetDestinations(dests)
	pub.SetInterval(cfg.PublishInterval)
	logger.Info("config reloaded", log.Int("destinations", len(dests)), log.Duration("interval", cfg.PublishInterval))
}

func generate(ctx context.Context, pub *app.Publisher, cfg cliconfig.Config, logger log.Logger) {
	ticker := time.NewTicker(cfg.SampleInterval)
	defer ticker.Stop()
	for i := 0; cfg.Samples == 0 || i < cfg.Samples; i++ {
		if _, err := pub.Publish(samplePayload(i, cfg.PayloadSize)); err != nil {
			logger.Error("add sample", log.Err(err))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// samplePayload builds a CDR little-endian encapsulated payload of n bytes
// carrying the sample index.
func samplePayload(i, n int) []byte {
	if n < 8 {
		n = 8
	}
	p := make([]byte, n)
	p[1] = 0x01 // CDR_LE
	binary.LittleEndian.PutUint32(p[4:], uint32(i))
	for j := 8; j < n; j++ {
		p[j] = byte(i + j)
	}
	return p
}

// roundLogger reports publish rounds and state changes. In dry-run mode it
// also decodes what the recorder captured.
type roundLogger struct {
	logger   log.Logger
	recorder *sender.Recorder
}

func (r *roundLogger) OnSendSuccess(msgs int, bytes int64, d time.Duration) {
	r.logger.Debug("round sent", log.Int("messages", msgs), log.Int64("bytes", bytes), log.Duration("duration", d))
	if r.recorder == nil {
		return
	}
	for _, msg := range r.recorder.Messages() {
		_, subs, err := messages.Split(msg)
		if err != nil {
			r.logger.Warn("undecodable message", log.Err(err))
			continue
		}
		ids := make([]string, len(subs))
		for i, s := range subs {
			ids[i] = s.ID.String()
		}
		r.logger.Info("message", log.Int("bytes", len(msg)), log.String("submessages", strings.Join(ids, " ")))
	}
	r.recorder.Reset()
}

func (r *roundLogger) OnSendError(err error, retryable bool) {
	r.logger.Warn("round failed", log.Err(err), log.Bool("retryable", retryable))
}

func (r *roundLogger) OnStateChange(previous, current app.State, reason string) {
	r.logger.Debug("state change", log.Stringer("from", previous), log.Stringer("to", current), log.String("reason", reason))
}
