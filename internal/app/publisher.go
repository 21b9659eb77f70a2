package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/rtpsgroup/pkg/group"
	"github.com/bft-labs/rtpsgroup/pkg/history"
	"github.com/bft-labs/rtpsgroup/pkg/log"
	"github.com/bft-labs/rtpsgroup/pkg/rtps"
	"github.com/bft-labs/rtpsgroup/pkg/security"
	"github.com/bft-labs/rtpsgroup/pkg/sender"
)

// PublisherConfig configures the publish loop.
type PublisherConfig struct {
	Participant group.Participant
	Writer      rtps.GUID

	// Interval between publish rounds.
	Interval time.Duration

	// MaxBlocking bounds every round's sends.
	MaxBlocking time.Duration

	// MaxMessageSize is the capacity of the message buffers.
	MaxMessageSize int

	ExpectsInlineQos bool

	// Once stops Run after the first round that leaves nothing unsent.
	Once bool
}

// Validate checks the configuration.
func (c PublisherConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.MaxBlocking <= 0 {
		return fmt.Errorf("%w: max blocking time must be positive", ErrInvalidConfig)
	}
	if c.Writer.Prefix != c.Participant.Prefix {
		return fmt.Errorf("%w: writer %s does not belong to participant %s", ErrInvalidConfig, c.Writer, c.Participant.Prefix)
	}
	return nil
}

// SendEventEmitter is notified after every publish round.
type SendEventEmitter interface {
	OnSendSuccess(messages int, bytes int64, duration time.Duration)
	OnSendError(err error, retryable bool)
}

// Publisher drains a writer history through message group sessions. Each
// round sends GAPs for samples evicted before they went out, DATA or
// DATA_FRAG for every unsent sample, and a HEARTBEAT over the history.
type Publisher struct {
	config    PublisherConfig
	history   *history.Cache
	buffers   *group.Buffers
	sender    sender.Sender
	transform security.SubmessageTransform
	logger    log.Logger
	emitter   SendEventEmitter

	interval atomic.Int64

	// mu serializes rounds; the buffers serve one session at a time.
	mu       sync.Mutex
	sent     rtps.SequenceNumber
	hbCount  uint32
	dropped  int
	rounds   int
	failures int
}

// NewPublisher wires a publisher. transform may be nil.
func NewPublisher(
	config PublisherConfig,
	cache *history.Cache,
	s sender.Sender,
	transform security.SubmessageTransform,
	logger log.Logger,
	emitter SendEventEmitter,
) (*Publisher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	buffers, err := group.NewBuffers(config.Participant, config.MaxMessageSize, transform != nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	p := &Publisher{
		config:    config,
		history:   cache,
		buffers:   buffers,
		sender:    s,
		transform: transform,
		logger:    logger,
		emitter:   emitter,
	}
	p.interval.Store(int64(config.Interval))
	return p, nil
}

// SetInterval changes the round interval of a running publisher.
func (p *Publisher) SetInterval(d time.Duration) {
	if d > 0 {
		p.interval.Store(int64(d))
	}
}

// Interval returns the current round interval.
func (p *Publisher) Interval() time.Duration {
	return time.Duration(p.interval.Load())
}

// Publish adds a sample to the history, stamped with the current time. It
// goes out on the next round.
func (p *Publisher) Publish(payload []byte) (*rtps.CacheChange, error) {
	return p.history.Add(payload, rtps.FromTime(time.Now()))
}

// Pending reports whether the history holds samples not yet sent.
func (p *Publisher) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, last := p.history.Bounds()
	return last > p.sent
}

// Run publishes a round every interval until ctx ends. Failed rounds are
// retried after a backoff; their samples stay unsent.
func (p *Publisher) Run(ctx context.Context) error {
	bo := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	interval := p.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.Round(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("publish round failed",
				log.Err(err),
				log.Duration("backoff", bo.Current()),
			)
			if err := bo.Wait(ctx); err != nil {
				return err
			}
			continue
		}
		bo.Reset()

		if p.config.Once && !p.Pending() {
			return nil
		}

		if d := p.Interval(); d != interval {
			interval = d
			ticker.Reset(d)
			p.logger.Info("publish interval changed", log.Duration("interval", d))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Round runs one message group session over the unsent part of the
// history.
func (p *Publisher) Round(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	first, last := p.history.Bounds()
	if last < first {
		return nil
	}
	from := p.sent + 1
	gaps := p.history.Evicted(from, last)
	changes := p.history.Range(from, last)

	opts := []group.Option{
		group.WithContext(ctx),
		group.WithDeadline(time.Now().Add(p.config.MaxBlocking)),
		group.WithLogger(p.logger),
	}
	if p.transform != nil {
		opts = append(opts, group.WithTransform(p.transform))
	}

	start := time.Now()
	var session *group.Group
	err := group.Run(p.config.Participant, p.config.Writer, p.buffers, p.sender, func(g *group.Group) error {
		session = g
		return p.fill(g, gaps, changes, first, last)
	}, opts...)
	p.rounds++

	if err != nil {
		p.failures++
		retryable := errors.Is(err, group.ErrTimeout) || errors.Is(err, group.ErrSendFailed)
		if p.emitter != nil {
			p.emitter.OnSendError(err, retryable)
		}
		return err
	}

	p.sent = last
	if session != nil && p.emitter != nil {
		p.emitter.OnSendSuccess(session.MessagesSent(), session.BytesProcessed(), time.Since(start))
	}
	p.logger.Debug("publish round complete",
		log.Int64("last", int64(last)),
		log.Int("samples", len(changes)),
		log.Int("gaps", len(gaps)),
		log.Uint32("heartbeat", p.hbCount),
	)
	return nil
}

func (p *Publisher) fill(g *group.Group, gaps []rtps.SequenceNumber, changes []*rtps.CacheChange, first, last rtps.SequenceNumber) error {
	var dropped []rtps.SequenceNumber
	for _, ch := range changes {
		err := p.addChange(g, ch)
		if errors.Is(err, group.ErrSubmessageTooLarge) {
			p.logger.Error("sample does not fit a message, announcing gap",
				log.Int64("sn", int64(ch.SequenceNumber)),
				log.Int("bytes", len(ch.Payload)),
			)
			dropped = append(dropped, ch.SequenceNumber)
			p.dropped++
			continue
		}
		if err != nil {
			return err
		}
	}
	if err := g.AddGap(append(gaps, dropped...)); err != nil {
		return err
	}
	p.hbCount++
	return g.AddHeartbeat(first, last, p.hbCount, false, false)
}

func (p *Publisher) addChange(g *group.Group, ch *rtps.CacheChange) error {
	n := ch.FragmentCount()
	if n == 0 {
		return g.AddData(ch, p.config.ExpectsInlineQos)
	}
	for fn := rtps.FragmentNumber(1); uint32(fn) <= n; fn++ {
		if err := g.AddDataFrag(ch, fn, p.config.ExpectsInlineQos); err != nil {
			return err
		}
	}
	return nil
}

// Stats is a snapshot of publisher counters.
type Stats struct {
	LastSent rtps.SequenceNumber
	Rounds   int
	Failures int
	Dropped  int
}

// Stats returns the current counters.
func (p *Publisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{LastSent: p.sent, Rounds: p.rounds, Failures: p.failures, Dropped: p.dropped}
}
