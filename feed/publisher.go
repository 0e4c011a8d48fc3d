package feed

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-feedsim/common/types"
	"github.com/spacemeshos/go-feedsim/log"
)

// PublisherOpt is a type to configure a publisher.
type PublisherOpt func(p *Publisher)

// WithPublisherLogger configures logger for the publisher.
func WithPublisherLogger(logger *zap.Logger) PublisherOpt {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithPublisherConfig overrides the default pacing and drop policy.
func WithPublisherConfig(cfg PublisherConfig) PublisherOpt {
	return func(p *Publisher) {
		p.cfg = cfg
	}
}

// WithClock configures the clock used for pacing.
func WithClock(clock clockwork.Clock) PublisherOpt {
	return func(p *Publisher) {
		p.clock = clock
	}
}

// WithPublisherMetrics will enable metrics collection in the publisher.
func WithPublisherMetrics() PublisherOpt {
	return func(p *Publisher) {
		p.metrics = newPublisherTracker()
	}
}

// Dropped reports whether the publisher withholds seq when dropping every n-th sequence.
func Dropped(seq types.Sequence, every uint32) bool {
	return every != 0 && seq.Uint32()%every == 0
}

// Emission is the result of one publisher iteration.
type Emission struct {
	Message Message
	Dropped bool
}

// Publisher emits consecutive sequences starting at 1 and withholds the ones selected by the
// drop policy. It is not safe for concurrent use.
type Publisher struct {
	logger *zap.Logger
	clock  clockwork.Clock
	cfg    PublisherConfig
	out    Broadcaster
	last   types.Sequence

	metrics *publisherTracker // metrics can be nil
}

// NewPublisher creates a publisher broadcasting to out.
func NewPublisher(out Broadcaster, opts ...PublisherOpt) *Publisher {
	p := &Publisher{
		logger: log.NewNop(),
		clock:  clockwork.NewRealClock(),
		cfg:    DefaultPublisherConfig(),
		out:    out,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Step advances the sequence and broadcasts its message unless the drop policy selects it.
func (p *Publisher) Step(ctx context.Context) (Emission, error) {
	p.last = p.last.Next()
	em := Emission{Message: NewMessage(p.last)}
	if Dropped(p.last, p.cfg.DropEvery) {
		em.Dropped = true
		if p.metrics != nil {
			p.metrics.dropped.Inc()
		}
		p.logger.Info("dropped", zap.Stringer("seq", p.last))
		return em, nil
	}
	if err := p.out.Broadcast(ctx, em.Message.Encode()); err != nil {
		if p.metrics != nil {
			p.metrics.failed.Inc()
		}
		return em, fmt.Errorf("broadcast %s: %w", em.Message, err)
	}
	if p.metrics != nil {
		p.metrics.sent.Inc()
	}
	p.logger.Debug("sent", zap.Stringer("message", em.Message))
	return em, nil
}

// Run emits messages paced by the configured interval until ctx is cancelled or the configured
// count is reached. Broadcast failures are logged and do not stop the loop.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("publishing",
		zap.Duration("interval", p.cfg.Interval),
		zap.Uint32("drop_every", p.cfg.DropEvery),
		zap.Uint32("count", p.cfg.Count),
	)
	for n := uint32(1); ; n++ {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := p.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warn("failed to publish", zap.Error(err))
		}
		if p.cfg.Count != 0 && n >= p.cfg.Count {
			p.logger.Info("publisher finished", zap.Stringer("last", p.last))
			return nil
		}
		if p.cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-p.clock.After(p.cfg.Interval):
			}
		}
	}
}
