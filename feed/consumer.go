package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-feedsim/common/types"
	"github.com/spacemeshos/go-feedsim/log"
	"github.com/spacemeshos/go-feedsim/recovery"
)

// RecoveryStatus is the result of the recovery attempt made for a message.
type RecoveryStatus int

const (
	// RecoveryNone means the message arrived in order and nothing was recovered.
	RecoveryNone RecoveryStatus = iota
	// Recovered means the missing sequence was returned by the recovery server.
	Recovered
	// RecoveryNotFound means the recovery server has no payload for the missing sequence.
	RecoveryNotFound
	// RecoveryFailed means the recovery exchange itself failed.
	RecoveryFailed
)

func (s RecoveryStatus) String() string {
	switch s {
	case RecoveryNone:
		return "none"
	case Recovered:
		return "recovered"
	case RecoveryNotFound:
		return "not found"
	case RecoveryFailed:
		return "failed"
	}
	return fmt.Sprintf("RecoveryStatus(%d)", int(s))
}

// Outcome describes how the consumer handled one decoded message.
type Outcome struct {
	Message Message
	// Gap is set when the message sequence differs from the expected one.
	Gap bool
	// Missing is the sequence that was requested from recovery when Gap is set.
	Missing types.Sequence
	Status  RecoveryStatus
	Payload string
	Err     error
}

// ConsumerOpt is a type to configure a consumer.
type ConsumerOpt func(c *Consumer)

// WithConsumerLogger configures logger for the consumer.
func WithConsumerLogger(logger *zap.Logger) ConsumerOpt {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// WithOutcomeHandler registers a function called with the outcome of every decoded message.
// It runs on the consumer goroutine and must not block.
func WithOutcomeHandler(handler func(Outcome)) ConsumerOpt {
	return func(c *Consumer) {
		c.onOutcome = handler
	}
}

// WithConsumerMetrics will enable metrics collection in the consumer.
func WithConsumerMetrics() ConsumerOpt {
	return func(c *Consumer) {
		c.metrics = newConsumerTracker()
	}
}

// Consumer tracks the next expected sequence of the feed and requests recovery of the expected
// sequence whenever a different one arrives. After any gap it resynchronizes to the sequence
// that arrived, so at most one sequence is recovered per gap.
//
// Messages are handled one at a time, the recovery round trip included.
type Consumer struct {
	logger    *zap.Logger
	in        Receiver
	recoverer Recoverer
	onOutcome func(Outcome)
	expected  atomic.Uint32

	metrics *consumerTracker // metrics can be nil
}

// NewConsumer creates a consumer reading from in and recovering gaps through recoverer.
func NewConsumer(in Receiver, recoverer Recoverer, opts ...ConsumerOpt) *Consumer {
	c := &Consumer{
		logger:    log.NewNop(),
		in:        in,
		recoverer: recoverer,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.setExpected(types.FirstSequence)
	return c
}

// Expected returns the next sequence the consumer expects.
func (c *Consumer) Expected() types.Sequence {
	return types.Sequence(c.expected.Load())
}

func (c *Consumer) setExpected(seq types.Sequence) {
	c.expected.Store(seq.Uint32())
	if c.metrics != nil {
		c.metrics.expected.Set(float64(seq))
	}
}

// Handle processes one broadcast message. A message that can't be decoded is skipped without
// changing the expected sequence and the decoding error is returned.
func (c *Consumer) Handle(ctx context.Context, data []byte) (Outcome, error) {
	msg, err := Decode(data)
	if err != nil {
		if c.metrics != nil {
			c.metrics.malformed.Inc()
		}
		c.logger.Warn("skipping malformed message", zap.ByteString("data", data), zap.Error(err))
		return Outcome{}, err
	}

	out := Outcome{Message: msg}
	expected := c.Expected()
	if msg.Sequence == expected {
		if c.metrics != nil {
			c.metrics.accepted.Inc()
		}
		c.logger.Debug("received", zap.Stringer("message", msg))
	} else {
		if c.metrics != nil {
			c.metrics.gap.Inc()
		}
		out.Gap = true
		out.Missing = expected
		c.logger.Info("gap detected",
			zap.Stringer("expected", expected),
			zap.Stringer("received", msg.Sequence),
		)
		c.recover(ctx, &out)
	}
	c.setExpected(msg.Sequence.Next())

	if c.onOutcome != nil {
		c.onOutcome(out)
	}
	return out, nil
}

// recover makes the single recovery attempt for out.Missing.
func (c *Consumer) recover(ctx context.Context, out *Outcome) {
	payload, err := c.recoverer.Recover(ctx, out.Missing)
	switch {
	case err == nil:
		out.Status = Recovered
		out.Payload = payload
		if c.metrics != nil {
			c.metrics.recovered.Inc()
		}
		c.logger.Info("recovered", zap.Stringer("seq", out.Missing), zap.String("payload", payload))
	case errors.Is(err, recovery.ErrNotFound):
		out.Status = RecoveryNotFound
		out.Err = err
		if c.metrics != nil {
			c.metrics.notFound.Inc()
		}
		c.logger.Info("recovery found nothing", zap.Stringer("seq", out.Missing))
	default:
		out.Status = RecoveryFailed
		out.Err = err
		if c.metrics != nil {
			c.metrics.failedRecover.Inc()
		}
		c.logger.Warn("recovery failed", zap.Stringer("seq", out.Missing), zap.Error(err))
	}
}

// Step waits for one broadcast message and handles it. Malformed messages are skipped.
func (c *Consumer) Step(ctx context.Context) error {
	data, err := c.in.Receive(ctx)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	if _, err := c.Handle(ctx, data); err != nil && !errors.Is(err, ErrMalformedMessage) {
		return err
	}
	return nil
}

// Run handles broadcast messages until ctx is cancelled or the receiver is closed. Receive
// errors are logged and the loop continues.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consuming feed", zap.Stringer("expected", c.Expected()))
	for {
		err := c.Step(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, net.ErrClosed):
			c.logger.Info("feed closed", zap.Stringer("expected", c.Expected()))
			return nil
		default:
			c.logger.Warn("failed to receive message", zap.Error(err))
		}
	}
}
