package recovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-feedsim/common/types"
	"github.com/spacemeshos/go-feedsim/log"
)

// ClientOpt is a type to configure a client.
type ClientOpt func(c *Client)

// WithClientLog configures logger for the client.
func WithClientLog(logger *zap.Logger) ClientOpt {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClientTimeout bounds a whole exchange: dial, request and response.
func WithClientTimeout(timeout time.Duration) ClientOpt {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithResponseSizeLimit configures the largest response the client reads.
func WithResponseSizeLimit(limit int) ClientOpt {
	return func(c *Client) {
		c.responseLimit = limit
	}
}

// WithClientMetrics will enable metrics collection in the client.
func WithClientMetrics() ClientOpt {
	return func(c *Client) {
		c.metrics = newClientTracker()
	}
}

// Client requests payloads of missed sequences from a recovery server.
// Each request uses a new connection and is never retried.
type Client struct {
	logger        *zap.Logger
	addr          string
	timeout       time.Duration
	responseLimit int
	dialer        net.Dialer

	metrics *clientTracker // metrics can be nil
}

// NewClient creates a client for the server at addr.
func NewClient(addr string, opts ...ClientOpt) *Client {
	c := &Client{
		logger:        log.NewNop(),
		addr:          addr,
		timeout:       5 * time.Second,
		responseLimit: 1024,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recover requests the payload for seq. It returns ErrNotFound if the server has no payload
// for it, and a wrapped transport error if the exchange failed.
func (c *Client) Recover(ctx context.Context, seq types.Sequence) (string, error) {
	start := time.Now()
	payload, err := c.recover(ctx, seq)
	took := time.Since(start)
	switch {
	case err == nil:
		c.logger.Debug("recovered", zap.Stringer("seq", seq), zap.Duration("duration", took))
		if c.metrics != nil {
			c.metrics.recovered.Observe(took.Seconds())
		}
	case errors.Is(err, ErrNotFound):
		c.logger.Debug("not found", zap.Stringer("seq", seq), zap.Duration("duration", took))
		if c.metrics != nil {
			c.metrics.notFound.Observe(took.Seconds())
		}
	default:
		c.logger.Debug("recovery request failed",
			zap.Stringer("seq", seq),
			zap.Duration("duration", took),
			zap.Error(err),
		)
		if c.metrics != nil {
			c.metrics.failed.Observe(took.Seconds())
		}
	}
	return payload, err
}

func (c *Client) recover(ctx context.Context, seq types.Sequence) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return "", fmt.Errorf("dial recovery server %s: %w", c.addr, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", fmt.Errorf("set deadline: %w", err)
		}
	}

	if _, err := conn.Write(EncodeRequest(seq)); err != nil {
		return "", fmt.Errorf("send request for %s to %s: %w", seq, c.addr, err)
	}
	resp, err := io.ReadAll(io.LimitReader(conn, int64(c.responseLimit)))
	if err != nil {
		return "", fmt.Errorf("read response for %s from %s: %w", seq, c.addr, err)
	}
	return DecodeResponse(resp)
}
