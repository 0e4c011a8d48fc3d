// Package inproc broadcasts feed messages to subscribers in the same process.
package inproc

import (
	"context"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-feedsim/log"
)

// Config for the in-process bus.
type Config struct {
	// Buffer is the number of messages a subscriber can lag behind before it loses messages.
	Buffer int `mapstructure:"buffer"`
}

// DefaultConfig returns the default bus configuration.
func DefaultConfig() Config {
	return Config{Buffer: 1024}
}

// Opt is a type to configure a bus.
type Opt func(b *Bus)

// WithLogger configures logger for the bus.
func WithLogger(logger *zap.Logger) Opt {
	return func(b *Bus) {
		b.logger = logger
	}
}

// Bus delivers every broadcast message to all current subscribers. Delivery never blocks the
// sender: a subscriber with a full buffer misses the message.
type Bus struct {
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewBus creates an empty bus.
func NewBus(opts ...Opt) *Bus {
	b := &Bus{
		logger: log.NewNop(),
		subs:   make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a subscriber receiving messages broadcast from now on.
func (b *Bus) Subscribe(buffer int) *Subscription {
	s := &Subscription{bus: b, ch: make(chan []byte, buffer)}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		s.done = true
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Broadcast copies data to every subscriber. It returns net.ErrClosed after Close.
func (b *Bus) Broadcast(ctx context.Context, data []byte) error {
	msg := append([]byte(nil), data...)
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return net.ErrClosed
	}
	for s := range b.subs {
		select {
		case s.ch <- msg:
		default:
			b.logger.Debug("subscriber buffer is full, message lost", zap.ByteString("message", msg))
		}
	}
	return nil
}

// Close closes the bus and all subscriptions. Subscribers receive the buffered messages and
// then net.ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for s := range b.subs {
		close(s.ch)
		s.done = true
		delete(b.subs, s)
	}
	return nil
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.done {
		return
	}
	close(s.ch)
	s.done = true
	delete(b.subs, s)
}

// Subscription receives messages from a bus.
type Subscription struct {
	bus  *Bus
	ch   chan []byte
	done bool // guarded by bus.mu
}

// Receive returns the next message. It returns net.ErrClosed once the subscription or the bus
// is closed and all buffered messages were received.
func (s *Subscription) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-s.ch:
		if !ok {
			return nil, net.ErrClosed
		}
		return msg, nil
	}
}

// Close stops delivery to the subscription.
func (s *Subscription) Close() error {
	s.bus.unsubscribe(s)
	return nil
}
