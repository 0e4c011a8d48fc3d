//go:build zmq

package zmqbus

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"

	zmq "github.com/pebbe/zmq4"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-feedsim/log"
)

// Opt is a type to configure a publisher or subscriber.
type Opt func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger configures logger for the transport.
func WithLogger(logger *zap.Logger) Opt {
	return func(o *options) {
		o.logger = logger
	}
}

func applyOpts(opts []Opt) options {
	o := options{logger: log.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Publisher sends every message as a topic frame followed by the payload frame.
type Publisher struct {
	logger *zap.Logger
	topic  string

	mu     sync.Mutex
	zctx   *zmq.Context
	socket *zmq.Socket
}

// NewPublisher binds a PUB socket to cfg.Endpoint.
func NewPublisher(cfg Config, opts ...Opt) (*Publisher, error) {
	o := applyOpts(opts)
	zctx, err := zmq.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create zmq context: %w", err)
	}
	socket, err := zctx.NewSocket(zmq.PUB)
	if err != nil {
		zctx.Term()
		return nil, fmt.Errorf("create pub socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		closeAll(socket, zctx)
		return nil, fmt.Errorf("set linger: %w", err)
	}
	if err := socket.Bind(cfg.Endpoint); err != nil {
		closeAll(socket, zctx)
		return nil, fmt.Errorf("bind %s: %w", cfg.Endpoint, err)
	}
	p := &Publisher{logger: o.logger, topic: cfg.Topic, zctx: zctx, socket: socket}
	p.logger.Info("zmq publisher bound", zap.String("endpoint", p.Endpoint()))
	return p, nil
}

// Endpoint returns the bound endpoint with the resolved port.
func (p *Publisher) Endpoint() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return ""
	}
	endpoint, err := p.socket.GetLastEndpoint()
	if err != nil {
		return ""
	}
	return endpoint
}

// Broadcast publishes data. Messages sent before a subscriber finished connecting are lost.
func (p *Publisher) Broadcast(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return net.ErrClosed
	}
	if _, err := p.socket.SendMessage(p.topic, data); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close closes the socket and terminates its context.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.socket == nil {
		return nil
	}
	err := closeAll(p.socket, p.zctx)
	p.socket = nil
	return err
}

// Subscriber receives messages published on the configured topic.
type Subscriber struct {
	logger *zap.Logger
	topic  string

	mu     sync.Mutex
	zctx   *zmq.Context
	socket *zmq.Socket
}

// NewSubscriber connects a SUB socket to cfg.Endpoint.
func NewSubscriber(cfg Config, opts ...Opt) (*Subscriber, error) {
	o := applyOpts(opts)
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = DefaultConfig().PollInterval
	}
	zctx, err := zmq.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create zmq context: %w", err)
	}
	socket, err := zctx.NewSocket(zmq.SUB)
	if err != nil {
		zctx.Term()
		return nil, fmt.Errorf("create sub socket: %w", err)
	}
	for _, set := range []func() error{
		func() error { return socket.SetLinger(0) },
		func() error { return socket.SetRcvtimeo(poll) },
		func() error { return socket.SetSubscribe(cfg.Topic) },
		func() error { return socket.Connect(cfg.Endpoint) },
	} {
		if err := set(); err != nil {
			closeAll(socket, zctx)
			return nil, fmt.Errorf("configure sub socket for %s: %w", cfg.Endpoint, err)
		}
	}
	o.logger.Info("zmq subscriber connected",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("topic", cfg.Topic),
	)
	return &Subscriber{logger: o.logger, topic: cfg.Topic, zctx: zctx, socket: socket}, nil
}

// Receive returns the payload of the next message. It returns net.ErrClosed after Close.
func (s *Subscriber) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		parts, err := s.recv()
		switch {
		case err == nil:
		case zmq.AsErrno(err) == zmq.Errno(syscall.EAGAIN):
			continue
		default:
			return nil, err
		}
		if len(parts) != 2 || string(parts[0]) != s.topic {
			s.logger.Debug("ignoring unexpected frames", zap.Int("parts", len(parts)))
			continue
		}
		return parts[1], nil
	}
}

func (s *Subscriber) recv() ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.socket == nil {
		return nil, net.ErrClosed
	}
	parts, err := s.socket.RecvMessageBytes(0)
	if err != nil && zmq.AsErrno(err) != zmq.Errno(syscall.EAGAIN) {
		return nil, fmt.Errorf("receive: %w", err)
	}
	return parts, err
}

// Close closes the socket. A pending Receive returns within the poll interval.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.socket == nil {
		return nil
	}
	err := closeAll(s.socket, s.zctx)
	s.socket = nil
	return err
}

func closeAll(socket *zmq.Socket, zctx *zmq.Context) error {
	if err := socket.Close(); err != nil {
		zctx.Term()
		return fmt.Errorf("close socket: %w", err)
	}
	if err := zctx.Term(); err != nil {
		return fmt.Errorf("terminate zmq context: %w", err)
	}
	return nil
}
