package recovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/spacemeshos/go-feedsim/common/types"
	"github.com/spacemeshos/go-feedsim/log"
)

// Opt is a type to configure a server.
type Opt func(s *Server)

// WithTimeout configures the deadline for reading the request and writing the response.
func WithTimeout(timeout time.Duration) Opt {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// WithLog configures logger for the server.
func WithLog(logger *zap.Logger) Opt {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRequestSizeLimit configures the size of the buffer a request is read into.
func WithRequestSizeLimit(limit int) Opt {
	return func(s *Server) {
		s.requestLimit = limit
	}
}

// WithMetrics will enable metrics collection in the server.
func WithMetrics() Opt {
	return func(s *Server) {
		s.metrics = newTracker()
	}
}

// WithQueueSize parametrizes the number of connections that will be kept in queue
// and eventually processed by the server. Otherwise the connection is closed immediately.
// It also bounds the number of requests handled concurrently.
//
// Defaults to 1000.
func WithQueueSize(size int) Opt {
	return func(s *Server) {
		s.queueSize = size
	}
}

// WithRequestsPerInterval parametrizes server rate limit. A zero n disables the limit,
// which is the default.
func WithRequestsPerInterval(n int, interval time.Duration) Opt {
	return func(s *Server) {
		s.requestsPerInterval = n
		s.interval = interval
	}
}

type lookuper interface {
	Get(types.Sequence) (string, bool)
}

// Server answers recovery requests from a store. Every connection carries one request and
// one response.
type Server struct {
	logger              *zap.Logger
	listener            net.Listener
	store               lookuper
	timeout             time.Duration
	requestLimit        int
	queueSize           int
	requestsPerInterval int
	interval            time.Duration

	metrics *tracker // metrics can be nil
}

// New server answering requests accepted on listener from store.
func New(listener net.Listener, store lookuper, opts ...Opt) *Server {
	srv := &Server{
		logger:       log.NewNop(),
		listener:     listener,
		store:        store,
		timeout:      5 * time.Second,
		requestLimit: 1024,
		queueSize:    1000,
		interval:     time.Second,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Addr returns the address the server accepts connections on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

type request struct {
	conn     net.Conn
	received time.Time
}

// Run accepts and serves connections until ctx is cancelled. The listener is closed on return.
func (s *Server) Run(ctx context.Context) error {
	var limit *rate.Limiter
	if s.requestsPerInterval > 0 {
		limit = rate.NewLimiter(rate.Every(s.interval/time.Duration(s.requestsPerInterval)), s.requestsPerInterval)
	}
	queue := make(chan request, s.queueSize)
	if s.metrics != nil {
		s.metrics.targetQueue.Set(float64(s.queueSize))
		if limit != nil {
			s.metrics.targetRps.Set(float64(limit.Limit()))
		}
	}

	stop := context.AfterFunc(ctx, func() { s.listener.Close() })
	defer stop()
	acceptErr := make(chan error, 1)
	go func() {
		acceptErr <- s.accept(ctx, queue)
	}()

	var eg errgroup.Group
	eg.SetLimit(s.queueSize)
	shutdown := func(err error, acceptDone bool) error {
		s.listener.Close()
		if !acceptDone {
			if aerr := <-acceptErr; err == nil {
				err = aerr
			}
		}
		for {
			select {
			case req := <-queue:
				req.conn.Close()
			default:
				eg.Wait()
				return err
			}
		}
	}
	s.logger.Info("serving recovery requests", zap.Stringer("address", s.listener.Addr()))
	for {
		select {
		case <-ctx.Done():
			return shutdown(nil, false)
		case err := <-acceptErr:
			return shutdown(err, true)
		case req := <-queue:
			if s.metrics != nil {
				s.metrics.queue.Set(float64(len(queue)))
			}
			if limit != nil {
				if err := limit.Wait(ctx); err != nil {
					req.conn.Close()
					return shutdown(nil, false)
				}
			}
			eg.Go(func() error {
				ok := s.handle(ctx, req.conn)
				if s.metrics != nil {
					s.metrics.serverLatency.Observe(time.Since(req.received).Seconds())
					if ok {
						s.metrics.completed.Inc()
					} else {
						s.metrics.failed.Inc()
					}
				}
				return nil
			})
		}
	}
}

func (s *Server) accept(ctx context.Context, queue chan<- request) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			s.logger.Warn("failed to accept connection", zap.Error(err))
			continue
		}
		select {
		case queue <- request{conn: conn, received: time.Now()}:
			if s.metrics != nil {
				s.metrics.accepted.Inc()
			}
		default:
			if s.metrics != nil {
				s.metrics.dropped.Inc()
			}
			s.logger.Warn("recovery queue is full, closing connection",
				zap.Stringer("remote", conn.RemoteAddr()),
				zap.Int("queue", s.queueSize),
			)
			conn.Close()
		}
	}
}

// handle serves exactly one request on conn. Malformed requests are answered as not found.
func (s *Server) handle(ctx context.Context, conn net.Conn) bool {
	defer conn.Close()
	ctx = log.WithNewRequestID(ctx)
	logger := s.logger.With(log.ZContext(ctx), zap.Stringer("remote", conn.RemoteAddr()))

	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()
	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		logger.Debug("failed to set deadline", zap.Error(err))
		return false
	}

	buf := make([]byte, s.requestLimit)
	n, err := conn.Read(buf)
	if err != nil {
		logger.Debug("error reading request", zap.Error(err))
		return false
	}
	logger.Debug("received request", zap.ByteString("request", buf[:n]))

	var resp []byte
	seq, err := DecodeRequest(buf[:n])
	if err != nil {
		logger.Debug("answering malformed request as not found", zap.Error(err))
		resp = EncodeResponse("", false)
	} else {
		payload, found := s.store.Get(seq)
		if s.metrics != nil {
			if found {
				s.metrics.hit.Inc()
			} else {
				s.metrics.miss.Inc()
			}
		}
		logger.Debug("store lookup", zap.Stringer("seq", seq), zap.Bool("found", found))
		resp = EncodeResponse(payload, found)
	}

	if _, err := conn.Write(resp); err != nil {
		logger.Debug("failed to write response", zap.Error(err))
		return false
	}
	return true
}

// NumAcceptedRequests returns the number of accepted requests for this server.
// It is used for testing.
func (s *Server) NumAcceptedRequests() int {
	if s.metrics == nil {
		return -1
	}
	m := &dto.Metric{}
	if err := s.metrics.accepted.Write(m); err != nil {
		panic("failed to get metric: " + err.Error())
	}
	return int(m.Counter.GetValue())
}
