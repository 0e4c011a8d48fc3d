// Package multicast broadcasts feed messages as UDP datagrams to an IPv4 multicast group.
// A unicast destination is also accepted, which is how the transport is tested on hosts
// without a multicast route.
package multicast

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"github.com/spacemeshos/go-feedsim/log"
)

// Config for the multicast transport.
type Config struct {
	// Group is the destination of the feed, e.g. 239.192.1.1:6000.
	Group string `mapstructure:"group"`
	// Interface is the name of the network interface used for multicast. Empty uses the
	// system default.
	Interface string `mapstructure:"interface"`
	TTL       int    `mapstructure:"ttl"`
	// Loopback delivers datagrams to receivers on the sending host.
	Loopback bool `mapstructure:"loopback"`
	// ReadBuffer is the largest datagram the receiver reads in full.
	ReadBuffer int `mapstructure:"read-buffer"`
}

// DefaultConfig returns the multicast configuration of the demo setup.
func DefaultConfig() Config {
	return Config{
		Group:      "239.192.1.1:6000",
		TTL:        1,
		Loopback:   true,
		ReadBuffer: 1024,
	}
}

// Opt is a type to configure a sender or receiver.
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

func lookupInterface(name string) (*net.Interface, error) {
	if name == "" {
		return nil, nil
	}
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("lookup interface %s: %w", name, err)
	}
	return ifi, nil
}

// Sender writes one datagram per message to the configured group.
type Sender struct {
	logger *zap.Logger
	conn   *net.UDPConn
	dst    *net.UDPAddr
}

// NewSender opens an unbound UDP socket for sending to cfg.Group.
func NewSender(cfg Config, opts ...Opt) (*Sender, error) {
	o := applyOpts(opts)
	dst, err := net.ResolveUDPAddr("udp4", cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("resolve group %s: %w", cfg.Group, err)
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return nil, fmt.Errorf("open sender socket: %w", err)
	}
	if dst.IP.IsMulticast() {
		if err := configureSender(ipv4.NewPacketConn(conn), cfg); err != nil {
			conn.Close()
			return nil, err
		}
	}
	o.logger.Info("multicast sender ready",
		zap.Stringer("group", dst),
		zap.Stringer("local", conn.LocalAddr()),
	)
	return &Sender{logger: o.logger, conn: conn, dst: dst}, nil
}

func configureSender(pc *ipv4.PacketConn, cfg Config) error {
	ifi, err := lookupInterface(cfg.Interface)
	if err != nil {
		return err
	}
	if ifi != nil {
		if err := pc.SetMulticastInterface(ifi); err != nil {
			return fmt.Errorf("set multicast interface %s: %w", ifi.Name, err)
		}
	}
	if cfg.TTL > 0 {
		if err := pc.SetMulticastTTL(cfg.TTL); err != nil {
			return fmt.Errorf("set multicast ttl: %w", err)
		}
	}
	if err := pc.SetMulticastLoopback(cfg.Loopback); err != nil {
		return fmt.Errorf("set multicast loopback: %w", err)
	}
	return nil
}

// Broadcast sends data as a single datagram.
func (s *Sender) Broadcast(ctx context.Context, data []byte) error {
	deadline, _ := ctx.Deadline()
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := s.conn.WriteToUDP(data, s.dst); err != nil {
		return fmt.Errorf("write to %s: %w", s.dst, err)
	}
	return nil
}

// LocalAddr returns the address datagrams are sent from.
func (s *Sender) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close closes the socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}

// Receiver reads datagrams sent to the configured group.
type Receiver struct {
	logger  *zap.Logger
	conn    *net.UDPConn
	pc      *ipv4.PacketConn
	group   *net.UDPAddr
	ifi     *net.Interface
	joined  bool
	bufSize int
}

// NewReceiver binds the port of cfg.Group and joins the group. A unicast cfg.Group is bound
// as is.
func NewReceiver(cfg Config, opts ...Opt) (*Receiver, error) {
	o := applyOpts(opts)
	group, err := net.ResolveUDPAddr("udp4", cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("resolve group %s: %w", cfg.Group, err)
	}
	r := &Receiver{
		logger:  o.logger,
		group:   group,
		bufSize: cfg.ReadBuffer,
	}
	if r.bufSize <= 0 {
		r.bufSize = DefaultConfig().ReadBuffer
	}
	if !group.IP.IsMulticast() {
		r.conn, err = net.ListenUDP("udp4", group)
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", group, err)
		}
		r.pc = ipv4.NewPacketConn(r.conn)
		r.logger.Info("unicast receiver ready", zap.Stringer("address", r.conn.LocalAddr()))
		return r, nil
	}

	r.ifi, err = lookupInterface(cfg.Interface)
	if err != nil {
		return nil, err
	}
	r.conn, err = net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: group.Port})
	if err != nil {
		return nil, fmt.Errorf("bind port %d: %w", group.Port, err)
	}
	r.pc = ipv4.NewPacketConn(r.conn)
	if err := r.pc.JoinGroup(r.ifi, &net.UDPAddr{IP: group.IP}); err != nil {
		r.conn.Close()
		return nil, fmt.Errorf("join group %s: %w", group.IP, err)
	}
	r.joined = true
	// the socket receives every datagram sent to the port, the destination tells group traffic apart.
	if err := r.pc.SetControlMessage(ipv4.FlagDst, true); err != nil {
		r.logger.Debug("destination filtering unavailable", zap.Error(err))
	}
	r.logger.Info("joined multicast group",
		zap.Stringer("group", group),
		zap.String("interface", cfg.Interface),
	)
	return r, nil
}

// Receive returns the payload of the next datagram. It returns net.ErrClosed after Close.
func (r *Receiver) Receive(ctx context.Context) ([]byte, error) {
	if err := r.conn.SetReadDeadline(time.Time{}); err != nil {
		return nil, fmt.Errorf("reset read deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { r.conn.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, r.bufSize)
	for {
		n, cm, src, err := r.pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil, net.ErrClosed
			}
			return nil, fmt.Errorf("read datagram: %w", err)
		}
		if r.joined && cm != nil && cm.Dst != nil && !cm.Dst.Equal(r.group.IP) {
			r.logger.Debug("ignoring datagram outside the group",
				zap.Stringer("destination", cm.Dst),
				zap.Stringer("source", src),
			)
			continue
		}
		return buf[:n], nil
	}
}

// LocalAddr returns the address the receiver is bound to.
func (r *Receiver) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

// Close leaves the group and closes the socket.
func (r *Receiver) Close() error {
	if r.joined {
		if err := r.pc.LeaveGroup(r.ifi, &net.UDPAddr{IP: r.group.IP}); err != nil {
			r.logger.Debug("failed to leave group", zap.Error(err))
		}
	}
	return r.conn.Close()
}
