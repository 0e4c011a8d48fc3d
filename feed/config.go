package feed

import (
	"fmt"
	"time"
)

// Transport names the broadcast channel implementation.
type Transport string

const (
	// TransportUDP broadcasts datagrams to a UDP multicast group.
	TransportUDP Transport = "udp"
	// TransportZMQ broadcasts over a ZeroMQ PUB/SUB pair.
	TransportZMQ Transport = "zmq"
	// TransportInproc broadcasts over channels inside one process.
	TransportInproc Transport = "inproc"
)

// Validate returns an error for an unknown transport.
func (t Transport) Validate() error {
	switch t {
	case TransportUDP, TransportZMQ, TransportInproc:
		return nil
	}
	return fmt.Errorf("unknown feed transport %q", string(t))
}

// Config for the feed components.
type Config struct {
	Transport Transport       `mapstructure:"transport"`
	Publisher PublisherConfig `mapstructure:"publisher"`
}

// PublisherConfig controls pacing and loss of the publisher.
type PublisherConfig struct {
	// Interval between two emissions. Zero emits without pause.
	Interval time.Duration `mapstructure:"interval"`
	// DropEvery drops every sequence divisible by it. Zero drops nothing.
	DropEvery uint32 `mapstructure:"drop-every"`
	// Count stops the publisher after that many sequences. Zero runs until cancelled.
	Count uint32 `mapstructure:"count"`
}

// DefaultConfig returns the feed configuration of the demo setup.
func DefaultConfig() Config {
	return Config{
		Transport: TransportUDP,
		Publisher: DefaultPublisherConfig(),
	}
}

// DefaultPublisherConfig emits every 500ms and drops every 5th sequence.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		Interval:  500 * time.Millisecond,
		DropEvery: 5,
	}
}
