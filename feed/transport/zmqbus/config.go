// Package zmqbus broadcasts feed messages over a ZeroMQ PUB/SUB pair. The publisher binds the
// endpoint and subscribers connect to it.
//
// The transport needs libzmq through cgo and is only compiled with the zmq build tag. The
// configuration is always available so config files stay portable between builds.
package zmqbus

import "time"

// Config for the ZeroMQ transport.
type Config struct {
	Endpoint string `mapstructure:"endpoint"`
	Topic    string `mapstructure:"topic"`
	// PollInterval bounds how long a receive waits before checking for cancellation.
	PollInterval time.Duration `mapstructure:"poll-interval"`
}

// DefaultConfig returns the default ZeroMQ configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint:     "tcp://127.0.0.1:6001",
		Topic:        "feed",
		PollInterval: 100 * time.Millisecond,
	}
}
