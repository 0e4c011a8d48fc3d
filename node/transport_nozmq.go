//go:build !zmq

package node

import (
	"errors"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-feedsim/feed/transport/zmqbus"
)

// ErrZMQUnavailable is returned when the zmq transport is configured in a build without it.
var ErrZMQUnavailable = errors.New("zmq transport is not compiled in, rebuild with -tags zmq")

func openZMQReceiver(zmqbus.Config, *zap.Logger) (receiver, error) {
	return nil, ErrZMQUnavailable
}

func openZMQBroadcaster(zmqbus.Config, *zap.Logger) (broadcaster, error) {
	return nil, ErrZMQUnavailable
}
