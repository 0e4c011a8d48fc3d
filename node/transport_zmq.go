//go:build zmq

package node

import (
	"go.uber.org/zap"

	"github.com/spacemeshos/go-feedsim/feed/transport/zmqbus"
)

func openZMQReceiver(cfg zmqbus.Config, logger *zap.Logger) (receiver, error) {
	rx, err := zmqbus.NewSubscriber(cfg, zmqbus.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return rx, nil
}

func openZMQBroadcaster(cfg zmqbus.Config, logger *zap.Logger) (broadcaster, error) {
	tx, err := zmqbus.NewPublisher(cfg, zmqbus.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return tx, nil
}
