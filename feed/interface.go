package feed

import (
	"context"

	"github.com/spacemeshos/go-feedsim/common/types"
)

//go:generate mockgen -typed -package=feed -destination=./mocks.go -source=./interface.go

// Broadcaster sends one message to every listener of the feed. Delivery is not guaranteed.
type Broadcaster interface {
	Broadcast(ctx context.Context, data []byte) error
}

// Receiver returns one broadcast message per call. It returns net.ErrClosed once closed.
type Receiver interface {
	Receive(ctx context.Context) ([]byte, error)
}

// Recoverer fetches the payload of a missed sequence.
type Recoverer interface {
	Recover(ctx context.Context, seq types.Sequence) (string, error)
}
