package types

import (
	"fmt"
	"strconv"
)

// Sequence is the position of a message in the feed.
type Sequence uint32

const (
	// FirstSequence is the sequence of the first message a publisher emits and the
	// sequence a consumer expects before it has seen anything.
	FirstSequence = Sequence(1)
)

// ParseSequence parses a base 10 unsigned 32-bit sequence number.
func ParseSequence(s string) (Sequence, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse sequence %q: %w", s, err)
	}
	return Sequence(v), nil
}

// Next returns the sequence following s. It wraps to zero after the largest uint32.
func (s Sequence) Next() Sequence {
	return s + 1
}

// Uint32 returns the sequence as an uint32.
func (s Sequence) Uint32() uint32 {
	return uint32(s)
}

func (s Sequence) String() string {
	return strconv.FormatUint(uint64(s), 10)
}
