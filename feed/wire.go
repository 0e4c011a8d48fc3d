package feed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spacemeshos/go-feedsim/common/types"
)

const (
	seqField   = "SEQ:"
	priceField = "PRICE:"
	separator  = "|"

	basePrice = 100
)

// ErrMalformedMessage is returned when a broadcast message can't be decoded.
var ErrMalformedMessage = errors.New("malformed feed message")

// Message is a sequenced price update as broadcast on the feed.
type Message struct {
	Sequence types.Sequence
	Price    float64
}

// PriceFor returns the synthetic price published with seq.
func PriceFor(seq types.Sequence) float64 {
	return basePrice + float64(seq)
}

// NewMessage creates the message the publisher emits for seq.
func NewMessage(seq types.Sequence) Message {
	return Message{Sequence: seq, Price: PriceFor(seq)}
}

// Encode formats the message as "SEQ:<n>|PRICE:<price>".
func (m Message) Encode() []byte {
	return []byte(m.String())
}

func (m Message) String() string {
	return seqField + m.Sequence.String() + separator + priceField + strconv.FormatFloat(m.Price, 'f', -1, 64)
}

// Decode parses a broadcast message. Surrounding whitespace is ignored, both fields are required.
func Decode(data []byte) (Message, error) {
	raw := strings.TrimSpace(string(data))
	seqPart, pricePart, ok := strings.Cut(raw, separator)
	if !ok {
		return Message{}, fmt.Errorf("%w: missing separator in %q", ErrMalformedMessage, raw)
	}
	rest, ok := strings.CutPrefix(seqPart, seqField)
	if !ok {
		return Message{}, fmt.Errorf("%w: missing %s field in %q", ErrMalformedMessage, seqField, raw)
	}
	seq, err := types.ParseSequence(rest)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	rest, ok = strings.CutPrefix(pricePart, priceField)
	if !ok {
		return Message{}, fmt.Errorf("%w: missing %s field in %q", ErrMalformedMessage, priceField, raw)
	}
	price, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return Message{}, fmt.Errorf("%w: parse price %q: %w", ErrMalformedMessage, rest, err)
	}
	return Message{Sequence: seq, Price: price}, nil
}
