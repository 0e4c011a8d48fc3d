package recovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spacemeshos/go-feedsim/common/types"
)

const (
	requestPrefix    = "GET SEQ:"
	notFoundResponse = "Not found"
)

var (
	// ErrNotFound is returned by the client when the server has no payload for a sequence.
	ErrNotFound = errors.New("sequence not found")
	// ErrMalformedRequest is returned when a request can't be decoded.
	ErrMalformedRequest = errors.New("malformed recovery request")
	// ErrEmptyResponse is returned by the client when the server closed without answering.
	ErrEmptyResponse = errors.New("empty recovery response")
)

// EncodeRequest encodes a recovery request for seq, e.g. "GET SEQ:10".
func EncodeRequest(seq types.Sequence) []byte {
	return []byte(requestPrefix + seq.String())
}

// DecodeRequest decodes the sequence from a recovery request.
func DecodeRequest(data []byte) (types.Sequence, error) {
	rest, ok := strings.CutPrefix(string(data), requestPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: missing %q prefix", ErrMalformedRequest, requestPrefix)
	}
	seq, err := types.ParseSequence(strings.TrimSpace(rest))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return seq, nil
}

// EncodeResponse encodes the payload, or the not found marker if found is false.
func EncodeResponse(payload string, found bool) []byte {
	if !found {
		return []byte(notFoundResponse)
	}
	return []byte(payload)
}

// DecodeResponse returns the recovered payload or ErrNotFound.
func DecodeResponse(data []byte) (string, error) {
	switch resp := string(data); resp {
	case "":
		return "", ErrEmptyResponse
	case notFoundResponse:
		return "", ErrNotFound
	default:
		return resp, nil
	}
}
