package types

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSequence(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		input string
		seq   Sequence
		err   bool
	}{
		{desc: "first", input: "1", seq: FirstSequence},
		{desc: "zero", input: "0", seq: 0},
		{desc: "max", input: strconv.FormatUint(math.MaxUint32, 10), seq: math.MaxUint32},
		{desc: "overflow", input: "4294967296", err: true},
		{desc: "negative", input: "-1", err: true},
		{desc: "empty", input: "", err: true},
		{desc: "not a number", input: "ten", err: true},
		{desc: "spaces", input: " 7", err: true},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			seq, err := ParseSequence(tc.input)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.seq, seq)
		})
	}
}

func TestSequenceNext(t *testing.T) {
	require.Equal(t, Sequence(2), FirstSequence.Next())
	require.Equal(t, Sequence(0), Sequence(math.MaxUint32).Next())
	require.Equal(t, "26", Sequence(25).Next().String())
	require.Equal(t, uint32(7), Sequence(7).Uint32())
}
