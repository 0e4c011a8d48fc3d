package feed

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-feedsim/common/types"
)

func TestMessageEncode(t *testing.T) {
	require.Equal(t, "SEQ:7|PRICE:107", string(NewMessage(7).Encode()))
	require.Equal(t, "SEQ:1|PRICE:101", NewMessage(types.FirstSequence).String())
	require.Equal(t, "SEQ:3|PRICE:99.25", Message{Sequence: 3, Price: 99.25}.String())
}

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		desc  string
		input string
		msg   Message
		err   bool
	}{
		{desc: "valid", input: "SEQ:7|PRICE:107", msg: Message{Sequence: 7, Price: 107}},
		{desc: "fraction", input: "SEQ:12|PRICE:112.5", msg: Message{Sequence: 12, Price: 112.5}},
		{desc: "whitespace", input: " SEQ:2|PRICE:102\n", msg: Message{Sequence: 2, Price: 102}},
		{desc: "max sequence", input: "SEQ:4294967295|PRICE:1", msg: Message{Sequence: 4294967295, Price: 1}},
		{desc: "empty", input: "", err: true},
		{desc: "no separator", input: "SEQ:7 PRICE:107", err: true},
		{desc: "no price", input: "SEQ:7", err: true},
		{desc: "wrong field order", input: "PRICE:107|SEQ:7", err: true},
		{desc: "negative sequence", input: "SEQ:-1|PRICE:99", err: true},
		{desc: "sequence overflow", input: "SEQ:4294967296|PRICE:1", err: true},
		{desc: "bad price", input: "SEQ:7|PRICE:abc", err: true},
		{desc: "extra field", input: "SEQ:7|PRICE:107|X", err: true},
		{desc: "lowercase", input: "seq:7|price:107", err: true},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			msg, err := Decode([]byte(tc.input))
			if tc.err {
				require.ErrorIs(t, err, ErrMalformedMessage)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.msg, msg)
		})
	}
}

func TestDecodeEncoded(t *testing.T) {
	for _, seq := range []types.Sequence{1, 5, 99, 1 << 31} {
		msg, err := Decode(NewMessage(seq).Encode())
		require.NoError(t, err)
		require.Equal(t, NewMessage(seq), msg)
	}
}

func TestMessageEncoding(t *testing.T) {
	f := fuzz.NewWithSeed(1001)
	for i := 0; i < 100; i++ {
		var object Message
		f.Fuzz(&object)

		decoded, err := Decode(object.Encode())
		require.NoError(t, err)
		require.Equal(t, object, decoded)
	}
}

func TestDecodeArbitrary(t *testing.T) {
	f := fuzz.NewWithSeed(1001)
	for i := 0; i < 100; i++ {
		var data []byte
		f.Fuzz(&data)

		_, err := Decode(data)
		if err != nil {
			require.ErrorIs(t, err, ErrMalformedMessage)
		}
	}
}
