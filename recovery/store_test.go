package recovery

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-feedsim/common/types"
)

func TestStore(t *testing.T) {
	s := NewStore(DemoRecords()...)
	require.Equal(t, 5, s.Len())

	payload, found := s.Get(10)
	require.True(t, found)
	require.Equal(t, "Recovered data for SEQ:10", payload)

	for _, seq := range []types.Sequence{0, 5, 26} {
		payload, found := s.Get(seq)
		require.False(t, found, "seq %d", seq)
		require.Empty(t, payload)
	}

	s.Put(5, "late")
	payload, found = s.Get(5)
	require.True(t, found)
	require.Equal(t, "late", payload)
	require.Equal(t, 6, s.Len())
}

func TestStoreLastRecordWins(t *testing.T) {
	s := NewStore(Record{Sequence: 1, Payload: "a"}, Record{Sequence: 1, Payload: "b"})
	payload, found := s.Get(1)
	require.True(t, found)
	require.Equal(t, "b", payload)
	require.Equal(t, 1, s.Len())
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				seq := types.Sequence(i*100 + j)
				s.Put(seq, fmt.Sprint(seq))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if payload, found := s.Get(types.Sequence(j)); found {
					assert.Equal(t, fmt.Sprint(j), payload)
				}
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 800, s.Len())
}
