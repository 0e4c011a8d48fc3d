package recovery

import (
	"fmt"
	"sync"

	"github.com/spacemeshos/go-feedsim/common/types"
)

// Record is a payload that can be served for a sequence.
type Record struct {
	Sequence types.Sequence `mapstructure:"seq"`
	Payload  string         `mapstructure:"payload"`
}

// DemoRecords returns the records the demo store is seeded with.
// Sequence 5 is deliberately missing, so the first dropped message can't be recovered.
func DemoRecords() []Record {
	seqs := []types.Sequence{1, 10, 15, 20, 25}
	records := make([]Record, 0, len(seqs))
	for _, seq := range seqs {
		records = append(records, Record{
			Sequence: seq,
			Payload:  fmt.Sprintf("Recovered data for SEQ:%d", seq),
		})
	}
	return records
}

// Store maps sequences to the payloads served for recovery.
// Lookups share a read lock, population takes the write lock.
type Store struct {
	mu      sync.RWMutex
	records map[types.Sequence]string
}

// NewStore creates a store populated with records.
func NewStore(records ...Record) *Store {
	s := &Store{records: make(map[types.Sequence]string, len(records))}
	for _, r := range records {
		s.records[r.Sequence] = r.Payload
	}
	return s
}

// Get returns the payload stored for seq. Absence is reported with found == false.
func (s *Store) Get(seq types.Sequence) (payload string, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, found = s.records[seq]
	return payload, found
}

// Put stores payload for seq, replacing any previous value.
func (s *Store) Put(seq types.Sequence, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[seq] = payload
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
