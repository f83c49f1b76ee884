package index

import (
	"encoding/binary"
	"sync"

	"blainsmith.com/go/seahash"

	"github.com/dnasintax/sintax/bitset"
)

// numShards is the width of the sharded concurrent map used while
// building an index, the same sharding width
// encoding/bamprovider/concurrentmap.go uses for its sequence-name ->
// mate map.
const numShards = 1024

type mapShard struct {
	mu      sync.Mutex
	entries map[uint64]*bitset.Set
}

// concurrentMap is a sharded, thread-safe map from k-mer hash to posting
// list. Updates to hashes in different shards proceed independently (no
// contention); updates to the same hash are serialized by
// that shard's mutex, which is exactly the guarantee spec.md section 4.3
// requires of the concurrent map ("per-entry mutual exclusion so that
// concurrent modifications of the same posting list are serialized").
type concurrentMap struct {
	shards [numShards]mapShard
}

func newConcurrentMap(estimatedEntries int) *concurrentMap {
	m := &concurrentMap{}
	perShard := estimatedEntries/numShards + 1
	for i := range m.shards {
		m.shards[i].entries = make(map[uint64]*bitset.Set, perShard)
	}
	return m
}

func shardFor(hash uint64) int {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], hash)
	return int(seahash.Sum64(b[:]) % numShards)
}

// setBit ensures a posting list exists for hash (capacity capacityBits)
// and sets bit ordinal on it. Safe for concurrent use across distinct
// hashes and serialized per-hash, per the struct doc above.
func (m *concurrentMap) setBit(hash uint64, ordinal, capacityBits int) {
	shard := &m.shards[shardFor(hash)]
	shard.mu.Lock()
	set, ok := shard.entries[hash]
	if !ok {
		set = bitset.New(capacityBits)
		shard.entries[hash] = set
	}
	set.SetUnchecked(ordinal)
	shard.mu.Unlock()
}

// snapshot drains every shard into one flat map. Called once, after all
// writers have finished.
func (m *concurrentMap) snapshot() map[uint64]*bitset.Set {
	out := make(map[uint64]*bitset.Set)
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for h, set := range s.entries {
			out[h] = set
		}
		s.mu.Unlock()
	}
	return out
}
