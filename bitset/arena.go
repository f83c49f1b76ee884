package bitset

import (
	"unsafe"

	"github.com/grailbio/base/log"
	"golang.org/x/sys/unix"
)

// Arena is a single large backing allocation for many same-capacity Sets.
// Building an inverted index one small []uint64 per hash produces one GC
// object per k-mer, which is the dominant allocation cost for a
// million-hash database; compacting them into one mmap'd region shrinks
// that to a single allocation and improves the classifier's cache and TLB
// behavior, the same trade fusion/kmer_index.go's initShard makes by
// mmapping its perfect hash table with MADV_HUGEPAGE.
type Arena struct {
	mem       []byte
	wordsUsed int
}

const hugePageSize = 2 << 20 // Linux transparent hugepage size.

// NewArena mmaps an anonymous region sized to hold numEntries Sets of
// wordsPerEntry uint64 words each, and advises the kernel to back it with
// transparent hugepages. It panics on mmap failure, matching the
// teacher's log.Panic-on-mmap-failure convention for a condition that
// should never occur outside of extreme memory pressure.
func NewArena(numEntries, wordsPerEntry int) *Arena {
	nBytes := numEntries*wordsPerEntry*8 + hugePageSize
	mem, err := unix.Mmap(-1, 0, nBytes, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		log.Panic(err)
	}
	if err := unix.Madvise(mem, unix.MADV_HUGEPAGE); err != nil {
		log.Panic(err)
	}
	return &Arena{mem: mem}
}

// Alloc carves the next n-word slice out of the arena and returns a Set
// backed by it. The caller must not request more words in total than the
// arena was sized for.
func (a *Arena) Alloc(n, capacityBits int) *Set {
	start := a.wordsUsed
	a.wordsUsed += n
	byteStart := start * 8
	byteLimit := byteStart + n*8
	if byteLimit > len(a.mem) {
		log.Panicf("bitset: arena exhausted, wanted %d words at offset %d", n, start)
	}
	words := unsafe.Slice((*uint64)(unsafe.Pointer(&a.mem[byteStart])), n)
	return FromWords(words, capacityBits)
}

// Compact copies an existing map of hash->*Set, all of the same capacity,
// into a freshly allocated Arena and returns the re-pointed map. It is
// called once, after the concurrent index builder finishes, so the
// classifier's steady-state scans run against one contiguous mapping
// instead of scattered per-hash allocations.
func Compact(entries map[uint64]*Set, capacityBits int) map[uint64]*Set {
	if len(entries) == 0 {
		return entries
	}
	wordsPerEntry := numWords(capacityBits)
	arena := NewArena(len(entries), wordsPerEntry)
	out := make(map[uint64]*Set, len(entries))
	for h, s := range entries {
		dst := arena.Alloc(wordsPerEntry, capacityBits)
		copy(dst.words, s.words)
		out[h] = dst
	}
	return out
}
