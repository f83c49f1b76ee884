// Package bitset implements a fixed-capacity packed bit vector, used as
// the inverted index's posting-list representation: bit i set means
// reference ordinal i contains the corresponding k-mer hash.
//
// Iteration over set bits is a tight word-at-a-time scan using
// bits.TrailingZeros64 plus the classic "clear lowest set bit" trick
// (w &= w-1), the same technique fusion/kmer_index.go's perfect hash table
// and the original Rust KmerBitSet both use.
package bitset

import "math/bits"

const wordBits = 64

// Set is a packed bit vector of fixed capacity. The zero value is not
// usable; construct one with New.
type Set struct {
	words []uint64
	n     int // capacity in bits
}

// New allocates a Set with capacity n bits, all initially clear.
func New(n int) *Set {
	return &Set{words: make([]uint64, numWords(n)), n: n}
}

// FromWords wraps an existing word slice as a Set of capacity n. The
// caller must ensure len(words) == numWords(n); this is used by the
// database codec to reload a posting list without copying its words, and
// by the index builder's arena compaction to re-point a Set at a shared
// backing array.
func FromWords(words []uint64, n int) *Set {
	return &Set{words: words, n: n}
}

func numWords(n int) int {
	return (n + wordBits - 1) / wordBits
}

// Cap returns the set's bit capacity.
func (s *Set) Cap() int { return s.n }

// Words returns the backing word slice, most significant use being the
// database codec's direct serialization of posting lists.
func (s *Set) Words() []uint64 { return s.words }

// Set sets bit i. It panics if i is out of range, the one hot-path
// assertion spec.md section 7 calls a programmer-error guard: the index
// builder never calls this with an ordinal >= N.
func (s *Set) Set(i int) {
	if i < 0 || i >= s.n {
		panic("bitset: index out of range")
	}
	s.SetUnchecked(i)
}

// SetUnchecked sets bit i without a bounds check. Callers (the concurrent
// index builder's hot path) must guarantee 0 <= i < Cap().
func (s *Set) SetUnchecked(i int) {
	s.words[i/wordBits] |= uint64(1) << uint(i%wordBits)
}

// Test reports whether bit i is set.
func (s *Set) Test(i int) bool {
	if i < 0 || i >= s.n {
		return false
	}
	return s.words[i/wordBits]&(uint64(1)<<uint(i%wordBits)) != 0
}

// IsEmpty reports whether every bit is clear.
func (s *Set) IsEmpty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Iterator yields the indices of set bits in ascending order. A fresh
// Iterator always starts from the beginning; Ones allocates nothing
// beyond the Iterator value itself.
type Iterator struct {
	words   []uint64
	cap     int
	wordIdx int
	curWord uint64
}

// Ones returns a restartable iterator over the set's members, in
// ascending order.
func (s *Set) Ones() *Iterator {
	it := &Iterator{words: s.words, cap: s.n, wordIdx: -1}
	return it
}

// Next returns the next set bit index and true, or (0, false) once
// exhausted. It never yields an index >= Cap(), even if the final word
// has unused padding bits that happen to be set by a bug elsewhere.
func (it *Iterator) Next() (int, bool) {
	for {
		if it.curWord != 0 {
			idx := bits.TrailingZeros64(it.curWord)
			global := it.wordIdx*wordBits + idx
			it.curWord &= it.curWord - 1 // clear lowest set bit
			if global >= it.cap {
				return 0, false
			}
			return global, true
		}
		it.wordIdx++
		if it.wordIdx >= len(it.words) {
			return 0, false
		}
		it.curWord = it.words[it.wordIdx]
	}
}
