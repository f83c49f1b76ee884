// Package kmer implements canonical k-mer hashing with MinHash-style
// fractional downsampling. A sequence is reduced to the set of 64-bit
// hashes of its canonical k-mers: for every window of k consecutive ACGT
// bases, the lexicographically smaller of the forward and
// reverse-complement 2-bit encodings is hashed through a fixed integer
// mixer, then kept or discarded by a deterministic downsampling gate.
//
// The coder keeps two rolling 2-bit-packed windows (forward and
// reverse-complement) and advances both by one base per byte consumed,
// the way fusion.kmerizer does in the teacher repository, rather than
// recomputing each k-mer from scratch.
package kmer

import (
	"github.com/grailbio/base/simd"
	gunsafe "github.com/grailbio/base/unsafe"
)

const (
	// MinLength and MaxLength bound the k-mer size this package supports.
	// The 2-bit packing fits in a uint64 up to k=32, but the CLI contract
	// (spec.md section 6) documents 7..=30; this package enforces the same
	// bound so a database built with an invalid k can never be produced.
	MinLength = 7
	MaxLength = 30

	invalidCode = uint8(4)
)

// codeTable and complementCodeTable map an ASCII nucleotide byte to its
// 2-bit code (A=0, C=1, G=2, T/U=3) and to the code of its complement,
// respectively. Any other byte maps to invalidCode and resets the rolling
// windows, per spec.md section 4.1.
var (
	codeTable           [256]uint8
	complementCodeTable [256]uint8
)

func init() {
	for i := range codeTable {
		codeTable[i] = invalidCode
		complementCodeTable[i] = invalidCode
	}
	set := func(upper, lower byte, code, comp uint8) {
		codeTable[upper], codeTable[lower] = code, code
		complementCodeTable[upper], complementCodeTable[lower] = comp, comp
	}
	set('A', 'a', 0, 3)
	set('C', 'c', 1, 2)
	set('G', 'g', 2, 1)
	set('T', 't', 3, 0)
	set('U', 'u', 3, 0)
}

// mix64 is the fixed integer mixer pinned by spec.md section 6: the
// constants and operations here are part of the on-disk database contract
// and must never change, or previously built databases stop matching
// freshly classified queries. This is Thomas Wang's 64-bit integer hash,
// applied to the canonical 2-bit k-mer value.
func mix64(key uint64) uint64 {
	key = ^(key + (key << 21))
	key = key ^ (key >> 24)
	key = key + (key << 3) + (key << 8)
	key = key ^ (key >> 14)
	key = key + (key << 2) + (key << 4)
	key = key ^ (key >> 28)
	key = key + (key << 31)
	return key
}

// Set is an unordered, deduplicated collection of canonical k-mer hashes.
type Set map[uint64]struct{}

// Add inserts h into the set.
func (s Set) Add(h uint64) { s[h] = struct{}{} }

// Slice returns the set's members as a slice, in unspecified order.
func (s Set) Slice() []uint64 {
	out := make([]uint64, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	return out
}

// Coder k-merizes nucleotide sequences with a fixed (length, downsampling)
// configuration. Kmerize and KmerizeInto keep their rolling-window state in
// local variables and do not modify the Coder, so one Coder can serve
// concurrent Kmerize calls; ReverseComplement writes to the Coder's scratch
// buffer and is not safe for concurrent use.
type Coder struct {
	length int
	mask   uint64 // low 2*length bits set
	shift  uint64 // (length-1)*2
	ceil   uint64 // floor((2^64-1)/D); canonical values at or below this pass

	tmp []byte // scratch buffer for ReverseComplement
}

// NewCoder builds a Coder for k-mers of the given length, downsampled by
// factor d: a canonical k-mer is kept when its 2-bit value is at most
// floor((2^64-1)/d). Canonical values are below 4^length, so the gate
// drops nothing unless 4^length exceeds that bound; with d at most 99 that
// happens only at length 29 or 30. length must be in [MinLength, MaxLength]
// and d must be >= 1.
func NewCoder(length int, d uint64) *Coder {
	if length < MinLength || length > MaxLength {
		panic("kmer: length out of range")
	}
	if d == 0 {
		panic("kmer: downsampling factor must be >= 1")
	}
	nbits := uint(length) * 2
	return &Coder{
		length: length,
		mask:   (uint64(1) << nbits) - 1,
		shift:  uint64(length-1) * 2,
		ceil:   ^uint64(0) / d,
	}
}

// Length returns the configured k-mer length.
func (c *Coder) Length() int { return c.length }

// Kmerize returns the set of canonical, downsampled k-mer hashes found in
// seq. Windows spanning an ambiguous (non-ACGT) base are skipped; if
// len(seq) < k, the result is empty. The returned set contains no
// duplicates and its iteration order is unspecified.
func (c *Coder) Kmerize(seq string) Set {
	out := make(Set, maxInt(len(seq)-c.length+1, 0))
	c.KmerizeInto(seq, out)
	return out
}

// KmerizeInto is like Kmerize but inserts into an existing set, avoiding
// an allocation when reusing the same output set across many records.
func (c *Coder) KmerizeInto(seq string, out Set) {
	if len(seq) < c.length {
		return
	}

	var forward, revcomp uint64
	validRun := 0 // number of consecutive valid bases consumed so far

	for i := 0; i < len(seq); i++ {
		code := codeTable[seq[i]]
		if code == invalidCode {
			validRun = 0
			forward, revcomp = 0, 0
			continue
		}
		forward = ((forward << 2) | uint64(code)) & c.mask
		revcomp = (revcomp >> 2) | (uint64(complementCodeTable[seq[i]]) << c.shift)
		validRun++
		if validRun >= c.length {
			c.emit(forward, revcomp, out)
		}
	}
}

func (c *Coder) emit(forward, revcomp uint64, out Set) {
	canonical := forward
	if revcomp < forward {
		canonical = revcomp
	}
	if canonical <= c.ceil {
		out.Add(mix64(canonical))
	}
}

// ReverseComplement returns the reverse complement of an ACGT/U sequence.
// It reuses its scratch buffer across calls via simd.ResizeUnsafe, and
// hands the result back as a string with a zero-copy cast via
// gunsafe.BytesToString, the same pair of tricks fusion.kmerizer.Scan uses
// to avoid per-call allocation. The returned string aliases the Coder's
// internal buffer and is only valid until the next call.
func (c *Coder) ReverseComplement(seq string) string {
	simd.ResizeUnsafe(&c.tmp, len(seq))
	n := len(seq)
	for i := 0; i < n; i++ {
		c.tmp[n-1-i] = complementByte(seq[i])
	}
	return gunsafe.BytesToString(c.tmp)
}

func complementByte(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'a':
		return 't'
	case 'C':
		return 'G'
	case 'c':
		return 'g'
	case 'G':
		return 'C'
	case 'g':
		return 'c'
	case 'T', 'U':
		return 'A'
	case 't', 'u':
		return 'a'
	default:
		return b
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
