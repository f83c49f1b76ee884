// Package index builds and holds the inverted index: a mapping from
// canonical k-mer hash to a packed bitset of which reference ordinals
// contain that hash. It is built once, concurrently, from a stream of
// reference records, and is read-only for the remainder of the process
// lifetime -- the same "build once in parallel, then share read-only"
// shape fusion/kmer_index.go uses for its kmer->gene table.
package index

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"

	"github.com/dnasintax/sintax/bitset"
	"github.com/dnasintax/sintax/kmer"
	"github.com/dnasintax/sintax/seqio"
)

// Index is the immutable, built inverted index plus the ordinal -> id
// vector it was built against.
type Index struct {
	Hashes map[uint64]*bitset.Set
	IDs    []string
}

// N is the number of references the index was built over: the capacity
// (in bits) of every posting list, and len(IDs).
func (idx *Index) N() int { return len(idx.IDs) }

// Lookup returns the posting list for hash, or nil if the hash never
// occurs in any reference.
func (idx *Index) Lookup(hash uint64) *bitset.Set {
	return idx.Hashes[hash]
}

// BuildOpts configures an index build.
type BuildOpts struct {
	KmerLength int
	Downsample uint64
	Threads    int // 0 = traverse's default parallelism
}

// Build reads every record from r, k-merizes it with the configured
// coder, and returns the resulting inverted index. Each record the scanner
// yields gets the next ordinal, in stream order. If the scanner stops with
// an error (a read failure, or input that does not begin with a FASTA
// header), Build logs it and indexes the records read before it; that
// error is not returned.
//
// The first pass (steps 1-2 of spec.md section 4.3's protocol) reads the
// whole stream into memory so that ordinals can be assigned in stream
// order before any parallel work starts; the second pass (step 4)
// k-merizes and populates the concurrent map in parallel across records,
// the way pileup/snp/pileup.go shards its main loop with traverse.Each.
func Build(ctx context.Context, r *seqio.Scanner, opts BuildOpts) (*Index, error) {
	var records []seqio.Record
	var rec seqio.Record
	for r.Scan(&rec) {
		records = append(records, rec)
	}
	if err := r.Err(); err != nil {
		log.Printf("index: FASTA stream ended early: %v (retaining %d records seen so far)", err, len(records))
	}

	n := len(records)
	ids := make([]string, n)
	for i, rec := range records {
		ids[i] = rec.ID
	}

	cmap := newConcurrentMap(n)

	if err := (traverse.T{Limit: opts.Threads}).Each(n, func(i int) error {
		coder := kmer.NewCoder(opts.KmerLength, opts.Downsample)
		hashes := coder.Kmerize(records[i].Seq)
		for h := range hashes {
			cmap.setBit(h, i, n)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	hashes := cmap.snapshot()
	hashes = bitset.Compact(hashes, n)

	log.Printf("index: built %d references, %d distinct k-mer hashes", n, len(hashes))
	return &Index{Hashes: hashes, IDs: ids}, nil
}
