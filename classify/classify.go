// Package classify implements the SINTAX bootstrap classifier: for each
// query, repeated with-replacement resampling of its k-mer hash set against
// the inverted index, reporting the top-voted reference per iteration.
package classify

import (
	"sort"

	farm "github.com/dgryski/go-farm"

	"github.com/dnasintax/sintax/index"
)

// Opts configures a classification run.
type Opts struct {
	Bootstraps  int // B: number of bootstrap iterations per query, 10..199.
	QueryHashes int // K: hashes sampled with replacement per iteration, 10..99.
}

// Vote is one bootstrap iteration's winner: the reference ordinal that
// received the most votes, its vote count, and the 1-based iteration
// number. A query that received zero votes in an iteration is omitted, per
// spec.md section 4.5.
type Vote struct {
	Ordinal int
	Count   int
	Iter    int
}

// Query bootstrap-classifies one query's k-mer hash set against idx,
// returning one Vote per iteration that produced a nonzero-vote winner.
// votes is caller-provided scratch of length idx.N(), reused across
// iterations (zeroed between each) so a query with many bootstraps does not
// reallocate; pass a nil slice to have one allocated internally.
//
// seed fixes the RNG driving the with-replacement sampling so that
// classifying the same query twice against the same database produces a
// byte-identical result (spec.md section 8, "Classifier determinism under
// fixed RNG").
func Query(idx *index.Index, hashes []uint64, seed uint64, opts Opts, votes []int) []Vote {
	if len(hashes) == 0 {
		return nil
	}
	if votes == nil {
		votes = make([]int, idx.N())
	}

	rng := newRNG(seed)
	var out []Vote
	for iter := 1; iter <= opts.Bootstraps; iter++ {
		for i := range votes {
			votes[i] = 0
		}
		for k := 0; k < opts.QueryHashes; k++ {
			h := hashes[rng.intn(len(hashes))]
			set := idx.Lookup(h)
			if set == nil {
				continue
			}
			for it := set.Ones(); ; {
				bit, ok := it.Next()
				if !ok {
					break
				}
				votes[bit]++
			}
		}

		winner, count := argmax(votes)
		if count > 0 {
			out = append(out, Vote{Ordinal: winner, Count: count, Iter: iter})
		}
	}
	return out
}

// argmax returns the index of the largest value in votes, breaking ties by
// the lowest index -- the natural result of a left-to-right scan that only
// replaces the incumbent on a strictly greater count (spec.md section 4.5
// step 4, section 9 "Tie-breaking").
func argmax(votes []int) (idx, max int) {
	for i, v := range votes {
		if v > max {
			max = v
			idx = i
		}
	}
	return idx, max
}

// HashesForQuery returns a query's k-mer hash set as a sorted slice. Sorting
// fixes an otherwise unspecified Go map iteration order into a single
// canonical sequence Qv, which is required for the fixed-RNG-seed
// determinism property to hold: two runs that build Qv in different orders
// would draw different samples from the same RNG stream even with an
// identical seed.
func HashesForQuery(hashSet map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(hashSet))
	for h := range hashSet {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SeedForQuery derives a deterministic RNG seed from a query id, so that
// repeated classification of the same query id against the same database
// always samples identically (spec.md section 8). This is the same
// farm.Hash64WithSeed call fusion/kmer_index.go's hashKmer makes, just with
// the query id's bytes as data instead of a nil slice.
func SeedForQuery(queryID string) uint64 {
	return farm.Hash64WithSeed([]byte(queryID), 0)
}
