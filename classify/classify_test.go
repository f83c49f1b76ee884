package classify

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dnasintax/sintax/index"
	"github.com/dnasintax/sintax/kmer"
	"github.com/dnasintax/sintax/seqio"
)

// the reference set from spec.md section 8.
const scenarioFasta = ">r1\nATCGATCGATCGATCGATCGATCGATCGATCG\n" +
	">r2\nGGGGGGGGGGGGGGGGGGGGGGGGGGGGGGGG\n" +
	">r3\nATCGATCGATCGATCGATCGATCGATCGATCG\n"

func buildScenarioIndex(t *testing.T, k int, d uint64) *index.Index {
	t.Helper()
	s := seqio.NewScanner(strings.NewReader(scenarioFasta))
	idx, err := index.Build(context.Background(), s, index.BuildOpts{KmerLength: k, Downsample: d, Threads: 2})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return idx
}

func TestIdenticalQueryNeverWinsToR2(t *testing.T) {
	idx := buildScenarioIndex(t, 5, 1)
	coder := kmer.NewCoder(5, 1)
	hashes := HashesForQuery(coder.Kmerize("ATCGATCGATCGATCGATCG"))

	votes := Query(idx, hashes, SeedForQuery("q1"), Opts{Bootstraps: 10, QueryHashes: 8}, nil)
	if len(votes) == 0 {
		t.Fatalf("expected at least one winning iteration")
	}
	for _, v := range votes {
		if idx.IDs[v.Ordinal] == "r2" {
			t.Errorf("r2 (the homopolymer reference) must never win against this query")
		}
	}
}

func TestAmbiguousOnlyQueryEmitsNothing(t *testing.T) {
	idx := buildScenarioIndex(t, 5, 1)
	coder := kmer.NewCoder(5, 1)
	hashes := HashesForQuery(coder.Kmerize("NNNNNNNNNNNN"))
	if len(hashes) != 0 {
		t.Fatalf("expected empty hash set for an all-N query")
	}

	votes := Query(idx, hashes, SeedForQuery("q2"), Opts{Bootstraps: 10, QueryHashes: 8}, nil)
	if votes != nil {
		t.Fatalf("expected no votes for an ambiguous-only query, got %v", votes)
	}
}

func TestStrandQueryClassifiesToForwardReferences(t *testing.T) {
	idx := buildScenarioIndex(t, 5, 1)
	coder := kmer.NewCoder(5, 1)
	// reverse-complement region of r1/r3.
	hashes := HashesForQuery(coder.Kmerize("CGATCGATCGATCGATCGAT"))

	votes := Query(idx, hashes, SeedForQuery("q3"), Opts{Bootstraps: 10, QueryHashes: 8}, nil)
	if len(votes) == 0 {
		t.Fatalf("expected at least one winning iteration")
	}
	for _, v := range votes {
		id := idx.IDs[v.Ordinal]
		if id != "r1" && id != "r3" {
			t.Errorf("expected winner r1 or r3, got %s", id)
		}
	}
}

func TestDeterminismUnderFixedSeed(t *testing.T) {
	idx := buildScenarioIndex(t, 5, 1)
	coder := kmer.NewCoder(5, 1)
	hashes := HashesForQuery(coder.Kmerize("ATCGATCGATCGATCGATCG"))
	seed := SeedForQuery("q1")

	first := Query(idx, hashes, seed, Opts{Bootstraps: 20, QueryHashes: 8}, nil)
	second := Query(idx, hashes, seed, Opts{Bootstraps: 20, QueryHashes: 8}, nil)

	if len(first) != len(second) {
		t.Fatalf("got different vote counts across identical runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("vote %d differs across identical runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDownsamplingPreservesTopHit(t *testing.T) {
	idxFull := buildScenarioIndex(t, 15, 1)
	idxSub := buildScenarioIndex(t, 15, 5)

	query := "ATCGATCGATCGATCGATCGATCGATCGATCG" // r1's own sequence

	for _, tc := range []struct {
		name string
		idx  *index.Index
		d    uint64
	}{
		{"D=1", idxFull, 1},
		{"D=5", idxSub, 5},
	} {
		coder := kmer.NewCoder(15, tc.d)
		hashes := HashesForQuery(coder.Kmerize(query))
		votes := Query(tc.idx, hashes, SeedForQuery("r1query"), Opts{Bootstraps: 10, QueryHashes: 10}, nil)
		if len(votes) == 0 {
			t.Fatalf("%s: expected at least one winning iteration", tc.name)
		}
		for _, v := range votes {
			id := tc.idx.IDs[v.Ordinal]
			if id != "r1" && id != "r3" {
				t.Errorf("%s: expected winner r1 or r3, got %s", tc.name, id)
			}
		}
	}
}

func TestArgmaxBreaksTiesToLowestOrdinal(t *testing.T) {
	votes := []int{3, 5, 5, 2}
	idx, max := argmax(votes)
	if idx != 1 || max != 5 {
		t.Fatalf("argmax = (%d, %d), want (1, 5)", idx, max)
	}
}

func TestFormatBlockOmitsNothingAndJoinsWithNewlines(t *testing.T) {
	ids := []string{"r1", "r2"}
	votes := []Vote{{Ordinal: 0, Count: 4, Iter: 1}, {Ordinal: 1, Count: 2, Iter: 2}}
	block := formatBlock("q1", ids, votes)
	want := "q1\tr1\t4\t1\nq1\tr2\t2\t2\n"
	if string(block) != want {
		t.Fatalf("formatBlock = %q, want %q", block, want)
	}
}

func TestRunProducesContiguousPerQueryBlocks(t *testing.T) {
	idx := buildScenarioIndex(t, 5, 1)
	queries := ">q1\nATCGATCGATCGATCGATCG\n>q2\nNNNNNNNNNNNN\n"
	s := seqio.NewScanner(strings.NewReader(queries))

	var out bytes.Buffer
	opts := RunOpts{
		Classify: Opts{Bootstraps: 5, QueryHashes: 8},
		Coder:    kmer.NewCoder(5, 1),
		Threads:  2,
	}
	if err := Run(context.Background(), s, idx, opts, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatalf("expected at least one output line, got %q", out.String())
	}
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			t.Fatalf("malformed output line %q", line)
		}
		if fields[0] != "q1" {
			t.Errorf("q2 (ambiguous-only) should never produce output lines, got %q", line)
		}
	}
}
