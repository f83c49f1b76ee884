package classify

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"

	"github.com/dnasintax/sintax/index"
	"github.com/dnasintax/sintax/kmer"
	"github.com/dnasintax/sintax/seqio"
)

// RunOpts configures the parallel orchestrator.
type RunOpts struct {
	Classify Opts
	Coder    *kmer.Coder
	Threads  int // 0 = traverse's default parallelism.
}

// resultSink serializes writes from concurrent workers behind one mutex, the
// way spec.md section 4.6 requires: a worker acquires the lock once per
// query, writes its entire block in one call, and releases, so two
// queries' lines never interleave.
type resultSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func (s *resultSink) writeBlock(block []byte) error {
	if len(block) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(block)
	return err
}

// Run reads every query record from r, classifies it against idx in
// parallel (worker width opts.Threads), and writes the tab-separated result
// lines to w. Queries are materialized up front so that workers can be
// dispatched by dense index, the same shape index.Build uses to parallelize
// over reference records.
//
// Write failures are accumulated through an errors.Once, the same
// first-error-wins pattern encoding/fastq/downsample.go's errp and
// cmd/bio-bam-sort/sorter use to let many concurrent workers race to report
// a failure without losing one to a later overwrite.
func Run(ctx context.Context, r *seqio.Scanner, idx *index.Index, opts RunOpts, w io.Writer) (err error) {
	var queries []seqio.Record
	var rec seqio.Record
	for r.Scan(&rec) {
		queries = append(queries, rec)
	}
	if scanErr := r.Err(); scanErr != nil {
		log.Printf("classify: FASTA stream ended early: %v (retaining %d queries seen so far)", scanErr, len(queries))
	}

	sink := &resultSink{w: bufio.NewWriter(w)}
	e := errors.Once{}
	defer func() { err = e.Err() }()

	// opts.Coder is shared read-only across workers: Kmerize never mutates
	// the Coder itself (only its per-call output set), so one Coder can
	// safely serve every concurrent query.
	e.Set((traverse.T{Limit: opts.Threads}).Each(len(queries), func(i int) error {
		q := queries[i]
		hashSet := opts.Coder.Kmerize(q.Seq)
		hashes := HashesForQuery(hashSet)
		seed := SeedForQuery(q.ID)

		votes := classifyQuery(idx, hashes, seed, opts.Classify)
		block := formatBlock(q.ID, idx.IDs, votes)
		if werr := sink.writeBlock(block); werr != nil {
			e.Set(werr)
			return werr
		}
		return nil
	}))
	if e.Err() != nil {
		return
	}

	e.Set(sink.w.Flush())
	return
}

func classifyQuery(idx *index.Index, hashes []uint64, seed uint64, opts Opts) []Vote {
	votes := make([]int, idx.N())
	return Query(idx, hashes, seed, opts, votes)
}

// formatBlock renders one query's votes as the newline-joined
// "{qid}\t{rid}\t{vote}\t{iter}" block described in spec.md section 6. An
// empty vote slice (e.g. an ambiguous-only query) renders as an empty
// block, which writeBlock is a no-op for.
func formatBlock(queryID string, ids []string, votes []Vote) []byte {
	if len(votes) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for _, v := range votes {
		fmt.Fprintf(&buf, "%s\t%s\t%d\t%d\n", queryID, ids[v.Ordinal], v.Count, v.Iter)
	}
	return buf.Bytes()
}
