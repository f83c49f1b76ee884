package sintax

import (
	"context"
	"io"

	"github.com/grailbio/base/log"

	"github.com/dnasintax/sintax/classify"
	"github.com/dnasintax/sintax/dbio"
	"github.com/dnasintax/sintax/index"
	"github.com/dnasintax/sintax/kmer"
	"github.com/dnasintax/sintax/seqio"
)

// BuildDatabase reads reference records from fastaR, builds the inverted
// index, and writes the compressed database to dbW. It is the full "build"
// data flow from spec.md section 2: FASTA stream -> kmer coder -> index
// builder -> database codec -> file.
func BuildDatabase(ctx context.Context, fastaR io.Reader, dbW io.Writer, opts DatabaseOpts) error {
	scanner := seqio.NewScanner(fastaR)
	idx, err := index.Build(ctx, scanner, index.BuildOpts{
		KmerLength: opts.KmerLength,
		Downsample: opts.DownsamplingFactor,
		Threads:    opts.Threads,
	})
	if err != nil {
		return err
	}
	log.Printf("sintax: built database with %d references, %d distinct k-mer hashes", idx.N(), len(idx.Hashes))
	return dbio.Write(dbW, idx, opts.KmerLength, int(opts.DownsamplingFactor))
}

// OpenDatabase reads and decodes a database previously written by
// BuildDatabase, rejecting it if it was not built with the given
// (kmerLength, downsamplingFactor) -- see dbio.Read and spec.md section 9's
// Open Question (c).
func OpenDatabase(dbR io.Reader, kmerLength int, downsamplingFactor uint64) (*index.Index, error) {
	return dbio.Read(dbR, kmerLength, int(downsamplingFactor))
}

// Classify reads query records from fastaR, bootstrap-classifies each
// against idx in parallel, and writes the tab-separated result blocks to
// outW. This is the full "classify" data flow from spec.md section 2: file
// -> database codec -> (index, ids); FASTA stream -> kmer coder ->
// bootstrap classifier -> result sink.
func Classify(ctx context.Context, fastaR io.Reader, idx *index.Index, outW io.Writer, opts ClassifyOpts) error {
	scanner := seqio.NewScanner(fastaR)
	coder := kmer.NewCoder(opts.KmerLength, opts.DownsamplingFactor)
	runOpts := classify.RunOpts{
		Classify: classify.Opts{Bootstraps: opts.Bootstraps, QueryHashes: opts.QueryHashes},
		Coder:    coder,
		Threads:  opts.Threads,
	}
	return classify.Run(ctx, scanner, idx, runOpts, outW)
}
