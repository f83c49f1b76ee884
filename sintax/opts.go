// Package sintax glues the kmer, index, dbio, and classify packages into
// the two top-level operations the CLI exposes: building a database from a
// reference FASTA, and classifying a query FASTA against one. It plays the
// same role fusion.GeneDB plays for the teacher's bio-fusion command:
// one small façade over several lower-level packages.
package sintax

// DatabaseOpts configures BuildDatabase. Defaults match spec.md section 6's
// "database" subcommand.
type DatabaseOpts struct {
	KmerLength         int
	DownsamplingFactor uint64
	Threads            int
}

// DefaultDatabaseOpts mirrors the CLI defaults documented in spec.md
// section 6.
var DefaultDatabaseOpts = DatabaseOpts{
	KmerLength:         15,
	DownsamplingFactor: 1,
	Threads:            0,
}

// ClassifyOpts configures Classify. Defaults match spec.md section 6's
// "classify" subcommand.
type ClassifyOpts struct {
	KmerLength         int
	DownsamplingFactor uint64
	Bootstraps         int
	QueryHashes        int
	Threads            int
}

// DefaultClassifyOpts mirrors the CLI defaults documented in spec.md
// section 6.
var DefaultClassifyOpts = ClassifyOpts{
	KmerLength:         15,
	DownsamplingFactor: 1,
	Bootstraps:         100,
	QueryHashes:        32,
	Threads:            0,
}
