package sintax

import "fmt"

// Validation bounds pinned by spec.md section 6. kmer-size's upper bound is
// documented as 30 even though 2-bit packing fits a uint64 up to k=32;
// spec.md section 9's Open Question (a) asks implementers to pick one and
// test the boundary, so this package enforces the documented (not the
// packing-limited) bound -- see DESIGN.md.
const (
	MinKmerSize = 7
	MaxKmerSize = 30

	MinDownsamplingFactor = 1
	MaxDownsamplingFactor = 99

	MinBootstraps = 10
	MaxBootstraps = 199

	MinQueryHashes = 10
	MaxQueryHashes = 99
)

// ValidateDatabaseOpts rejects parameters outside the documented ranges
// before any work begins, per spec.md section 7 error taxonomy category 5.
func ValidateDatabaseOpts(opts DatabaseOpts) error {
	if opts.KmerLength < MinKmerSize || opts.KmerLength > MaxKmerSize {
		return fmt.Errorf("sintax: --kmer-size must be in [%d, %d], got %d", MinKmerSize, MaxKmerSize, opts.KmerLength)
	}
	if opts.DownsamplingFactor < MinDownsamplingFactor || opts.DownsamplingFactor > MaxDownsamplingFactor {
		return fmt.Errorf("sintax: --downsampling-factor must be in [%d, %d], got %d", MinDownsamplingFactor, MaxDownsamplingFactor, opts.DownsamplingFactor)
	}
	return nil
}

// ValidateClassifyOpts rejects parameters outside the documented ranges
// before any work begins, per spec.md section 7 error taxonomy category 5.
func ValidateClassifyOpts(opts ClassifyOpts) error {
	if opts.KmerLength < MinKmerSize || opts.KmerLength > MaxKmerSize {
		return fmt.Errorf("sintax: --kmer-size must be in [%d, %d], got %d", MinKmerSize, MaxKmerSize, opts.KmerLength)
	}
	if opts.DownsamplingFactor < MinDownsamplingFactor || opts.DownsamplingFactor > MaxDownsamplingFactor {
		return fmt.Errorf("sintax: --downsampling-factor must be in [%d, %d], got %d", MinDownsamplingFactor, MaxDownsamplingFactor, opts.DownsamplingFactor)
	}
	if opts.Bootstraps < MinBootstraps || opts.Bootstraps > MaxBootstraps {
		return fmt.Errorf("sintax: --bootstraps must be in [%d, %d], got %d", MinBootstraps, MaxBootstraps, opts.Bootstraps)
	}
	if opts.QueryHashes < MinQueryHashes || opts.QueryHashes > MaxQueryHashes {
		return fmt.Errorf("sintax: --query-hashes must be in [%d, %d], got %d", MinQueryHashes, MaxQueryHashes, opts.QueryHashes)
	}
	return nil
}
