package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/dnasintax/sintax/sintax"
)

type classifyFlags struct {
	fasta              *string
	database           *string
	outfile            *string
	bootstraps         *int
	queryHashes        *int
	kmerSize           *int
	downsamplingFactor *int
	threads            *int
}

func newCmdClassify(ctx context.Context) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "classify",
		Short: "Classify a query FASTA file against a sintax database",
	}
	flags := classifyFlags{
		fasta:              cmd.Flags.String("fasta", "", "Query FASTA file to classify"),
		database:           cmd.Flags.String("database", "", "Database file produced by the database subcommand"),
		outfile:            cmd.Flags.String("outfile", "", "Path to write tab-separated classification results to"),
		bootstraps:         cmd.Flags.Int("bootstraps", sintax.DefaultClassifyOpts.Bootstraps, "Bootstrap iterations per query, 10..199"),
		queryHashes:        cmd.Flags.Int("query-hashes", sintax.DefaultClassifyOpts.QueryHashes, "Hashes sampled with replacement per iteration, 10..99"),
		kmerSize:           cmd.Flags.Int("kmer-size", sintax.DefaultClassifyOpts.KmerLength, "K-mer length, 7..30 (must match the database)"),
		downsamplingFactor: cmd.Flags.Int("downsampling-factor", int(sintax.DefaultClassifyOpts.DownsamplingFactor), "Downsampling factor D, 1..99: keep canonical k-mers whose 2-bit value is at most (2^64-1)/D (must match the database)"),
		threads:            cmd.Flags.Int("threads", sintax.DefaultClassifyOpts.Threads, "Worker pool width; 0 uses the default parallelism"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("classify takes no positional arguments, got %v", argv)
		}
		return runClassify(ctx, flags)
	})
	return cmd
}

func runClassify(ctx context.Context, flags classifyFlags) error {
	if *flags.fasta == "" {
		return fmt.Errorf("sintax classify: --fasta is required")
	}
	if *flags.database == "" {
		return fmt.Errorf("sintax classify: --database is required")
	}
	if *flags.outfile == "" {
		return fmt.Errorf("sintax classify: --outfile is required")
	}

	opts := sintax.ClassifyOpts{
		KmerLength:         *flags.kmerSize,
		DownsamplingFactor: uint64(*flags.downsamplingFactor),
		Bootstraps:         *flags.bootstraps,
		QueryHashes:        *flags.queryHashes,
		Threads:            *flags.threads,
	}
	if err := sintax.ValidateClassifyOpts(opts); err != nil {
		return err
	}

	dbIn, err := file.Open(ctx, *flags.database)
	if err != nil {
		return errors.Wrapf(err, "sintax classify: opening %s", *flags.database)
	}
	defer dbIn.Close(ctx) // nolint: errcheck

	idx, err := sintax.OpenDatabase(dbIn.Reader(ctx), opts.KmerLength, opts.DownsamplingFactor)
	if err != nil {
		return errors.Wrapf(err, "sintax classify: loading %s", *flags.database)
	}
	log.Printf("sintax classify: loaded database with %d references", idx.N())

	fastaIn, err := file.Open(ctx, *flags.fasta)
	if err != nil {
		return errors.Wrapf(err, "sintax classify: opening %s", *flags.fasta)
	}
	defer fastaIn.Close(ctx) // nolint: errcheck

	out, err := file.Create(ctx, *flags.outfile)
	if err != nil {
		return errors.Wrapf(err, "sintax classify: creating %s", *flags.outfile)
	}

	if err := sintax.Classify(ctx, fastaIn.Reader(ctx), idx, out.Writer(ctx), opts); err != nil {
		_ = out.Close(ctx)
		return errors.Wrap(err, "sintax classify")
	}
	if err := out.Close(ctx); err != nil {
		return errors.Wrapf(err, "sintax classify: writing %s", *flags.outfile)
	}

	log.Printf("sintax classify: wrote %s", *flags.outfile)
	return nil
}
