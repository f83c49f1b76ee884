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

type databaseFlags struct {
	fasta              *string
	outfile            *string
	kmerSize           *int
	downsamplingFactor *int
}

func newCmdDatabase(ctx context.Context) *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "database",
		Short: "Build a sintax database from a reference FASTA file",
	}
	flags := databaseFlags{
		fasta:              cmd.Flags.String("fasta", "", "Reference FASTA file to index"),
		outfile:            cmd.Flags.String("outfile", "database.srs", "Path to write the compressed database to"),
		kmerSize:           cmd.Flags.Int("kmer-size", sintax.DefaultDatabaseOpts.KmerLength, "K-mer length, 7..30"),
		downsamplingFactor: cmd.Flags.Int("downsampling-factor", int(sintax.DefaultDatabaseOpts.DownsamplingFactor), "Downsampling factor D, 1..99: keep canonical k-mers whose 2-bit value is at most (2^64-1)/D"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("database takes no positional arguments, got %v", argv)
		}
		return runDatabase(ctx, flags)
	})
	return cmd
}

func runDatabase(ctx context.Context, flags databaseFlags) error {
	if *flags.fasta == "" {
		return fmt.Errorf("sintax database: --fasta is required")
	}

	opts := sintax.DatabaseOpts{
		KmerLength:         *flags.kmerSize,
		DownsamplingFactor: uint64(*flags.downsamplingFactor),
	}
	if err := sintax.ValidateDatabaseOpts(opts); err != nil {
		return err
	}

	in, err := file.Open(ctx, *flags.fasta)
	if err != nil {
		return errors.Wrapf(err, "sintax database: opening %s", *flags.fasta)
	}
	defer in.Close(ctx) // nolint: errcheck

	out, err := file.Create(ctx, *flags.outfile)
	if err != nil {
		return errors.Wrapf(err, "sintax database: creating %s", *flags.outfile)
	}

	if err := sintax.BuildDatabase(ctx, in.Reader(ctx), out.Writer(ctx), opts); err != nil {
		_ = out.Close(ctx)
		return errors.Wrap(err, "sintax database")
	}
	if err := out.Close(ctx); err != nil {
		return errors.Wrapf(err, "sintax database: writing %s", *flags.outfile)
	}

	log.Printf("sintax database: wrote %s", *flags.outfile)
	return nil
}
