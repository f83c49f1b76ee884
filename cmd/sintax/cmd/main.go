package cmd

import (
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

// Run is the sintax command-line entry point: it bootstraps the process
// (grail.Init, a background vcontext.Context, and an s3:// file
// implementation so --fasta/--database/--outfile can point at S3 paths),
// then dispatches to the database or classify subcommand, the same
// Init-then-cmdline.Main shape cmd/bio-fusion/main.go and
// cmd/bio-pamtool/cmd/main.go use respectively.
func Run() {
	cleanup := grail.Init()
	defer cleanup()

	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})

	ctx := vcontext.Background()

	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:  "sintax",
		Short: "SINTAX-style taxonomic classification of short nucleotide sequences",
		Children: []*cmdline.Command{
			newCmdDatabase(ctx),
			newCmdClassify(ctx),
		},
	})
}
