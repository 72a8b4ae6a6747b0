// Package cmd implements the impg command-line tool's subcommand tree,
// following cmd/bio-pamtool/cmd's newCmd*/cmdline.Main pattern.
package cmd

import (
	"github.com/grailbio/base/log"

	"v.io/x/lib/cmdline"
)

// Run builds and dispatches the impg subcommand tree.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "impg",
			Short:    "Index and query PAF alignment overlaps",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdPartition(),
				newCmdQuery(),
				newCmdStats(),
			},
		})
}
