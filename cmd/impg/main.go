// Command impg indexes PAF alignment files and answers CIGAR-aware range
// queries against them, either directly or transitively across chained
// alignments, and partitions a reference into non-overlapping windows
// covered by those alignments.
package main

import (
	"github.com/grailbio/base/grail"

	"github.com/grailbio/impg/cmd/impg/cmd"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmd.Run()
}
