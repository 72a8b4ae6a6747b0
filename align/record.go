// Package align defines the normalized, immutable alignment record that
// the rest of this system is built on, and the validation that guarantees
// its CIGAR agrees with its declared spans.
package align

import (
	"github.com/grailbio/impg/cigar"
	"github.com/grailbio/impg/impgerr"
)

// Strand is the relative orientation of query to target.
type Strand byte

const (
	Forward Strand = '+'
	Reverse Strand = '-'
)

func (s Strand) String() string { return string(s) }

// Record is a normalized, immutable pairwise alignment: a target range, a
// query range and the CIGAR relating them, always given in target-forward
// orientation regardless of strand.
type Record struct {
	TargetID     uint32
	TStart, TEnd int32 // half-open, TStart < TEnd
	QueryID      uint32
	QStart, QEnd int32 // half-open, QStart < QEnd
	Strand       Strand
	Cigar        cigar.Vec
}

// Validate checks the invariants from the data model: TStart<TEnd,
// QStart<QEnd, and the CIGAR's target/query-consumed lengths equal the
// declared spans. It's run once per record at build time; Projector
// re-derives the same bookkeeping per query and will itself report
// CigarInconsistent if a record somehow escaped this check.
func (r *Record) Validate() error {
	const op = "AlignmentRecord.Validate"
	if r.TStart >= r.TEnd {
		return impgerr.Ef(impgerr.InputFormat, op, "target range [%d,%d) is not increasing", r.TStart, r.TEnd)
	}
	if r.QStart >= r.QEnd {
		return impgerr.Ef(impgerr.InputFormat, op, "query range [%d,%d) is not increasing", r.QStart, r.QEnd)
	}
	if r.Strand != Forward && r.Strand != Reverse {
		return impgerr.Ef(impgerr.InputFormat, op, "strand %q is neither + nor -", r.Strand)
	}
	if len(r.Cigar) == 0 {
		return impgerr.E(impgerr.MissingCigar, op, nil)
	}
	tLen := r.Cigar.TargetLen()
	qLen := r.Cigar.QueryLen()
	if tLen != int64(r.TEnd-r.TStart) {
		return impgerr.Ef(impgerr.CigarInconsistent, op,
			"CIGAR consumes %d target bases, want %d", tLen, r.TEnd-r.TStart)
	}
	if qLen != int64(r.QEnd-r.QStart) {
		return impgerr.Ef(impgerr.CigarInconsistent, op,
			"CIGAR consumes %d query bases, want %d", qLen, r.QEnd-r.QStart)
	}
	return nil
}
