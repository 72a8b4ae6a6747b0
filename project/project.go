// Package project implements the CIGAR-aware interval projection that is
// the core algorithm of this system: given an alignment and a target
// sub-range, walk the CIGAR to produce the corresponding query sub-range
// and the trimmed sub-CIGAR, in either orientation.
package project

import (
	"github.com/grailbio/impg/align"
	"github.com/grailbio/impg/cigar"
	"github.com/grailbio/impg/impgerr"
)

// Range is a sequence-id-qualified coordinate pair. For a target range,
// First < Last always. For a query range, First < Last encodes the '+'
// strand and First > Last encodes '-' -- the swap itself is the strand
// signal, so a caller can carry one numeric pair through interval
// arithmetic and formatters alike without a separate strand field.
type Range struct {
	SeqID uint32
	First int32
	Last  int32
}

// Strand reports the orientation encoded by r's endpoint order. Only
// meaningful for query ranges; target ranges are always '+'.
func (r Range) Strand() align.Strand {
	if r.First <= r.Last {
		return align.Forward
	}
	return align.Reverse
}

// Span returns r's endpoints in increasing order, regardless of strand
// encoding.
func (r Range) Span() (lo, hi int32) {
	if r.First <= r.Last {
		return r.First, r.Last
	}
	return r.Last, r.First
}

// Len returns the number of bases r covers.
func (r Range) Len() int32 {
	lo, hi := r.Span()
	return hi - lo
}

// AdjustedInterval is the result of projecting a target sub-range through
// one alignment: the corresponding query range, the sub-CIGAR covering
// exactly the target range, and the (always forward-ordered) target range
// itself.
type AdjustedInterval struct {
	Query  Range
	Cigar  cigar.Vec
	Target Range
}

// Project walks rec's CIGAR in target-forward order and returns the
// sub-range/sub-CIGAR covering the intersection of rec's target span with
// [rs,re). It returns (nil, nil) if the intersection is empty.
//
// Target-consuming ops are clipped at the [rs,re) boundary and
// trimmed proportionally (trimming is exact, not approximate, since '=',
// 'X', 'M' and 'D' each consume the target and query in lockstep or not at
// all), while 'I' runs -- which have zero width on the target axis -- are
// emitted whole when they fall strictly inside the requested window and
// dropped at its boundary.
func Project(rec *align.Record, rs, re int32) (*AdjustedInterval, error) {
	const op = "Projector.Project"
	if rs >= re {
		return nil, impgerr.Ef(impgerr.RangeInverted, op, "request range [%d,%d) is not increasing", rs, re)
	}

	tOutFirst := rec.TStart
	if rs > tOutFirst {
		tOutFirst = rs
	}
	tOutLast := rec.TEnd
	if re < tOutLast {
		tOutLast = re
	}
	if tOutFirst >= tOutLast {
		return nil, nil
	}

	var (
		subCigar       cigar.Vec
		qFirst, qLast  int32
		haveFirst      bool
		qPin           int32
		havePin        bool
		tCur           = rec.TStart
		qCur           int32
		tConsumedTotal int64
		qConsumedTotal int64
	)
	if rec.Strand == align.Forward {
		qCur = rec.QStart
	} else {
		qCur = rec.QEnd
	}

	for _, co := range rec.Cigar {
		k := co.Kind()
		n := int64(co.Len())
		cons := k.Consumes()

		var tAdv int32
		if cons.Target != 0 {
			tAdv = co.Len()
		}
		tConsumedTotal += int64(tAdv)
		if cons.Query != 0 {
			qConsumedTotal += n
		}

		if cons.Target == 0 {
			// Zero-width on the target axis (an insertion run): include it
			// whole when it falls strictly inside the requested window,
			// otherwise it's a leading/trailing run the caller never asked
			// about.
			if tCur > tOutFirst && tCur < tOutLast {
				subCigar = append(subCigar, co)
			}
			if cons.Query != 0 {
				if rec.Strand == align.Forward {
					qCur += co.Len()
				} else {
					qCur -= co.Len()
				}
			}
			continue
		}

		tBegin, tEnd := tCur, tCur+tAdv
		ov0, ov1 := tBegin, tEnd
		if tOutFirst > ov0 {
			ov0 = tOutFirst
		}
		if tOutLast < ov1 {
			ov1 = tOutLast
		}
		if ov0 < ov1 {
			if !havePin {
				// Snapshot the query cursor at the point the walk first enters
				// the window, before this op's own advance. For a 'D' op this
				// is exact (D never moves qCur); it's only ever used as the
				// fallback pin below, when no '=', 'X' or 'M' op inside the
				// window ever supplies a real qFirst/qLast.
				qPin = qCur
				havePin = true
			}
			preTrim := ov0 - tBegin
			trimmed := ov1 - ov0
			if cons.Query == 0 {
				// 'D': consumes target only, doesn't move the query cursor.
				subCigar = append(subCigar, cigar.NewOp(k, trimmed))
			} else {
				// '=', 'X', 'M': lockstep target/query consumption, so the
				// trim applies identically to both axes.
				var qAtOv0, qAtOv1 int32
				if rec.Strand == align.Forward {
					qAtOv0 = qCur + preTrim
					qAtOv1 = qAtOv0 + trimmed
				} else {
					qAtOv0 = qCur - preTrim
					qAtOv1 = qAtOv0 - trimmed
				}
				if !haveFirst {
					qFirst = qAtOv0
					haveFirst = true
				}
				qLast = qAtOv1
				subCigar = append(subCigar, cigar.NewOp(k, trimmed))
			}
		}

		tCur = tEnd
		if cons.Query != 0 {
			if rec.Strand == align.Forward {
				qCur += co.Len()
			} else {
				qCur -= co.Len()
			}
		}
	}

	if tConsumedTotal != int64(rec.TEnd-rec.TStart) || qConsumedTotal != int64(rec.QEnd-rec.QStart) {
		return nil, impgerr.Ef(impgerr.CigarInconsistent, op,
			"CIGAR consumed (t=%d,q=%d), want (t=%d,q=%d)",
			tConsumedTotal, qConsumedTotal, rec.TEnd-rec.TStart, rec.QEnd-rec.QStart)
	}

	if !haveFirst {
		// The requested window fell entirely within a deletion gap: there
		// is no query base to anchor on, so pin a zero-width query range at
		// the query coordinate the walk had reached when it entered the
		// window, not wherever the cursor ended up after the full walk.
		qFirst, qLast = qPin, qPin
	}

	return &AdjustedInterval{
		Query:  Range{SeqID: rec.QueryID, First: qFirst, Last: qLast},
		Cigar:  subCigar,
		Target: Range{SeqID: rec.TargetID, First: tOutFirst, Last: tOutLast},
	}, nil
}
