// Package cigar implements a packed encoding of pairwise-alignment edit
// operations, in the spirit of biogo/hts/sam's packed Cigar representation
// (op kind in the low bits, length in the high bits of a single machine
// word) but restricted to the operation set this system needs: sequence
// match/mismatch and gap operations, not the full SAM clipping/padding
// vocabulary.
package cigar

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Kind identifies the type of a single CIGAR operation.
type Kind byte

const (
	// Equal is a sequence match ('=').
	Equal Kind = iota
	// Mismatch is a sequence mismatch ('X').
	Mismatch
	// Match is an ambiguous match/mismatch ('M').
	Match
	// Insertion is a base present in the query but not the target ('I').
	Insertion
	// Deletion is a base present in the target but not the query ('D').
	Deletion
	numKinds
)

var kindBytes = [numKinds]byte{'=', 'X', 'M', 'I', 'D'}

// kindLookup maps an ASCII CIGAR operation letter to a Kind; unsupported
// letters (N, S, H, P, B and anything else) map to numKinds.
var kindLookup [256]Kind

func init() {
	for i := range kindLookup {
		kindLookup[i] = numKinds
	}
	for k, b := range kindBytes {
		kindLookup[b] = Kind(k)
	}
}

// Consume describes how many bases of the target and query a unit of a
// given Kind consumes.
type Consume struct {
	Target, Query int8
}

var consume = [numKinds]Consume{
	Equal:     {Target: 1, Query: 1},
	Mismatch:  {Target: 1, Query: 1},
	Match:     {Target: 1, Query: 1},
	Insertion: {Target: 0, Query: 1},
	Deletion:  {Target: 1, Query: 0},
}

// Consumes reports how k consumes the target and query axes.
func (k Kind) Consumes() Consume { return consume[k] }

// Byte returns the ASCII representation of k ('=', 'X', 'M', 'I' or 'D').
func (k Kind) Byte() byte {
	if k >= numKinds {
		return '?'
	}
	return kindBytes[k]
}

func (k Kind) String() string { return string(k.Byte()) }

// maxLen is the largest length representable in the 28 bits left after the
// 4-bit kind field.
const maxLen = 1<<28 - 1

// Op is a single packed CIGAR operation: Kind in the low 4 bits, length in
// the high 28 bits. This mirrors biogo/hts/sam.CigarOp's packing
// (CigarOp(t) | CigarOp(n)<<4) so a CIGAR op never needs a heap allocation
// of its own.
type Op uint32

// NewOp packs a Kind and length into an Op. It panics if length is not
// positive or does not fit in 28 bits; callers (the PAF tokenizer, the
// Projector) are expected to validate length themselves when the value
// comes from untrusted input.
func NewOp(k Kind, length int32) Op {
	if length <= 0 {
		panic(fmt.Sprintf("cigar: non-positive op length %d", length))
	}
	if length > maxLen {
		panic(fmt.Sprintf("cigar: op length %d exceeds %d", length, maxLen))
	}
	return Op(k) | Op(length)<<4
}

// Kind returns the operation kind.
func (o Op) Kind() Kind { return Kind(o & 0xf) }

// Len returns the operation length.
func (o Op) Len() int32 { return int32(o >> 4) }

func (o Op) String() string { return fmt.Sprintf("%d%s", o.Len(), o.Kind()) }

// Vec is an ordered sequence of CIGAR operations, always given in
// target-forward orientation regardless of alignment strand (the PAF/SAM
// convention this system inherits).
type Vec []Op

// Parse decodes a CIGAR string of "<len><op>" runs, e.g. "8=2I4=3D10=".
// Operation letters outside {=,X,M,I,D} are rejected rather than silently
// dropped, since this system has no use for clipping or padding records.
func Parse(s string) (Vec, error) {
	if s == "" {
		return nil, errors.New("cigar: empty CIGAR string")
	}
	var ops Vec
	n := 0
	haveDigit := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			haveDigit = true
			continue
		}
		if !haveDigit {
			return nil, errors.Errorf("cigar: missing length before operation %q at offset %d", c, i)
		}
		k := kindLookup[c]
		if k == numKinds {
			return nil, errors.Errorf("cigar: unsupported operation %q at offset %d", c, i)
		}
		if n == 0 {
			return nil, errors.Errorf("cigar: zero-length operation %q at offset %d", c, i)
		}
		if n > maxLen {
			return nil, errors.Errorf("cigar: operation length %d at offset %d exceeds %d", n, i, maxLen)
		}
		ops = append(ops, NewOp(k, int32(n)))
		n = 0
		haveDigit = false
	}
	if haveDigit {
		return nil, errors.New("cigar: trailing length with no operation")
	}
	if len(ops) == 0 {
		return nil, errors.New("cigar: no operations parsed")
	}
	return ops, nil
}

// String renders v back to "<len><op>" form.
func (v Vec) String() string {
	var b bytes.Buffer
	for _, op := range v {
		b.WriteString(strconv.Itoa(int(op.Len())))
		b.WriteByte(op.Kind().Byte())
	}
	return b.String()
}

// TargetLen returns the sum of target-consuming op lengths.
func (v Vec) TargetLen() int64 {
	var n int64
	for _, op := range v {
		if op.Kind().Consumes().Target != 0 {
			n += int64(op.Len())
		}
	}
	return n
}

// QueryLen returns the sum of query-consuming op lengths.
func (v Vec) QueryLen() int64 {
	var n int64
	for _, op := range v {
		if op.Kind().Consumes().Query != 0 {
			n += int64(op.Len())
		}
	}
	return n
}

// HasKind reports whether v contains any op of kind k.
func (v Vec) HasKind(k Kind) bool {
	for _, op := range v {
		if op.Kind() == k {
			return true
		}
	}
	return false
}

// Metrics summarizes a Vec's edit operations for identity computation.
type Metrics struct {
	Matches, Mismatches             int64
	InsertionEvents, DeletionEvents int64
	InsertedBP, DeletedBP           int64
}

// Identity folds v into Metrics. When strict is false, M is treated as a
// match -- and, for CIGAR-compatibility with the convention this system's
// reference tool uses, '=' and 'X' are ignored whenever the same Vec also
// contains an M (a CIGAR produced by an aligner that emits ambiguous
// matches doesn't mix in exact =/X calls in practice, so this has no
// effect on real input; it's preserved here only so output is
// byte-for-byte comparable to that tool for CIGARs that do mix them).
// When strict is true, M contributes to neither the numerator nor the
// denominator of either identity metric: callers who want an
// unambiguous estimate should pass strict.
func (v Vec) Identity(strict bool) Metrics {
	hasM := !strict && v.HasKind(Match)
	var m Metrics
	for _, op := range v {
		n := int64(op.Len())
		switch op.Kind() {
		case Match:
			if strict {
				continue
			}
			m.Matches += n
		case Equal:
			if hasM {
				continue
			}
			m.Matches += n
		case Mismatch:
			if hasM {
				continue
			}
			m.Mismatches += n
		case Insertion:
			m.InsertionEvents++
			m.InsertedBP += n
		case Deletion:
			m.DeletionEvents++
			m.DeletedBP += n
		}
	}
	return m
}

// BlockLen is the alignment block length used in PAF column 11: matches +
// mismatches + inserted/deleted bases.
func (m Metrics) BlockLen() int64 {
	return m.Matches + m.Mismatches + m.InsertedBP + m.DeletedBP
}

// GapCompressed is matches / (matches + mismatches + insertion events +
// deletion events), counting a run of indel bases as a single event.
func (m Metrics) GapCompressed() float64 {
	denom := m.Matches + m.Mismatches + m.InsertionEvents + m.DeletionEvents
	if denom == 0 {
		return 0
	}
	return float64(m.Matches) / float64(denom)
}

// Block is matches / (matches + mismatches + inserted_bp + deleted_bp).
func (m Metrics) Block() float64 {
	denom := m.BlockLen()
	if denom == 0 {
		return 0
	}
	return float64(m.Matches) / float64(denom)
}
