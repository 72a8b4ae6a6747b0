// Package intervalindex implements the per-target stabbing-query index:
// one augmented interval tree per target sequence over (start, end,
// alignment handle) triples, built once and queried many times.
//
// The tree itself -- the Low/High/Overlaps/ID contract an
// augmentedtree.Interval must satisfy -- follows the liftover chain-file
// reader's Chain/Alignment types directly: a flat struct carrying its own
// bounds, with ID() providing the tree's required uniqueness key.
package intervalindex

import (
	"github.com/Workiva/go-datastructures/augmentedtree"
)

// handle is one (start, end) entry in a single target's tree, tagged with
// the index of the alignment record it came from. Multiple handles may
// share a record (a target can appear in several alignment blocks).
type handle struct {
	start, end int32
	id         uint64
	record     uint32
}

func (h *handle) LowAtDimension(dim uint64) int64  { return int64(h.start) }
func (h *handle) HighAtDimension(dim uint64) int64 { return int64(h.end) }
func (h *handle) OverlapsAtDimension(with augmentedtree.Interval, dim uint64) bool {
	return true
}
func (h *handle) ID() uint64 { return h.id }

// stab is the query interval handed to augmentedtree.Tree.Query.
type stab struct{ start, end int64 }

func (s *stab) LowAtDimension(dim uint64) int64  { return s.start }
func (s *stab) HighAtDimension(dim uint64) int64 { return s.end }
func (s *stab) OverlapsAtDimension(with augmentedtree.Interval, dim uint64) bool {
	return true
}
func (s *stab) ID() uint64 { return 0 }

// Index is a static, immutable stabbing-query structure over one target
// sequence's alignment intervals. The zero value is not usable; build one
// with a Builder.
type Index struct {
	tree augmentedtree.Tree
	n    int
}

// Hit is one (ts, te) interval overlapping a query, together with the
// index of the alignment record it came from.
type Hit struct {
	Start, End int32
	Record     uint32
}

// Query returns every interval in x overlapping the half-open range
// [start, end), in no particular order. Complexity is O(log N + K) for N
// intervals in the index and K results.
func (x *Index) Query(start, end int32) []Hit {
	if x == nil || x.tree == nil {
		return nil
	}
	found := x.tree.Query(&stab{start: int64(start), end: int64(end)})
	hits := make([]Hit, 0, len(found))
	for _, iv := range found {
		h := iv.(*handle)
		if h.end <= start || h.start >= end {
			continue // the tree compares bounds inclusively; drop intervals that only touch [start, end)
		}
		hits = append(hits, Hit{Start: h.start, End: h.end, Record: h.record})
	}
	return hits
}

// Len returns the number of intervals in the index.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return x.n
}

// Builder accumulates (start, end, record) triples for one target and
// produces an immutable Index. Not safe for concurrent use; callers build
// one Builder per target id, typically from a single goroutine walking
// that target's alignment records.
type Builder struct {
	tree augmentedtree.Tree
	n    uint64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{tree: augmentedtree.New(1)}
}

// Add inserts one (start, end) interval tagged with record, the index of
// the alignment record it was derived from.
func (b *Builder) Add(start, end int32, record uint32) {
	b.tree.Add(&handle{start: start, end: end, id: b.n, record: record})
	b.n++
}

// Build finalizes the Builder into an immutable Index. The Builder must
// not be used afterward.
func (b *Builder) Build() *Index {
	return &Index{tree: b.tree, n: int(b.n)}
}
