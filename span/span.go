// Package span implements a disjoint, sorted half-open interval union over
// int32 coordinates. It generalizes the flat paired-slice representation
// interval.BEDUnion uses for BED-file coverage sets (start of interval k in
// position 2k, end in 2k+1, whole thing kept sorted and merged) into a
// mutable set that supports incremental union and subtraction, which the
// transitive-closure and partitioning algorithms both need on a single
// sequence's coverage.
package span

import "sort"

// Range is a half-open [Start, End) interval.
type Range struct {
	Start, End int32
}

// Len returns the range's width.
func (r Range) Len() int32 { return r.End - r.Start }

// Set is a sorted, disjoint union of half-open ranges. The zero value is an
// empty set.
type Set struct {
	iv []int32 // iv[2k], iv[2k+1] = start, end of interval k; sorted, disjoint
}

// Len returns the number of intervals currently in the set.
func (s *Set) Len() int { return len(s.iv) / 2 }

// At returns the k'th interval, in increasing order.
func (s *Set) At(k int) Range { return Range{s.iv[2*k], s.iv[2*k+1]} }

// Contains reports whether pos falls within some interval of s.
func (s *Set) Contains(pos int32) bool {
	idx := sort.Search(len(s.iv), func(i int) bool { return s.iv[i] > pos })
	return idx&1 == 1
}

// Covers reports whether [start,end) is entirely contained within a single
// interval of s.
func (s *Set) Covers(start, end int32) bool {
	if start >= end {
		return true
	}
	idx := sort.Search(len(s.iv), func(i int) bool { return s.iv[i] > start })
	if idx&1 == 0 {
		return false
	}
	return end <= s.iv[idx]
}

// Add unions [start,end) into s, merging it with any existing interval that
// overlaps or lies within gap bases of it. gap=0 merges only true overlaps
// and touching intervals; the partitioner's masked-region union uses gap=1
// (spec: "adjacent = gap <= 1").
func (s *Set) Add(start, end int32, gap int32) {
	if start >= end {
		return
	}
	type pair struct{ a, b int32 }
	n := len(s.iv) / 2
	pairs := make([]pair, 0, n+1)
	for i := 0; i < len(s.iv); i += 2 {
		pairs = append(pairs, pair{s.iv[i], s.iv[i+1]})
	}
	pairs = append(pairs, pair{start, end})
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].a < pairs[j].a })

	out := pairs[:0]
	for _, p := range pairs {
		if len(out) > 0 && p.a <= out[len(out)-1].b+gap {
			if p.b > out[len(out)-1].b {
				out[len(out)-1].b = p.b
			}
			continue
		}
		out = append(out, p)
	}

	merged := make([]int32, 0, len(out)*2)
	for _, p := range out {
		merged = append(merged, p.a, p.b)
	}
	s.iv = merged
}

// Subtract returns the portions of [start,end) not covered by s, in
// increasing order. Returns nil if [start,end) is fully covered.
func (s *Set) Subtract(start, end int32) []Range {
	if start >= end {
		return nil
	}
	var out []Range
	cur := start
	for i := 0; i < len(s.iv) && cur < end; i += 2 {
		ivStart, ivEnd := s.iv[i], s.iv[i+1]
		if ivEnd <= cur {
			continue
		}
		if ivStart >= end {
			break
		}
		if ivStart > cur {
			out = append(out, Range{cur, min(ivStart, end)})
		}
		if ivEnd > cur {
			cur = ivEnd
		}
	}
	if cur < end {
		out = append(out, Range{cur, end})
	}
	return out
}

// Complement returns s's gaps within [0, length), i.e. the portions of the
// full sequence span not yet covered.
func (s *Set) Complement(length int32) []Range {
	return s.Subtract(0, length)
}

// TotalLen returns the sum of all interval lengths in s.
func (s *Set) TotalLen() int64 {
	var total int64
	for i := 0; i < len(s.iv); i += 2 {
		total += int64(s.iv[i+1] - s.iv[i])
	}
	return total
}
