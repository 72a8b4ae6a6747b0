package impg

import (
	"encoding/binary"

	"blainsmith.com/go/seahash"

	"github.com/grailbio/impg/impgerr"
	"github.com/grailbio/impg/project"
	"github.com/grailbio/impg/span"
)

// visitedBucketBits sizes the coarse bucket a sequence range is hashed
// into for the shard pre-check below; 16 bits (64Ki bases/bucket) keeps
// the shard map small for genome-scale sequences while still letting most
// re-queries against already-fully-covered regions skip the span.Set
// binary search entirely.
const visitedBucketBits = 16

// visited tracks, per sequence id, the sub-ranges already expanded by the
// transitive walk. A seahash-keyed shard set sits in front of the
// per-sequence span.Set: before doing a real Covers() check (an O(log N)
// binary search), a query first hashes (seqID, bucket) and checks whether
// that bucket was ever touched at all, so sequences that the walk never
// reached -- overwhelmingly the common case on a large reference panel --
// cost one hash lookup instead of a scan that always finds nothing.
type visited struct {
	coverage map[uint32]*span.Set
	shards   map[uint64]struct{}
}

func newVisited() *visited {
	return &visited{coverage: make(map[uint32]*span.Set), shards: make(map[uint64]struct{})}
}

func shardKey(seqID uint32, bucket int64) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[0:4], seqID)
	binary.LittleEndian.PutUint64(buf[4:12], uint64(bucket))
	return seahash.Sum64(buf[:])
}

func (v *visited) markShards(seqID uint32, start, end int32) {
	for b := int64(start) >> visitedBucketBits; b <= int64(end)>>visitedBucketBits; b++ {
		v.shards[shardKey(seqID, b)] = struct{}{}
	}
}

// touchedAny reports whether any bucket overlapping [start,end) on seqID
// was ever marked. A false result means seqID has no coverage at all in
// this range, so the caller can skip the span.Set lookup.
func (v *visited) touchedAny(seqID uint32, start, end int32) bool {
	for b := int64(start) >> visitedBucketBits; b <= int64(end)>>visitedBucketBits; b++ {
		if _, ok := v.shards[shardKey(seqID, b)]; ok {
			return true
		}
	}
	return false
}

// covers reports whether [start,end) on seqID is already fully covered.
func (v *visited) covers(seqID uint32, start, end int32) bool {
	if !v.touchedAny(seqID, start, end) {
		return false
	}
	set := v.coverage[seqID]
	if set == nil {
		return false
	}
	return set.Covers(start, end)
}

// add records [start,end) as covered on seqID and returns the sub-ranges
// of [start,end) that were not already covered -- the portions that
// actually extend the frontier.
func (v *visited) add(seqID uint32, start, end int32) []span.Range {
	set := v.coverage[seqID]
	if set == nil {
		set = &span.Set{}
		v.coverage[seqID] = set
	}
	uncovered := set.Subtract(start, end)
	if len(uncovered) == 0 {
		return nil
	}
	set.Add(start, end, 0)
	v.markShards(seqID, start, end)
	return uncovered
}

type frontierItem struct {
	seqID      uint32
	start, end int32
}

// QueryTransitive performs the BFS/worklist closure of Query starting from
// (targetID, start, end): every AdjustedInterval reachable by iterative
// projection through the alignment graph, in order of first discovery,
// deduplicated by coverage rather than exact equality.
//
// Termination is guaranteed because every enqueued range strictly
// enlarges visited coverage on some sequence, and total coverage is
// bounded by the sum of sequence lengths.
func (g *Impg) QueryTransitive(targetID uint32, start, end int32) ([]project.AdjustedInterval, error) {
	const op = "Impg.QueryTransitive"
	if start >= end {
		return nil, impgerr.Ef(impgerr.RangeInverted, op, "query range [%d,%d) is not increasing", start, end)
	}

	v := newVisited()
	v.add(targetID, start, end)

	frontier := []frontierItem{{targetID, start, end}}
	var results []project.AdjustedInterval
	results = append(results, project.AdjustedInterval{
		Query:  project.Range{SeqID: targetID, First: start, Last: end},
		Target: project.Range{SeqID: targetID, First: start, Last: end},
	})

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		hits, err := g.Query(cur.seqID, cur.start, cur.end)
		if err != nil {
			return nil, err
		}
		for _, adj := range hits {
			lo, hi := adj.Query.Span()
			if lo >= hi {
				continue // zero-width (deletion-only) projections carry no query coverage to expand
			}
			qID := adj.Query.SeqID
			if v.covers(qID, lo, hi) {
				// Already-covered coverage includes every hit's own repeated
				// self-entry, since the seed range is marked visited up front.
				continue
			}
			results = append(results, adj)
			for _, u := range v.add(qID, lo, hi) {
				frontier = append(frontier, frontierItem{qID, u.Start, u.End})
			}
		}
	}
	return results, nil
}
