// Package seqindex implements bidirectional interning of sequence names to
// dense, first-seen-order ids. Lookup is backed by a farmhash-bucketed
// table rather than Go's built-in map, following the hashing approach
// grailbio/bio's own go.mod already pulls in (github.com/dgryski/go-farm):
// the hash of an incoming name is computed once per call and used to
// probe its bucket directly.
package seqindex

import (
	"sync"

	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/impg/impgerr"
)

type entry struct {
	name string
	id   uint32
}

// Index is a bidirectional name<->id map with stored lengths. The zero
// value is not usable; construct with New.
type Index struct {
	mu      sync.Mutex
	buckets map[uint64][]entry
	names   []string
	lengths []int32
}

// New returns an empty Index.
func New() *Index {
	return &Index{buckets: make(map[uint64][]entry)}
}

// Intern returns the id for name, allocating one in first-seen order if
// name hasn't been observed before. A second call for the same name with a
// different length is a fatal LengthMismatch error.
func (x *Index) Intern(name string, length int32) (uint32, error) {
	const op = "SequenceIndex.Intern"
	x.mu.Lock()
	defer x.mu.Unlock()

	h := farm.Hash64([]byte(name))
	for _, e := range x.buckets[h] {
		if e.name == name {
			if x.lengths[e.id] != length {
				return 0, impgerr.Ef(impgerr.LengthMismatch, op,
					"sequence %q: length %d conflicts with previously recorded length %d",
					name, length, x.lengths[e.id])
			}
			return e.id, nil
		}
	}
	id := uint32(len(x.names))
	x.names = append(x.names, name)
	x.lengths = append(x.lengths, length)
	x.buckets[h] = append(x.buckets[h], entry{name: name, id: id})
	return id, nil
}

// GetID returns the id for name, or (0, false) if name was never interned.
func (x *Index) GetID(name string) (uint32, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	h := farm.Hash64([]byte(name))
	for _, e := range x.buckets[h] {
		if e.name == name {
			return e.id, true
		}
	}
	return 0, false
}

// GetName returns the name for id. It panics if id was never allocated by
// this Index, since ids are only ever produced by Intern -- an invalid id
// here indicates a programming error, not bad input.
func (x *Index) GetName(id uint32) string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.names[id]
}

// GetLength returns the recorded length for id.
func (x *Index) GetLength(id uint32) (int32, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if int(id) >= len(x.lengths) {
		return 0, false
	}
	return x.lengths[id], true
}

// Len returns the number of interned sequences.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.names)
}

// Each calls fn once per interned sequence, in id order (0, 1, 2, ...).
// Used by the partitioner to seed windows and to scan every sequence for
// missing regions.
func (x *Index) Each(fn func(id uint32, name string, length int32)) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, name := range x.names {
		fn(uint32(id), name, x.lengths[id])
	}
}
