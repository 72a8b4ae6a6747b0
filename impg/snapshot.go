package impg

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"sort"

	"github.com/golang/snappy"

	"github.com/grailbio/impg/align"
	"github.com/grailbio/impg/cigar"
	"github.com/grailbio/impg/impgerr"
	"github.com/grailbio/impg/seqindex"
)

// snapshotMagic identifies the binary format; bumping snapshotVersion is a
// breaking change callers detect via SnapshotCorrupt.
var snapshotMagic = [4]byte{'I', 'M', 'P', 'G'}

const snapshotVersion = 1

// buf is a growable byte-slice writer with fixed-width and varint helpers,
// in the style of encoding/pam/fieldio's byteBuffer.
type buf struct{ b []byte }

func (w *buf) PutByte(v byte)     { w.b = append(w.b, v) }
func (w *buf) PutUint32(v uint32) { w.b = append(w.b, 0, 0, 0, 0); binary.LittleEndian.PutUint32(w.b[len(w.b)-4:], v) }
func (w *buf) PutInt32(v int32)   { w.PutUint32(uint32(v)) }
func (w *buf) PutUint64(v uint64) { w.b = append(w.b, 0, 0, 0, 0, 0, 0, 0, 0); binary.LittleEndian.PutUint64(w.b[len(w.b)-8:], v) }
func (w *buf) PutUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.b = append(w.b, tmp[:n]...)
}
func (w *buf) PutBytes(v []byte) { w.b = append(w.b, v...) }

// ToSnapshot writes g in a self-describing binary format: a
// SequenceIndex block, then per-target groups sorted by target id for
// determinism. Within a group the per-record packed CIGAR ops are
// concatenated and snappy-compressed as one block (the dominant-memory
// data for a build of any real size); record headers and counts stay uncompressed
// so the format remains parseable without decompressing first.
func (g *Impg) ToSnapshot(w io.Writer) error {
	const op = "Impg.ToSnapshot"
	bw := bufio.NewWriter(w)

	var hdr buf
	hdr.PutBytes(snapshotMagic[:])
	hdr.PutByte(snapshotVersion)
	if _, err := bw.Write(hdr.b); err != nil {
		return impgerr.E(impgerr.IoError, op, err)
	}

	var seqHdr buf
	n := g.seqs.Len()
	seqHdr.PutUvarint(uint64(n))
	for id := uint32(0); id < uint32(n); id++ {
		name := g.seqs.GetName(id)
		length, _ := g.seqs.GetLength(id)
		seqHdr.PutUint64(uint64(length))
		seqHdr.PutUvarint(uint64(len(name)))
		seqHdr.PutBytes([]byte(name))
	}
	if _, err := bw.Write(seqHdr.b); err != nil {
		return impgerr.E(impgerr.IoError, op, err)
	}

	byTarget := make(map[uint32][]uint32)
	for i, r := range g.records {
		byTarget[r.TargetID] = append(byTarget[r.TargetID], uint32(i))
	}
	targets := make([]uint32, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	var groupHdr buf
	groupHdr.PutUvarint(uint64(len(targets)))
	if _, err := bw.Write(groupHdr.b); err != nil {
		return impgerr.E(impgerr.IoError, op, err)
	}

	for _, t := range targets {
		indices := byTarget[t]
		var h buf
		h.PutUint32(t)
		h.PutUvarint(uint64(len(indices)))

		var ops buf
		for _, idx := range indices {
			r := &g.records[idx]
			h.PutInt32(r.TStart)
			h.PutInt32(r.TEnd)
			h.PutUint32(r.QueryID)
			h.PutInt32(r.QStart)
			h.PutInt32(r.QEnd)
			h.PutByte(byte(r.Strand))
			h.PutUvarint(uint64(len(r.Cigar)))
			for _, o := range r.Cigar {
				ops.PutUint32(uint32(o))
			}
		}
		if _, err := bw.Write(h.b); err != nil {
			return impgerr.E(impgerr.IoError, op, err)
		}

		compressed := snappy.Encode(nil, ops.b)
		var lenBuf buf
		lenBuf.PutUvarint(uint64(len(compressed)))
		if _, err := bw.Write(lenBuf.b); err != nil {
			return impgerr.E(impgerr.IoError, op, err)
		}
		if _, err := bw.Write(compressed); err != nil {
			return impgerr.E(impgerr.IoError, op, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return impgerr.E(impgerr.IoError, op, err)
	}
	return nil
}

// reader is the read-side counterpart of buf, operating on an in-memory
// byte slice read up front via io.ReadAll (snapshots are bounded by
// available memory already, per the in-process Impg they decode into).
type reader struct {
	b []byte
	n int
}

func (r *reader) byte() (byte, error) {
	if r.n >= len(r.b) {
		return 0, io.ErrUnexpectedEOF
	}
	v := r.b[r.n]
	r.n++
	return v, nil
}

func (r *reader) uint32() (uint32, error) {
	if r.n+4 > len(r.b) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.b[r.n:])
	r.n += 4
	return v, nil
}

func (r *reader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

func (r *reader) uint64() (uint64, error) {
	if r.n+8 > len(r.b) {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint64(r.b[r.n:])
	r.n += 8
	return v, nil
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.b[r.n:])
	if n <= 0 {
		return 0, io.ErrUnexpectedEOF
	}
	r.n += n
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.n+n > len(r.b) {
		return nil, io.ErrUnexpectedEOF
	}
	v := r.b[r.n : r.n+n]
	r.n += n
	return v, nil
}

// FromSnapshot decodes a snapshot written by ToSnapshot, reconstructing
// the SequenceIndex and alignment records and then running them back
// through Build so the per-target interval trees are identical to a
// freshly-built Impg (the round trip only needs to be indistinguishable
// under all query operations, not byte-identical in memory layout). sourcePath overrides the provenance
// recorded in the Impg, since the snapshot is typically paired with a
// different on-disk path than whatever produced it originally.
func FromSnapshot(r io.Reader, sourcePath string) (*Impg, error) {
	const op = "Impg.FromSnapshot"
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, impgerr.E(impgerr.IoError, op, err)
	}
	rd := &reader{b: data}

	magic, err := rd.bytes(4)
	if err != nil || string(magic) != string(snapshotMagic[:]) {
		return nil, impgerr.Ef(impgerr.SnapshotCorrupt, op, "bad magic")
	}
	version, err := rd.byte()
	if err != nil || version != snapshotVersion {
		return nil, impgerr.Ef(impgerr.SnapshotCorrupt, op, "unsupported snapshot version %d", version)
	}

	seqCount, err := rd.uvarint()
	if err != nil || seqCount > math.MaxInt32 {
		return nil, impgerr.Ef(impgerr.SnapshotCorrupt, op, "bad sequence count")
	}
	seqs := seqindex.New()
	for i := uint64(0); i < seqCount; i++ {
		length, err := rd.uint64()
		if err != nil {
			return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
		}
		nameLen, err := rd.uvarint()
		if err != nil {
			return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
		}
		nameBytes, err := rd.bytes(int(nameLen))
		if err != nil {
			return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
		}
		if _, err := seqs.Intern(string(nameBytes), int32(length)); err != nil {
			return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
		}
	}

	groupCount, err := rd.uvarint()
	if err != nil {
		return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
	}

	var records []align.Record
	for i := uint64(0); i < groupCount; i++ {
		targetID, err := rd.uint32()
		if err != nil {
			return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
		}
		recCount, err := rd.uvarint()
		if err != nil {
			return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
		}

		type pending struct {
			rec     align.Record
			opCount uint64
		}
		group := make([]pending, recCount)
		for j := range group {
			tStart, err := rd.int32()
			if err != nil {
				return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
			}
			tEnd, err := rd.int32()
			if err != nil {
				return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
			}
			queryID, err := rd.uint32()
			if err != nil {
				return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
			}
			qStart, err := rd.int32()
			if err != nil {
				return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
			}
			qEnd, err := rd.int32()
			if err != nil {
				return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
			}
			strand, err := rd.byte()
			if err != nil {
				return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
			}
			opCount, err := rd.uvarint()
			if err != nil {
				return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
			}
			group[j] = pending{
				rec: align.Record{
					TargetID: targetID, TStart: tStart, TEnd: tEnd,
					QueryID: queryID, QStart: qStart, QEnd: qEnd,
					Strand: align.Strand(strand),
				},
				opCount: opCount,
			}
		}

		compressedLen, err := rd.uvarint()
		if err != nil {
			return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
		}
		compressed, err := rd.bytes(int(compressedLen))
		if err != nil {
			return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
		}
		opBytes, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
		}
		opReader := &reader{b: opBytes}
		for _, p := range group {
			ops := make(cigar.Vec, p.opCount)
			for k := range ops {
				v, err := opReader.uint32()
				if err != nil {
					return nil, impgerr.E(impgerr.SnapshotCorrupt, op, err)
				}
				ops[k] = cigar.Op(v)
			}
			p.rec.Cigar = ops
			records = append(records, p.rec)
		}
	}

	return Build(seqs, records, sourcePath)
}
