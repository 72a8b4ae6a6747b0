// Package paf parses the Pairwise mApping Format records this system
// consumes: tab-separated alignment summaries with an
// optional cg:Z: CIGAR tag, optionally bgzf- or gzip-compressed.
package paf

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/impg/align"
	"github.com/grailbio/impg/cigar"
	"github.com/grailbio/impg/impgerr"
	"github.com/grailbio/impg/seqindex"
)

// bgzfMagic is the four-byte prefix that distinguishes
// a block-gzip PAF from a plain-gzip or uncompressed one.
var bgzfMagic = [4]byte{0x1F, 0x8B, 0x08, 0x04}

// getFields splits curLine on runs of tab/space into out, following
// interval.getTokens: each call reuses the caller's slice instead of
// allocating a new []string per line, which matters at PAF scale (one
// call per alignment record).
func getFields(out [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for i := range out {
		pos := posEnd
		for pos != lineLen && curLine[pos] <= ' ' {
			pos++
		}
		if pos == lineLen {
			return i
		}
		posEnd = pos
		for posEnd != lineLen && curLine[posEnd] > ' ' {
			posEnd++
		}
		out[i] = curLine[pos:posEnd]
	}
	return len(out)
}

const requiredFields = 12

// Open opens path (local or cloud, per grailbio/base/file) and returns a
// decompressing io.Reader appropriate to its contents: bgzf if the first
// four bytes match the BGZF magic, klauspost gzip if fileio detects a
// plain .gz, otherwise the raw stream. The caller must call the returned
// close function.
func Open(path string) (io.Reader, func() error, error) {
	const op = "paf.Open"
	ctx := vcontext.Background()
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, impgerr.E(impgerr.IoError, op, err)
	}
	closeFn := func() error { return f.Close(ctx) }

	br := bufio.NewReader(f.Reader(ctx))
	magic, err := br.Peek(4)
	switch {
	case err == nil && bytes.Equal(magic, bgzfMagic[:]):
		r, err := bgzf.NewReader(br, false)
		if err != nil {
			closeFn()
			return nil, nil, impgerr.E(impgerr.IoError, op, err)
		}
		return r, closeFn, nil
	case fileio.DetermineType(path) == fileio.Gzip:
		r, err := gzip.NewReader(br)
		if err != nil {
			closeFn()
			return nil, nil, impgerr.E(impgerr.IoError, op, err)
		}
		return r, closeFn, nil
	default:
		return br, closeFn, nil
	}
}

// Parse reads PAF records from r, interning sequence names into seqs and
// returning normalized AlignmentRecords. A record without a cg:Z: tag is
// rejected with MissingCigar.
func Parse(r io.Reader, seqs *seqindex.Index) ([]align.Record, error) {
	const op = "paf.Parse"
	var (
		records []align.Record
		fields  [requiredFields + 8][]byte
		lineNum int
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		n := getFields(fields[:], line)
		if n < requiredFields {
			return nil, impgerr.Ef(impgerr.InputFormat, op, "line %d: expected at least %d fields, got %d", lineNum, requiredFields, n)
		}
		rec, err := parseRecord(fields[:n], seqs)
		if err != nil {
			kind := impgerr.KindOf(err)
			if kind == impgerr.Other {
				kind = impgerr.InputFormat
			}
			return nil, impgerr.E(kind, op, errors.Wrapf(err, "line %d", lineNum))
		}
		records = append(records, *rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, impgerr.E(impgerr.IoError, op, err)
	}
	return records, nil
}

func parseRecord(f [][]byte, seqs *seqindex.Index) (*align.Record, error) {
	qName := string(f[0])
	qLen, err := strconv.Atoi(string(f[1]))
	if err != nil {
		return nil, errors.Wrap(err, "qLen")
	}
	qStart, err := strconv.Atoi(string(f[2]))
	if err != nil {
		return nil, errors.Wrap(err, "qStart")
	}
	qEnd, err := strconv.Atoi(string(f[3]))
	if err != nil {
		return nil, errors.Wrap(err, "qEnd")
	}
	strandByte := f[4]
	if len(strandByte) != 1 {
		return nil, errors.Errorf("invalid strand field %q", strandByte)
	}
	tName := string(f[5])
	tLen, err := strconv.Atoi(string(f[6]))
	if err != nil {
		return nil, errors.Wrap(err, "tLen")
	}
	tStart, err := strconv.Atoi(string(f[7]))
	if err != nil {
		return nil, errors.Wrap(err, "tStart")
	}
	tEnd, err := strconv.Atoi(string(f[8]))
	if err != nil {
		return nil, errors.Wrap(err, "tEnd")
	}

	var cigarStr string
	for _, tag := range f[requiredFields:] {
		if strings.HasPrefix(string(tag), "cg:Z:") {
			cigarStr = string(tag[5:])
			break
		}
	}
	if cigarStr == "" {
		return nil, impgerr.E(impgerr.MissingCigar, "paf.parseRecord", nil)
	}
	cig, err := cigar.Parse(cigarStr)
	if err != nil {
		return nil, errors.Wrap(err, "cg:Z: tag")
	}

	tID, err := seqs.Intern(tName, int32(tLen))
	if err != nil {
		return nil, err
	}
	qID, err := seqs.Intern(qName, int32(qLen))
	if err != nil {
		return nil, err
	}

	rec := &align.Record{
		TargetID: tID, TStart: int32(tStart), TEnd: int32(tEnd),
		QueryID: qID, QStart: int32(qStart), QEnd: int32(qEnd),
		Strand: align.Strand(strandByte[0]),
		Cigar:  cig,
	}
	return rec, rec.Validate()
}
