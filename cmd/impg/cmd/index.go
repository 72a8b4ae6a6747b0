package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/grailbio/base/log"

	"github.com/grailbio/impg/encoding/paf"
	"github.com/grailbio/impg/impg"
	"github.com/grailbio/impg/seqindex"
)

// snapshotSuffix is the name-suffix a snapshot is paired with its source by.
const snapshotSuffix = ".impg"

// loadOrBuildIndexParallel implements the freshness check from
// original_source's load_or_generate_index: if pafPath+".impg" exists it
// is loaded unless forceReindex is set, with a log warning (not a
// failure) if the source file is newer than the snapshot on disk. A cold
// build's worker-pool size is injected via parallelism rather than
// assumed to own a process-wide pool; 0 defers to runtime.NumCPU().
func loadOrBuildIndexParallel(pafPath string, forceReindex bool, parallelism int) (*impg.Impg, error) {
	snapPath := pafPath + snapshotSuffix
	if !forceReindex {
		if g, err := tryLoadSnapshot(pafPath, snapPath); err == nil && g != nil {
			return g, nil
		} else if err != nil {
			log.Printf("impg: snapshot %s unusable (%v), rebuilding", snapPath, err)
		}
	}
	return buildIndex(pafPath, snapPath, parallelism)
}

func tryLoadSnapshot(pafPath, snapPath string) (*impg.Impg, error) {
	snapInfo, err := os.Stat(snapPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if srcInfo, err := os.Stat(pafPath); err == nil && srcInfo.ModTime().After(snapInfo.ModTime()) {
		log.Printf("impg: source %s is newer than snapshot %s; using stale snapshot (pass -I to force a rebuild)", pafPath, snapPath)
	}
	f, err := os.Open(snapPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return impg.FromSnapshot(f, pafPath)
}

func buildIndex(pafPath, snapPath string, parallelism int) (*impg.Impg, error) {
	r, closeFn, err := paf.Open(pafPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening PAF file")
	}
	defer closeFn()

	seqs := seqindex.New()
	records, err := paf.Parse(r, seqs)
	if err != nil {
		return nil, errors.Wrap(err, "parsing PAF file")
	}

	g, err := impg.BuildParallel(seqs, records, pafPath, parallelism)
	if err != nil {
		return nil, errors.Wrap(err, "building index")
	}

	if err := writeSnapshot(g, snapPath); err != nil {
		log.Error.Printf("impg: failed to persist snapshot %s: %v", snapPath, err)
	}
	return g, nil
}

func writeSnapshot(g *impg.Impg, snapPath string) error {
	tmp := snapPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := g.ToSnapshot(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, snapPath)
}

// region is a parsed "seq:start-end" argument or one row of a BED file.
type region struct {
	Name       string
	Start, End int32
	Label      string
}

// parseRegion parses the `-r`-flag form `seq_name:start-end`, following
// original_source's parse_target_range.
func parseRegion(s string) (region, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return region{}, errors.Errorf("target range %q: expected seq_name:start-end", s)
	}
	name, span := s[:colon], s[colon+1:]
	dash := strings.IndexByte(span, '-')
	if dash < 0 {
		return region{}, errors.Errorf("target range %q: expected start-end after ':'", s)
	}
	start, err := strconv.ParseInt(span[:dash], 10, 32)
	if err != nil {
		return region{}, errors.Wrap(err, "invalid start value")
	}
	end, err := strconv.ParseInt(span[dash+1:], 10, 32)
	if err != nil {
		return region{}, errors.Wrap(err, "invalid end value")
	}
	if start >= end {
		return region{}, errors.Errorf("target range %q: start must be less than end", s)
	}
	return region{Name: name, Start: int32(start), End: int32(end)}, nil
}

// parseBEDFile reads (name, start, end[, label]) rows, following
// original_source's parse_bed_file.
func parseBEDFile(path string) ([]region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var regions []region
	for lineNum, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, errors.Errorf("bed file %s line %d: expected at least 3 fields", path, lineNum+1)
		}
		start, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "bed file %s line %d: invalid start", path, lineNum+1)
		}
		end, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "bed file %s line %d: invalid end", path, lineNum+1)
		}
		if start >= end {
			return nil, errors.Errorf("bed file %s line %d: start must be less than end", path, lineNum+1)
		}
		var label string
		if len(fields) > 3 {
			label = fields[3]
		}
		regions = append(regions, region{Name: fields[0], Start: int32(start), End: int32(end), Label: label})
	}
	return regions, nil
}
