// Package rossdash analyzes ROSS parallel discrete-event simulation
// instrumentation logs.
//
// The engine writes PE, KP and LP samples as a flat binary stream. This module
// decodes that stream into columnar tables, answers time-range queries over
// them, caches decoded telemetry as compressed snapshots and serves it over a
// JSON API.
//
// # Basic Usage
//
//	tel, src, err := rossdash.Open("ross-stats-engine.bin")
//	if err != nil {
//		return err
//	}
//	fmt.Println(src.Format, tel.Len(format.KindPE))
//
//	tel.SetTimeRange(format.VirtualTime, 0, 1000)
//	proj, _ := tel.Query(format.KindPE, table.Query{Columns: []string{"events_processed"}})
//
// # Package Structure
//
// Open is a thin wrapper choosing between the rossfile and snapshot packages.
// Use those directly for decoder options, incremental reading or writing.
package rossdash

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/arloliu/rossdash/rossfile"
	"github.com/arloliu/rossdash/snapshot"
	"github.com/arloliu/rossdash/table"
)

// SourceFormat tells what kind of file Open read.
type SourceFormat string

const (
	FormatLog      SourceFormat = "log"
	FormatSnapshot SourceFormat = "snapshot"
)

// Source describes the file a Telemetry was opened from.
type Source struct {
	Path   string
	Format SourceFormat
	// Fingerprint identifies the decoded log. For a snapshot it is the
	// fingerprint recorded when the snapshot was written.
	Fingerprint uint64
	// Stats is set for logs only.
	Stats rossfile.Stats
	// Snapshot is set for snapshots only.
	Snapshot snapshot.Header
}

// Open loads telemetry from path, which may hold a raw ROSS log or a snapshot.
// Decoder options apply to logs only; a compressed log needs
// rossfile.WithCompression.
func Open(path string, opts ...rossfile.DecoderOption) (*table.Telemetry, Source, error) {
	src := Source{Path: path}

	isSnap, err := sniffSnapshot(path)
	if err != nil {
		return nil, src, err
	}

	if isSnap {
		tel, h, err := snapshot.ReadFile(path)
		if err != nil {
			return nil, src, err
		}
		src.Format = FormatSnapshot
		src.Snapshot = h
		src.Fingerprint = h.SourceFingerprint

		return tel, src, nil
	}

	tel, stats, err := rossfile.Load(path, opts...)
	if err != nil {
		return nil, src, err
	}
	src.Format = FormatLog
	src.Stats = stats
	src.Fingerprint = stats.Fingerprint

	return tel, src, nil
}

// sniffSnapshot reports whether the file at path starts with the snapshot
// magic. A raw log whose flag field spells the magic is taken for a snapshot
// and fails its header checks; rossfile.Load reads such a log directly.
func sniffSnapshot(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open telemetry: %w", err)
	}
	defer f.Close()

	prefix := make([]byte, 4)
	n, err := io.ReadFull(f, prefix)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	return snapshot.IsSnapshot(prefix[:n]), nil
}
