package rossfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/rossdash/compress"
	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/internal/hash"
	"github.com/arloliu/rossdash/internal/options"
	"github.com/arloliu/rossdash/section"
	"github.com/arloliu/rossdash/table"
)

// Stats summarizes a decode.
type Stats struct {
	PERecords int `json:"pe_records"`
	KPRecords int `json:"kp_records"`
	LPRecords int `json:"lp_records"`
	// Skipped counts records dropped under format.SkipDeclared.
	Skipped      int   `json:"skipped"`
	SkippedBytes int64 `json:"skipped_bytes"`
	// BytesRead counts decompressed bytes consumed, headers included.
	BytesRead int64 `json:"bytes_read"`
	// Compression is the compression the input was stored with.
	Compression format.CompressionType `json:"-"`
	// Fingerprint is the xxHash64 of the decompressed bytes read so far.
	Fingerprint uint64 `json:"fingerprint"`
}

// Records returns the decoded record count of kind.
func (s Stats) Records(kind format.RecordKind) int {
	switch kind {
	case format.KindPE:
		return s.PERecords
	case format.KindKP:
		return s.KPRecords
	case format.KindLP:
		return s.LPRecords
	default:
		return 0
	}
}

// Total returns the number of decoded records of every kind.
func (s Stats) Total() int {
	return s.PERecords + s.KPRecords + s.LPRecords
}

func (s *Stats) count(kind format.RecordKind) {
	switch kind {
	case format.KindPE:
		s.PERecords++
	case format.KindKP:
		s.KPRecords++
	case format.KindLP:
		s.LPRecords++
	}
}

// Decoder reads samples one at a time from a ROSS instrumentation log.
//
// A log is a sequence of frames, each a fixed-size SampleHeader followed by a
// payload whose byte length alone tells its record kind. The decoder is not
// safe for concurrent use.
type Decoder struct {
	cfg     *DecoderConfig
	src     io.Reader
	closer  io.Closer
	fp      *hash.Fingerprint
	header  []byte
	payload []byte
	sample  section.Sample
	stats   Stats
	err     error
}

// NewDecoder creates a decoder reading from r. The input is raw frames unless
// WithCompression names a codec or asks for detection.
func NewDecoder(r io.Reader, opts ...DecoderOption) (*Decoder, error) {
	cfg := newDecoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	var (
		rc  io.ReadCloser
		ct  = cfg.compression
		err error
	)
	if ct == format.CompressionAuto {
		rc, ct, err = compress.NewReader(r)
	} else {
		rc, err = compress.NewTypedReader(r, ct)
	}
	if err != nil {
		return nil, err
	}

	fp := hash.NewFingerprint(rc)
	maxPayload := max(section.PESize, section.KPSize, section.LPSize)

	return &Decoder{
		cfg:     cfg,
		src:     fp,
		closer:  rc,
		fp:      fp,
		header:  make([]byte, section.HeaderSize),
		payload: make([]byte, maxPayload),
		stats:   Stats{Compression: ct},
	}, nil
}

// Next decodes the next sample.
//
// It returns io.EOF when the stream ends exactly at a frame boundary. Any
// other error is fatal and is returned again by every later call. The
// returned sample's slices are reused by the next call; Clone it to keep it.
func (d *Decoder) Next() (section.Sample, error) {
	if d.err != nil {
		return section.Sample{}, d.err
	}

	s, err := d.next()
	if err != nil {
		d.err = err
		return section.Sample{}, err
	}

	return s, nil
}

func (d *Decoder) next() (section.Sample, error) {
	for {
		offset := d.stats.BytesRead

		n, err := io.ReadFull(d.src, d.header)
		d.stats.BytesRead += int64(n)
		switch {
		case errors.Is(err, io.EOF):
			return section.Sample{}, io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			return section.Sample{}, fmt.Errorf("%w: %d of %d bytes at offset %d",
				errs.ErrTruncatedHeader, n, section.HeaderSize, offset)
		case err != nil:
			return section.Sample{}, fmt.Errorf("read header at offset %d: %w", offset, err)
		}

		var h section.SampleHeader
		if err := h.Parse(d.header, d.cfg.engine); err != nil {
			return section.Sample{}, err
		}

		layout, ok := h.Layout()
		if !ok {
			if err := d.skip(h, offset); err != nil {
				return section.Sample{}, err
			}

			continue
		}

		buf := d.payload[:layout.Size()]
		n, err = io.ReadFull(d.src, buf)
		d.stats.BytesRead += int64(n)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return section.Sample{}, fmt.Errorf("%w: %s payload has %d of %d bytes at offset %d",
				errs.ErrTruncatedPayload, layout.Kind, n, layout.Size(), offset+int64(section.HeaderSize))
		}
		if err != nil {
			return section.Sample{}, fmt.Errorf("read payload at offset %d: %w", offset+int64(section.HeaderSize), err)
		}

		if err := d.sample.ParsePayload(h, layout, buf, d.cfg.engine); err != nil {
			return section.Sample{}, err
		}
		d.stats.count(layout.Kind)

		return d.sample, nil
	}
}

// skip handles a header whose payload length matches no record kind.
func (d *Decoder) skip(h section.SampleHeader, offset int64) error {
	if d.cfg.skip == format.SkipNone {
		return fmt.Errorf("%w: payload_byte_length %d at offset %d matches no record kind",
			errs.ErrMalformedRecord, h.PayloadLength, offset)
	}
	if h.PayloadLength < 0 || int(h.PayloadLength) > d.cfg.maxSkip {
		return fmt.Errorf("%w: payload_byte_length %d at offset %d cannot be skipped (limit %d)",
			errs.ErrMalformedRecord, h.PayloadLength, offset, d.cfg.maxSkip)
	}

	length := int64(h.PayloadLength)
	n, err := io.CopyN(io.Discard, d.src, length)
	d.stats.BytesRead += n
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: skipped record has %d of %d bytes at offset %d",
				errs.ErrTruncatedPayload, n, length, offset+int64(section.HeaderSize))
		}

		return fmt.Errorf("skip payload at offset %d: %w", offset+int64(section.HeaderSize), err)
	}

	d.stats.Skipped++
	d.stats.SkippedBytes += length
	d.cfg.logger.WithFields(logrus.Fields{
		"offset":              offset,
		"payload_byte_length": h.PayloadLength,
		"virtual_time":        h.VirtualTime,
	}).Warn("skipping record with unknown payload length")

	return nil
}

// Stats returns the counters accumulated so far.
func (d *Decoder) Stats() Stats {
	s := d.stats
	s.Fingerprint = d.fp.Sum64()

	return s
}

// Close releases the decompressor. It does not close the underlying reader.
func (d *Decoder) Close() error {
	return d.closer.Close()
}

// Decode reads a whole log from r into a Telemetry.
//
// On failure the returned Telemetry is nil; Stats still describe how far the
// decode got.
func Decode(r io.Reader, opts ...DecoderOption) (*table.Telemetry, Stats, error) {
	dec, err := NewDecoder(r, opts...)
	if err != nil {
		return nil, Stats{}, err
	}
	defer dec.Close()

	b := table.NewBuilder()
	for {
		s, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dec.Stats(), err
		}
		if err := b.Append(s); err != nil {
			return nil, dec.Stats(), err
		}
	}

	return b.Build(), dec.Stats(), nil
}

// Load opens and decodes the log at path.
func Load(path string, opts ...DecoderOption) (*table.Telemetry, Stats, error) {
	cfg := newDecoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, Stats{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open telemetry log: %w", err)
	}
	defer f.Close()

	tel, stats, err := Decode(f, opts...)
	if err != nil {
		return nil, stats, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.logger.WithFields(logrus.Fields{
		"path":        path,
		"pe":          stats.PERecords,
		"kp":          stats.KPRecords,
		"lp":          stats.LPRecords,
		"skipped":     stats.Skipped,
		"bytes":       stats.BytesRead,
		"compression": stats.Compression.String(),
	}).Info("loaded telemetry log")

	return tel, stats, nil
}
