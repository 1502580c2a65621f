package rossfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/rossdash/compress"
	"github.com/arloliu/rossdash/endian"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/internal/options"
	"github.com/arloliu/rossdash/section"
)

const writeBufferSize = 64 * 1024

// Writer produces a ROSS instrumentation log.
//
// Close must be called to flush buffered frames and finish a compressed
// stream. Close does not close the underlying writer.
type Writer struct {
	cfg    *WriterConfig
	out    *bufio.Writer
	stream io.WriteCloser
	frame  []byte
	stats  Stats
	closed bool
}

// NewWriter creates a writer targeting w, little-endian and uncompressed
// unless configured otherwise.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	cfg := &WriterConfig{
		engine:      endian.GetLittleEndianEngine(),
		compression: format.CompressionNone,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	stream, err := compress.NewWriter(w, cfg.compression)
	if err != nil {
		return nil, err
	}

	return &Writer{
		cfg:    cfg,
		out:    bufio.NewWriterSize(stream, writeBufferSize),
		stream: stream,
		frame:  make([]byte, 0, section.HeaderSize+section.PESize),
		stats:  Stats{Compression: cfg.compression},
	}, nil
}

// WritePE writes one PE sample.
func (w *Writer) WritePE(rec section.PERecord) error {
	return w.WriteSample(rec.Sample())
}

// WriteKP writes one KP sample.
func (w *Writer) WriteKP(rec section.KPRecord) error {
	return w.WriteSample(rec.Sample())
}

// WriteLP writes one LP sample.
func (w *Writer) WriteLP(rec section.LPRecord) error {
	return w.WriteSample(rec.Sample())
}

// WriteSample writes a header and payload for s.
func (w *Writer) WriteSample(s section.Sample) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := w.write(s.AppendTo(w.frame[:0], w.cfg.engine)); err != nil {
		return err
	}
	w.stats.count(s.Kind)

	return nil
}

// WriteRaw writes a frame with an arbitrary payload. The header announces
// len(payload) bytes, so a payload of no known size produces a record that
// readers must skip or reject.
func (w *Writer) WriteRaw(flag int32, payload []byte, virtualTime, realTime float64) error {
	h := section.SampleHeader{
		Flag:          flag,
		PayloadLength: int32(len(payload)),
		VirtualTime:   virtualTime,
		RealTime:      realTime,
	}
	buf := append(h.AppendTo(w.frame[:0], w.cfg.engine), payload...)
	if err := w.write(buf); err != nil {
		return err
	}
	if layout, ok := h.Layout(); ok {
		w.stats.count(layout.Kind)
	}

	return nil
}

func (w *Writer) write(frame []byte) error {
	if w.closed {
		return errors.New("rossfile: write on closed writer")
	}

	n, err := w.out.Write(frame)
	w.stats.BytesRead += int64(n)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

// Stats returns the records written so far. BytesRead holds the bytes
// written before compression.
func (w *Writer) Stats() Stats {
	return w.stats
}

// Close flushes buffered frames and finishes the compressed stream.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.out.Flush(); err != nil {
		return fmt.Errorf("flush log: %w", err)
	}

	return w.stream.Close()
}
