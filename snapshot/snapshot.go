package snapshot

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arloliu/rossdash/compress"
	"github.com/arloliu/rossdash/encoding"
	"github.com/arloliu/rossdash/endian"
	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/internal/hash"
	"github.com/arloliu/rossdash/internal/options"
	"github.com/arloliu/rossdash/internal/pool"
	"github.com/arloliu/rossdash/table"
)

// Per-table and per-column descriptor sizes inside the body.
const (
	tableDescSize  = 1 + 4 + 2 // kind, rows, columns
	columnDescSize = 8 + 1 + 4 // column id, type, payload length
	checksumSize   = 8
)

// Config holds snapshot writer settings.
type Config struct {
	engine      endian.EndianEngine
	compression format.CompressionType
	fingerprint uint64
	createdAt   time.Time
}

// Option configures Write.
type Option = options.Option[*Config]

// WithCompression sets the column codec. The default is zstd.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(c *Config) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return err
		}
		c.compression = ct

		return nil
	})
}

// WithBigEndian writes the snapshot in big-endian byte order.
func WithBigEndian() Option {
	return options.NoError(func(c *Config) {
		c.engine = endian.GetBigEndianEngine()
	})
}

// WithSourceFingerprint records the fingerprint of the log the telemetry was
// decoded from, so a stale snapshot can be detected.
func WithSourceFingerprint(fp uint64) Option {
	return options.NoError(func(c *Config) {
		c.fingerprint = fp
	})
}

// WithCreatedAt overrides the creation time stored in the header.
func WithCreatedAt(t time.Time) Option {
	return options.NoError(func(c *Config) {
		c.createdAt = t
	})
}

// Write encodes every table of tel to w.
func Write(w io.Writer, tel *table.Telemetry, opts ...Option) (Header, error) {
	cfg := &Config{
		engine:      endian.GetLittleEndianEngine(),
		compression: format.CompressionZstd,
		createdAt:   time.Now(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return Header{}, err
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return Header{}, err
	}

	body := pool.GetSnapshotBuffer()
	defer pool.PutSnapshotBuffer(body)

	tables := tel.Tables()
	for _, tbl := range tables {
		if err := writeTable(body, tbl, cfg.engine, codec); err != nil {
			return Header{}, fmt.Errorf("encode %s table: %w", tbl.Kind(), err)
		}
	}

	h := Header{
		Version:           Version,
		BigEndian:         endian.Name(cfg.engine) == "big",
		Compression:       cfg.compression,
		TableCount:        uint8(len(tables)),
		SourceFingerprint: cfg.fingerprint,
		BodyLength:        uint64(body.Len()),
		CreatedAt:         cfg.createdAt.UTC(),
	}
	checksum := cfg.engine.AppendUint64(nil, hash.Sum(body.Bytes()))

	if _, err := w.Write(h.Bytes()); err != nil {
		return Header{}, fmt.Errorf("write snapshot header: %w", err)
	}
	if _, err := body.WriteTo(w); err != nil {
		return Header{}, fmt.Errorf("write snapshot body: %w", err)
	}
	if _, err := w.Write(checksum); err != nil {
		return Header{}, fmt.Errorf("write snapshot checksum: %w", err)
	}

	return h, nil
}

func writeTable(body *pool.ByteBuffer, tbl *table.Table, engine endian.EndianEngine, codec compress.Codec) error {
	cols := tbl.Columns()

	desc := make([]byte, 0, tableDescSize)
	desc = append(desc, byte(tbl.Kind()))
	desc = engine.AppendUint32(desc, uint32(tbl.Len()))
	desc = engine.AppendUint16(desc, uint16(len(cols)))
	_, _ = body.Write(desc)

	for _, c := range cols {
		raw, finish := encodeColumn(c, engine)
		// The codec may return raw itself, so it is copied before the
		// encoder's buffer goes back to the pool.
		payload, err := codec.Compress(raw)
		if err != nil {
			finish()
			return fmt.Errorf("compress column %s: %w", c.Name(), err)
		}

		desc = desc[:0]
		desc = engine.AppendUint64(desc, hash.ID(c.Name()))
		desc = append(desc, byte(c.Type()))
		desc = engine.AppendUint32(desc, uint32(len(payload)))
		_, _ = body.Write(desc)
		_, _ = body.Write(payload)
		finish()
	}

	return nil
}

// encodeColumn returns the raw encoding of c and a func releasing its buffer.
func encodeColumn(c *table.Column, engine endian.EndianEngine) ([]byte, func()) {
	switch c.Type() {
	case format.TypeUint32:
		enc := encoding.NewRawEncoder[uint32](engine)
		enc.WriteSlice(c.Uint32s())
		return enc.Bytes(), enc.Finish
	case format.TypeFloat32:
		enc := encoding.NewRawEncoder[float32](engine)
		enc.WriteSlice(c.Float32s())
		return enc.Bytes(), enc.Finish
	default:
		enc := encoding.NewRawEncoder[float64](engine)
		enc.WriteSlice(c.Float64s())
		return enc.Bytes(), enc.Finish
	}
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (*table.Telemetry, Header, error) {
	var h Header

	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, h, fmt.Errorf("%w: read header: %w", errs.ErrInvalidSnapshot, err)
	}
	if err := h.Parse(hdr); err != nil {
		return nil, h, err
	}

	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return nil, h, fmt.Errorf("%w: %w", errs.ErrInvalidSnapshot, err)
	}

	// The buffer grows with the bytes actually present, so a header
	// claiming a huge body cannot force a huge allocation up front.
	want := int64(h.BodyLength) + checksumSize
	data, err := io.ReadAll(io.LimitReader(r, want))
	if err != nil {
		return nil, h, fmt.Errorf("%w: read body: %w", errs.ErrInvalidSnapshot, err)
	}
	if int64(len(data)) != want {
		return nil, h, fmt.Errorf("%w: body has %d of %d bytes", errs.ErrInvalidSnapshot, len(data), want)
	}

	engine := h.Engine()
	body := data[:h.BodyLength]
	if got, want := hash.Sum(body), engine.Uint64(data[h.BodyLength:]); got != want {
		return nil, h, fmt.Errorf("%w: body hash %016x, header says %016x", errs.ErrChecksumMismatch, got, want)
	}

	tables := make([]*table.Table, len(format.RecordKinds))
	p := &parser{data: body, engine: engine}
	for range h.TableCount {
		tbl, err := p.table(codec)
		if err != nil {
			return nil, h, err
		}
		slot := int(tbl.Kind()) - 1
		if tables[slot] != nil {
			return nil, h, fmt.Errorf("%w: duplicate %s table", errs.ErrInvalidSnapshot, tbl.Kind())
		}
		tables[slot] = tbl
	}
	if len(p.data) != 0 {
		return nil, h, fmt.Errorf("%w: %d trailing body bytes", errs.ErrInvalidSnapshot, len(p.data))
	}

	tel, err := table.NewTelemetry(tables[0], tables[1], tables[2])
	if err != nil {
		return nil, h, err
	}

	return tel, h, nil
}

type parser struct {
	data   []byte
	engine endian.EndianEngine
}

func (p *parser) take(n int) ([]byte, error) {
	if n < 0 || n > len(p.data) {
		return nil, fmt.Errorf("%w: need %d bytes, %d left", errs.ErrInvalidSnapshot, n, len(p.data))
	}
	b := p.data[:n]
	p.data = p.data[n:]

	return b, nil
}

func (p *parser) table(codec compress.Codec) (*table.Table, error) {
	desc, err := p.take(tableDescSize)
	if err != nil {
		return nil, err
	}

	kind := format.RecordKind(desc[0])
	rows := int(p.engine.Uint32(desc[1:5]))
	ncols := int(p.engine.Uint16(desc[5:7]))

	schema := table.Schema(kind)
	if schema == nil {
		return nil, fmt.Errorf("%w: %w: %d", errs.ErrInvalidSnapshot, errs.ErrUnknownRecordKind, kind)
	}
	if ncols != len(schema) {
		return nil, fmt.Errorf("%w: %s table has %d columns, want %d", errs.ErrInvalidSnapshot, kind, ncols, len(schema))
	}

	cols := make([]*table.Column, ncols)
	for i, field := range schema {
		desc, err := p.take(columnDescSize)
		if err != nil {
			return nil, err
		}
		id := p.engine.Uint64(desc[0:8])
		typ := format.ColumnType(desc[8])
		size := int(p.engine.Uint32(desc[9:13]))

		if id != hash.ID(field.Name) || typ != field.Type {
			return nil, fmt.Errorf("%w: %s column %d is %016x/%s, want %s/%s",
				errs.ErrInvalidSnapshot, kind, i, id, typ, field.Name, field.Type)
		}

		payload, err := p.take(size)
		if err != nil {
			return nil, err
		}
		raw, err := codec.Decompress(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: decompress %s.%s: %w", errs.ErrInvalidSnapshot, kind, field.Name, err)
		}

		col, err := decodeColumn(field.Name, typ, raw, rows, p.engine)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", errs.ErrInvalidSnapshot, kind, field.Name, err)
		}
		cols[i] = col
	}

	return table.NewTableFromColumns(kind, cols)
}

func decodeColumn(name string, typ format.ColumnType, raw []byte, rows int, engine endian.EndianEngine) (*table.Column, error) {
	if width := typ.Size(); width == 0 || len(raw) != rows*width {
		return nil, fmt.Errorf("%s column of %d rows needs %d bytes, got %d", typ, rows, rows*width, len(raw))
	}

	switch typ {
	case format.TypeUint32:
		values := make([]uint32, rows)
		if err := encoding.NewRawDecoder[uint32](engine).DecodeInto(values, raw); err != nil {
			return nil, err
		}
		return table.NewUint32Column(name, values), nil
	case format.TypeFloat32:
		values := make([]float32, rows)
		if err := encoding.NewRawDecoder[float32](engine).DecodeInto(values, raw); err != nil {
			return nil, err
		}
		return table.NewFloat32Column(name, values), nil
	case format.TypeFloat64:
		values := make([]float64, rows)
		if err := encoding.NewRawDecoder[float64](engine).DecodeInto(values, raw); err != nil {
			return nil, err
		}
		return table.NewFloat64Column(name, values), nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", typ)
	}
}

// WriteFile writes a snapshot of tel to path.
func WriteFile(path string, tel *table.Telemetry, opts ...Option) (Header, error) {
	f, err := os.Create(path)
	if err != nil {
		return Header{}, fmt.Errorf("create snapshot: %w", err)
	}

	h, err := Write(f, tel, opts...)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close snapshot: %w", cerr)
	}
	if err != nil {
		return Header{}, err
	}

	return h, nil
}

// ReadFile reads the snapshot at path.
func ReadFile(path string) (*table.Telemetry, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	tel, h, err := Read(f)
	if err != nil {
		return nil, h, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	return tel, h, nil
}
