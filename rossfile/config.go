package rossfile

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arloliu/rossdash/endian"
	"github.com/arloliu/rossdash/format"
	"github.com/arloliu/rossdash/internal/options"
)

// DefaultMaxSkipLength bounds how many bytes a single skipped record may
// claim before the decoder gives up on the stream.
const DefaultMaxSkipLength = 1 << 20

// DecoderConfig holds the decoder settings.
type DecoderConfig struct {
	engine      endian.EndianEngine
	skip        format.SkipPolicy
	maxSkip     int
	compression format.CompressionType
	logger      logrus.FieldLogger
}

func newDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		engine:      endian.GetLittleEndianEngine(),
		skip:        format.SkipNone,
		maxSkip:     DefaultMaxSkipLength,
		compression: format.CompressionNone,
		logger:      logrus.StandardLogger(),
	}
}

// DecoderOption configures a Decoder, Decode or Load.
type DecoderOption = options.Option[*DecoderConfig]

// WithByteOrder sets the byte order the log was written with.
// The default is little-endian, which is what ROSS writes on x86 and ARM hosts.
func WithByteOrder(engine endian.EndianEngine) DecoderOption {
	return options.New(func(c *DecoderConfig) error {
		if engine == nil {
			return fmt.Errorf("nil byte order")
		}
		c.engine = engine

		return nil
	})
}

// WithSkipPolicy sets what happens to a record whose payload length matches
// no known kind. The default, format.SkipNone, fails the decode.
func WithSkipPolicy(policy format.SkipPolicy) DecoderOption {
	return options.New(func(c *DecoderConfig) error {
		switch policy {
		case format.SkipNone, format.SkipDeclared:
			c.skip = policy
			return nil
		default:
			return fmt.Errorf("invalid skip policy: %v", policy)
		}
	})
}

// WithMaxSkipLength caps the payload length a skipped record may declare.
func WithMaxSkipLength(n int) DecoderOption {
	return options.New(func(c *DecoderConfig) error {
		if n < 0 {
			return fmt.Errorf("invalid max skip length: %d", n)
		}
		c.maxSkip = n

		return nil
	})
}

// WithCompression sets the input compression. The default is
// format.CompressionNone: the log is read as raw frames and its leading bytes
// are never interpreted as anything but a sample header. format.CompressionAuto
// detects zstd, LZ4 and S2 streams by their magic instead, which misreads a raw
// log whose first flag field happens to equal one of those magics.
func WithCompression(ct format.CompressionType) DecoderOption {
	return options.New(func(c *DecoderConfig) error {
		switch ct {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
			format.CompressionAuto:
			c.compression = ct
			return nil
		default:
			return fmt.Errorf("invalid compression: %v", ct)
		}
	})
}

// WithLogger sets the logger that receives skip warnings and load summaries.
func WithLogger(logger logrus.FieldLogger) DecoderOption {
	return options.NoError(func(c *DecoderConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WriterConfig holds the writer settings.
type WriterConfig struct {
	engine      endian.EndianEngine
	compression format.CompressionType
}

// WriterOption configures a Writer.
type WriterOption = options.Option[*WriterConfig]

// WithWriterByteOrder sets the byte order of the written log.
func WithWriterByteOrder(engine endian.EndianEngine) WriterOption {
	return options.New(func(c *WriterConfig) error {
		if engine == nil {
			return fmt.Errorf("nil byte order")
		}
		c.engine = engine

		return nil
	})
}

// WithWriterCompression compresses the written stream.
func WithWriterCompression(ct format.CompressionType) WriterOption {
	return options.New(func(c *WriterConfig) error {
		switch ct {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			c.compression = ct
			return nil
		default:
			return fmt.Errorf("invalid compression: %v", ct)
		}
	})
}
