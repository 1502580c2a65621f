// Package errs defines the sentinel errors returned across rossdash.
//
// Callers match them with errors.Is; the returning package wraps them with
// the byte offset, record kind or column name that triggered the failure.
package errs

import "errors"

var (
	// ErrInvalidHeaderSize is returned when a header buffer has the wrong length.
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrInvalidPayloadSize is returned when a payload buffer does not match its layout.
	ErrInvalidPayloadSize = errors.New("invalid payload size")

	// ErrTruncatedHeader is returned when a log ends part way through a sample header.
	ErrTruncatedHeader = errors.New("truncated sample header")
	// ErrTruncatedPayload is returned when a log ends part way through a sample payload.
	ErrTruncatedPayload = errors.New("truncated sample payload")
	// ErrMalformedRecord is returned when a header declares a payload length matching no known layout.
	ErrMalformedRecord = errors.New("malformed record: unrecognized payload length")

	ErrUnknownRecordKind = errors.New("unknown record kind")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrInvalidTimeRange  = errors.New("invalid time range")

	ErrInvalidSnapshot        = errors.New("invalid snapshot")
	ErrChecksumMismatch       = errors.New("snapshot checksum mismatch")
	ErrUnsupportedCompression = errors.New("unsupported compression type")
)
