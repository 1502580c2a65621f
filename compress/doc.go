// Package compress provides the compression codecs rossdash uses for logs and snapshots.
//
// Two shapes are offered:
//
//   - Block codecs (Codec) compress a whole byte slice at once. Snapshot
//     columns are compressed this way, one column per block.
//   - Stream readers and writers wrap an io.Reader or io.Writer. ROSS logs
//     are often archived compressed. NewTypedReader decompresses a known
//     algorithm; NewReader sniffs the stream's magic bytes instead, for
//     callers that opt into detection.
//
// Supported algorithms:
//   - None: pass-through
//   - Zstd: klauspost/compress/zstd, best ratio
//   - S2: klauspost/compress/s2, balanced
//   - LZ4: pierrec/lz4, fastest decompression
//
// Example:
//
//	r, kind, err := compress.NewReader(file)
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//	log.Printf("reading %s log", kind)
package compress
