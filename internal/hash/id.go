package hash

import (
	"io"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of a column name. Snapshots store column IDs
// instead of names.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Sum computes the xxHash64 of data.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Fingerprint hashes everything read through it.
//
// The decoder wraps its input in a Fingerprint so a log's identity is known
// once the load finishes, without reading the file twice.
type Fingerprint struct {
	r      io.Reader
	digest *xxhash.Digest
}

// NewFingerprint wraps r.
func NewFingerprint(r io.Reader) *Fingerprint {
	return &Fingerprint{r: r, digest: xxhash.New()}
}

// Read implements io.Reader.
func (f *Fingerprint) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if n > 0 {
		_, _ = f.digest.Write(p[:n])
	}

	return n, err
}

// Sum64 returns the hash of the bytes read so far.
func (f *Fingerprint) Sum64() uint64 {
	return f.digest.Sum64()
}
