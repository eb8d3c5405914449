package fingerprint

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"math"
	"os"
	"runtime/debug"

	"lukechampine.com/blake3"
)

const (
	// DigestSize is the number of output bytes read from the hash.
	DigestSize = 32

	// MmapThreshold is the smallest file size hashed through a memory map.
	MmapThreshold = 16 * 1024

	streamBufferSize = 64 * 1024
)

func newHasher() *blake3.Hasher {
	return blake3.New(DigestSize, nil)
}

// finish reads DigestSize bytes from the extendable output and hex encodes
// them in generation order.
func finish(h *blake3.Hasher) string {
	out := make([]byte, DigestSize)
	if _, err := io.ReadFull(h.XOF(), out); err != nil {
		// The XOF reader is infinite; a short read cannot happen.
		panic(fmt.Sprintf("blake3 xof: %v", err))
	}

	return hex.EncodeToString(out)
}

// HashFile returns the digest of the file at path, memory mapping it when
// that pays off.
func HashFile(path string) (string, error) {
	// #nosec G304 - path comes from walking a caller supplied root
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}

	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	if shouldMap(info) {
		return hashMapped(f, info.Size())
	}

	return hashStream(f)
}

// HashReader returns the digest of everything read from r.
func HashReader(r io.Reader) (string, error) {
	return hashStream(r)
}

// HashBytes returns the digest of data.
func HashBytes(data []byte) string {
	h := newHasher()
	_, _ = h.Write(data)

	return finish(h)
}

// shouldMap decides between the mapped and the streaming path. Empty files,
// non-regular files and files too long to address are streamed, as are
// files below MmapThreshold.
func shouldMap(info os.FileInfo) bool {
	size := info.Size()

	switch {
	case !mmapSupported:
		return false
	case !info.Mode().IsRegular():
		return false
	case size <= 0:
		return false
	case uint64(size) > math.MaxInt:
		return false
	case size < MmapThreshold:
		return false
	}

	return true
}

func hashStream(r io.Reader) (string, error) {
	h := newHasher()
	if err := stream(h, r); err != nil {
		return "", err
	}

	return finish(h), nil
}

func stream(h hash.Hash, r io.Reader) error {
	buf := make([]byte, streamBufferSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return fmt.Errorf("read: %w", err)
	}

	return nil
}

// hashMapped maps exactly size bytes so a concurrent append cannot change
// what is hashed. The whole region goes to the hasher in one Write, which
// lets it compress many chunks at once. A file truncated below size faults
// when the missing pages are read; the fault is returned as an error.
func hashMapped(f *os.File, size int64) (digest string, err error) {
	data, unmap, err := mapFile(f, size)
	if err != nil {
		return "", fmt.Errorf("mmap: %w", err)
	}

	defer func() { _ = unmap() }()

	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)

	defer func() {
		if r := recover(); r != nil {
			digest, err = "", fmt.Errorf("read mapped file: %v", r)
		}
	}()

	return HashBytes(data), nil
}
