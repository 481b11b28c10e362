package reader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec wrapping a sequence file.
type Compression int

const (
	NoCompression Compression = iota
	Gzip
	Zstd
	LZ4
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// trimCompressionSuffix strips a known compression extension from path.
func trimCompressionSuffix(path string) (string, Compression) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return path[:len(path)-3], Gzip
	case strings.HasSuffix(lower, ".zst"):
		return path[:len(path)-4], Zstd
	case strings.HasSuffix(lower, ".lz4"):
		return path[:len(path)-4], LZ4
	}
	return path, NoCompression
}

func sniffCompression(head []byte) Compression {
	switch {
	case hasPrefix(head, gzipMagic):
		return Gzip
	case hasPrefix(head, zstdMagic):
		return Zstd
	case hasPrefix(head, lz4Magic):
		return LZ4
	}
	return NoCompression
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openDecompressed opens path and wraps it in the right decoder. The codec
// is detected from the magic number, falling back to the file suffix.
func openDecompressed(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	br := bufio.NewReader(fh)
	head, _ := br.Peek(4)
	codec := sniffCompression(head)
	if codec == NoCompression {
		_, codec = trimCompressionSuffix(path)
	}

	switch codec {
	case Gzip:
		gr, err := gzip.NewReader(br)
		if err != nil {
			_ = fh.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			_ = fh.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		release := closerFunc(func() error { zr.Close(); return nil })
		return &multiReadCloser{Reader: zr, closers: []io.Closer{release, fh}}, nil
	case LZ4:
		return &multiReadCloser{Reader: lz4.NewReader(br), closers: []io.Closer{fh}}, nil
	}
	return &multiReadCloser{Reader: br, closers: []io.Closer{fh}}, nil
}
