// Package rawfile opens ingest files transparently: compressed inputs are
// decompressed on the fly based on their filename extension, so loaders can
// accept .gz, .bz2, .xz, .zst or plain files interchangeably.
package rawfile

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Open returns a reader of the decompressed content of path. The
// compression format is chosen by extension: .gz, .bz2, .xz and .zst are
// decompressed, anything else is read as-is. Closing the returned reader
// closes the underlying file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		return &reader{r: zr, closers: []io.Closer{zr, f}}, nil

	case strings.HasSuffix(path, ".bz2"):
		return &reader{r: bzip2.NewReader(f), closers: []io.Closer{f}}, nil

	case strings.HasSuffix(path, ".xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open xz %s: %w", path, err)
		}
		return &reader{r: xr, closers: []io.Closer{f}}, nil

	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd %s: %w", path, err)
		}
		return &reader{r: zr, drop: zr.Close, closers: []io.Closer{f}}, nil

	default:
		return f, nil
	}
}

// reader decorates a decompressing stream so Close releases every layer.
type reader struct {
	r       io.Reader
	drop    func() // release hook without an error, e.g. zstd.Decoder.Close
	closers []io.Closer
}

func (r *reader) Read(p []byte) (int, error) { return r.r.Read(p) }

func (r *reader) Close() error {
	if r.drop != nil {
		r.drop()
	}
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
