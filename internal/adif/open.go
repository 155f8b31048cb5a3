package adif

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// =============================================================================
// File Operations
// =============================================================================

// MmapFile memory-maps a file for zero-copy reading.
// Returns the mapped data and file handle (must call UnmapFile when done).
func MmapFile(path string) ([]byte, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.Size() == 0 {
		return nil, f, nil
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(info.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("mmap failed: %w", err)
	}

	return data, f, nil
}

// UnmapFile releases mmap resources.
func UnmapFile(data []byte, f *os.File) error {
	var err error
	if data != nil {
		err = syscall.Munmap(data)
	}
	if f != nil {
		err = multierr.Append(err, f.Close())
	}
	return err
}

type mmapReader struct {
	*bytes.Reader
	data []byte
	f    *os.File
}

func (m *mmapReader) Close() error {
	return UnmapFile(m.data, m.f)
}

type stackedCloser struct {
	io.Reader
	closers []func() error
}

func (s *stackedCloser) Close() error {
	var err error
	for _, c := range s.closers {
		err = multierr.Append(err, c())
	}
	return err
}

// Open returns a reader over an ADIF log. Compression is chosen by
// extension: .gz (parallel gzip), .zst/.zstd, otherwise the file is mmapped.
func Open(path string) (io.ReadCloser, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".gz":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		gz, err := pgzip.NewReaderN(f, 256*1024, runtime.NumCPU())
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return &stackedCloser{Reader: gz, closers: []func() error{gz.Close, f.Close}}, nil

	case ".zst", ".zstd":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		return &stackedCloser{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
			f.Close,
		}}, nil

	default:
		data, f, err := MmapFile(path)
		if err != nil {
			return nil, err
		}
		return &mmapReader{Reader: bytes.NewReader(data), data: data, f: f}, nil
	}
}

// Load opens path and extracts every record.
func Load(path string, log *zap.SugaredLogger) ([]Fields, ParseStats, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()

	return ReadAll(rc, log)
}
