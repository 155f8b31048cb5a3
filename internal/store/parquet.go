package store

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/multierr"
)

// readChunk is the number of rows decoded per GenericReader.Read call
const readChunk = 1000

// WriteParquet writes rows to w as a single Parquet file.
func WriteParquet(w io.Writer, rows []Row) error {
	pw := parquet.NewGenericWriter[Row](w)
	if _, err := pw.Write(rows); err != nil {
		return multierr.Append(fmt.Errorf("write parquet rows: %w", err), pw.Close())
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteParquetFile creates path and writes rows to it.
func WriteParquetFile(path string, rows []Row) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return WriteParquet(f, rows)
}

// ReadParquet streams rows from a Parquet file to fn in chunks. The slice
// passed to fn is reused between calls.
func ReadParquet(r io.ReaderAt, size int64, fn func([]Row) error) (int, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return 0, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	buf := make([]Row, readChunk)
	total := 0
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			total += n
			if ferr := fn(buf[:n]); ferr != nil {
				return total, ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("read parquet: %w", err)
		}
		if n == 0 {
			return total, nil
		}
	}
}

// ReadParquetFile loads every row of a Parquet file.
func ReadParquetFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var rows []Row
	_, err = ReadParquet(f, info.Size(), func(chunk []Row) error {
		rows = append(rows, chunk...)
		return nil
	})
	return rows, err
}
