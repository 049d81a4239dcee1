package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/pgload/pkg/pgload"
)

const utf8BOM = "\ufeff"

// CSVSource reads a CSV file (tab-separated for .tsv) with a header row as a sequence of raw batches.
// The whole file is never held in memory: at most one batch of records is
// buffered at a time.
//
// Thread-Safety: NOT safe for concurrent use.
type CSVSource struct {
	path        string
	chunkSize   int
	compression Compression

	file      *os.File
	closeDec  func() error
	reader    *csv.Reader
	header    []string
	current   pgload.RawBatch
	nextIndex int
	err       error
	done      bool
}

// Option configures a CSVSource.
type Option func(*options)

type options struct {
	chunkSize   int
	progress    io.Writer
	compression *Compression
}

// WithChunkSize sets the maximum number of records per batch.
func WithChunkSize(n int) Option {
	return func(o *options) { o.chunkSize = n }
}

// WithProgress copies every byte read from disk to w (before decompression).
// Use with a byte progress bar sized to the file.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// WithCompression overrides extension and magic-byte detection.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = &c }
}

// Open opens path and reads its header. Compression is taken from the extension,
// falling back to the file's magic bytes for unknown extensions.
// All failures are *pgload.SourceError.
func Open(path string, opts ...Option) (*CSVSource, error) {
	o := options{chunkSize: pgload.DefaultChunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chunkSize <= 0 {
		return nil, &pgload.SourceError{Location: path, Err: fmt.Errorf("chunk size must be positive, got %d", o.chunkSize)}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &pgload.SourceError{Location: path, Err: err}
	}

	var raw io.Reader = f
	if o.progress != nil {
		raw = io.TeeReader(f, o.progress)
	}
	buffered := bufio.NewReaderSize(raw, 64*1024)

	compression, known := CompressionFromPath(path)
	if o.compression != nil {
		compression = *o.compression
	} else if !known {
		compression = sniffCompression(buffered)
	}

	decoded, closeDec, err := decompress(buffered, compression)
	if err != nil {
		f.Close()
		return nil, &pgload.SourceError{Location: path, Err: err}
	}

	s := &CSVSource{
		path:        path,
		chunkSize:   o.chunkSize,
		compression: compression,
		file:        f,
		closeDec:    closeDec,
		reader:      newCSVReader(decoded, delimiterFromPath(path)),
	}

	if err := s.readHeader(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// NewOpener adapts Open to pgload.SourceOpener with extra options.
func NewOpener(opts ...Option) pgload.SourceOpener {
	return func(path string, chunkSize int) (pgload.BatchSource, error) {
		all := append([]Option{WithChunkSize(chunkSize)}, opts...)
		return Open(path, all...)
	}
}

func newCSVReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = 0 // fixed by the header
	return cr
}

func (s *CSVSource) readHeader() error {
	header, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &pgload.SourceError{Location: s.path, Err: fmt.Errorf("no header row: %w", pgload.ErrEmptySource)}
		}
		return s.wrapReadErr(err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	if err := validateColumnNames(header); err != nil {
		return &pgload.SourceError{Location: s.path, Line: 1, Err: err}
	}

	s.header = header
	return nil
}

func validateColumnNames(header []string) error {
	seen := make(map[string]int, len(header))
	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("column %d has an empty name", i+1)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("duplicate column name %q (columns %d and %d)", name, prev+1, i+1)
		}
		seen[name] = i
	}
	return nil
}

// Header returns the column names in file order.
func (s *CSVSource) Header() []string {
	return s.header
}

// Compression returns the detected encoding of the file.
func (s *CSVSource) Compression() Compression {
	return s.compression
}

// Next reads up to chunkSize records into the current batch.
// It returns false when the source is exhausted or a read fails; check Err.
func (s *CSVSource) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	records := make([][]string, 0, min(s.chunkSize, 4096))
	for len(records) < s.chunkSize {
		rec, err := s.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				break
			}
			s.err = s.wrapReadErr(err)
			return false
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return false
	}

	s.current = pgload.RawBatch{
		Index:   s.nextIndex,
		Header:  s.header,
		Records: records,
	}
	s.nextIndex++
	return true
}

// Batch returns the batch read by the last successful Next.
func (s *CSVSource) Batch() pgload.RawBatch {
	return s.current
}

// Err returns the first read error.
func (s *CSVSource) Err() error {
	return s.err
}

// Close releases the decoder and the file. Safe to call multiple times.
func (s *CSVSource) Close() error {
	var errs []error
	if s.closeDec != nil {
		errs = append(errs, s.closeDec())
		s.closeDec = nil
	}
	if s.file != nil {
		errs = append(errs, s.file.Close())
		s.file = nil
	}
	return errors.Join(errs...)
}

func (s *CSVSource) wrapReadErr(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &pgload.SourceError{Location: s.path, Line: parseErr.Line, Err: err}
	}
	return &pgload.SourceError{Location: s.path, Err: err}
}

var _ pgload.BatchSource = (*CSVSource)(nil)
