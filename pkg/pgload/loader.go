package pgload

import "context"

// BatchSource is a lazy, finite, non-restartable producer of raw batches.
//
// Iteration follows the scanner pattern:
//
//	for src.Next() {
//	    batch := src.Batch()
//	}
//	if err := src.Err(); err != nil {
//	    // read failure
//	}
type BatchSource interface {
	// Next reads the next batch. It returns false at the end of the source or on error.
	Next() bool

	// Batch returns the batch read by the last successful Next.
	Batch() RawBatch

	// Err returns the first read error, or nil at a clean end of input.
	Err() error

	// Close releases the underlying file and decompressor.
	Close() error
}

// SourceOpener opens a BatchSource over a local file.
type SourceOpener func(path string, chunkSize int) (BatchSource, error)

// Loader loads one tabular source into one table.
type Loader interface {
	Load(ctx context.Context, config LoadConfig) (*LoadResult, error)
}
