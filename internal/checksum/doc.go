// Package checksum fingerprints the raw bytes of a loaded source.
//
// A Digest is an io.Writer: tee the source file through it while loading and
// read the SHA-256 once the file has been consumed. The digest covers the file
// as stored on disk (compressed bytes for .gz/.zst/.xz/.bz2), so it matches
// `sha256sum` of the downloaded file.
//
// # Example Usage
//
//	digest := checksum.New()
//	src, err := source.Open(path, source.WithProgress(digest))
//	// ... drain src ...
//	fmt.Println(digest.Sum(), digest.Size())
//
// # Thread Safety
//
// Digest is NOT safe for concurrent use.
package checksum
