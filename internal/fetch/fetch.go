// Package fetch downloads a remote dataset to a local file before it is loaded.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// DefaultTimeout bounds a single download when no client is supplied.
// The load itself is bounded separately by the caller's context.
const DefaultTimeout = 30 * time.Minute

// baseName is the local file name downloads are stored under.
// Tab-separated datasets keep tsvBaseName so the source splits on tabs.
const (
	baseName    = "output.csv"
	tsvBaseName = "output.tsv"
)

// compressedSuffixes are kept on the local file so the source detects the encoding.
var compressedSuffixes = []string{".gz", ".zst", ".zstd", ".xz", ".bz2"}

// ProgressFunc returns a writer that receives every downloaded byte.
// size is the Content-Length, or -1 when the server does not send one.
type ProgressFunc func(size int64) io.Writer

// Fetcher turns a source location into a local path.
type Fetcher struct {
	client   *http.Client
	progress ProgressFunc
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithProgress reports download progress.
func WithProgress(p ProgressFunc) Option {
	return func(f *Fetcher) { f.progress = p }
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{client: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		panic("http client cannot be nil")
	}
	return f
}

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	lower := strings.ToLower(src)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// LocalName returns the file name a download of rawURL is stored under:
// output.csv (output.tsv for .tsv URLs), plus the URL's compression suffix when it has one.
func LocalName(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	p = strings.ToLower(p)

	suffix := ""
	ext := path.Ext(p)
	for _, s := range compressedSuffixes {
		if ext == s {
			suffix = ext
			p = strings.TrimSuffix(p, ext)
			break
		}
	}

	if path.Ext(p) == ".tsv" {
		return tsvBaseName + suffix
	}
	return baseName + suffix
}

// Fetch returns a local path for src. Local paths are returned unchanged.
// URLs are downloaded into dir, replacing any previous download of the same name.
// All failures are *pgload.SourceError.
func (f *Fetcher) Fetch(ctx context.Context, src, dir string) (string, error) {
	if !IsRemote(src) {
		return src, nil
	}

	if dir == "" {
		dir = "."
	}
	dest := filepath.Join(dir, LocalName(src))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", &pgload.SourceError{Location: src, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &pgload.SourceError{Location: src, Err: fmt.Errorf("failed to download file: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &pgload.SourceError{Location: src, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	if err := f.save(resp, dest); err != nil {
		return "", &pgload.SourceError{Location: src, Err: err}
	}
	return dest, nil
}

// save streams the body to a temporary file next to dest and renames it into place,
// so an interrupted download never leaves a truncated file under the final name.
func (f *Fetcher) save(resp *http.Response, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".pgload-download-*")
	if err != nil {
		return fmt.Errorf("failed to create download file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	var w io.Writer = tmp
	if f.progress != nil {
		if pw := f.progress(resp.ContentLength); pw != nil {
			w = io.MultiWriter(tmp, pw)
		}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write download: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("failed to store download: %w", err)
	}
	return nil
}
