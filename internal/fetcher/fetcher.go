// Package fetcher retrieves source data over HTTP and FTP and parses the
// CSV dumps it finds there.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote data. Callers that need the bytes on disk copy
// the stream themselves (see ingest.OpenSource).
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Open returns a reader for a source that may be a local file path, an
// http(s) URL, or an ftp URL.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	return OpenWith(ctx, source, HTTPOptions{})
}

// OpenWith is Open with explicit HTTP transfer options.
func OpenWith(ctx context.Context, source string, httpOpts HTTPOptions) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return NewHTTPFetcher(httpOpts).Download(ctx, source)
		case "ftp":
			return NewFTPFetcher(FTPOptions{}).Download(ctx, source)
		}
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", source)
	}
	return f, nil
}
