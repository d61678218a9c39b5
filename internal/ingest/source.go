package ingest

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/psc-mapa/psc-cli/internal/fetcher"
)

// OpenSource resolves a source argument to a CSV reader. Remote sources are
// downloaded; .zip sources are downloaded to a scratch directory and the
// single archived file is used.
func OpenSource(ctx context.Context, source string, httpOpts fetcher.HTTPOptions) (io.ReadCloser, error) {
	if !strings.HasSuffix(strings.ToLower(source), ".zip") {
		return fetcher.OpenWith(ctx, source, httpOpts)
	}

	tmpDir, err := os.MkdirTemp("", "psc-ingest-*")
	if err != nil {
		return nil, eris.Wrap(err, "ingest: scratch dir")
	}

	archive := source
	if strings.Contains(source, "://") {
		rc, err := fetcher.OpenWith(ctx, source, httpOpts)
		if err != nil {
			os.RemoveAll(tmpDir)
			return nil, err
		}
		defer rc.Close()

		archive = tmpDir + "/source.zip"
		out, err := os.Create(archive)
		if err != nil {
			os.RemoveAll(tmpDir)
			return nil, eris.Wrap(err, "ingest: create archive file")
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			os.RemoveAll(tmpDir)
			return nil, eris.Wrap(err, "ingest: download archive")
		}
		out.Close()
	}

	extracted, err := fetcher.ExtractZIPSingle(archive, tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, err
	}
	zap.L().Info("archive extracted", zap.String("file", extracted))

	f, err := os.Open(extracted)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, eris.Wrapf(err, "ingest: open %s", extracted)
	}
	return &scratchReader{File: f, dir: tmpDir}, nil
}

// scratchReader removes the scratch directory when the reader is closed.
type scratchReader struct {
	*os.File
	dir string
}

func (s *scratchReader) Close() error {
	err := s.File.Close()
	os.RemoveAll(s.dir)
	return err
}
