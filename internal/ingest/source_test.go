package ingest

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psc-mapa/psc-cli/internal/fetcher"
)

func writeZipSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestOpenSourcePlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adresy.csv")
	require.NoError(t, os.WriteFile(path, []byte("a;b;c\n"), 0o644))

	r, err := OpenSource(context.Background(), path, fetcher.HTTPOptions{})
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a;b;c\n", string(data))
}

func TestOpenSourceZip(t *testing.T) {
	path := writeZipSource(t, "adresy.csv", "x;y;z\n")

	r, err := OpenSource(context.Background(), path, fetcher.HTTPOptions{})
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "x;y;z\n", string(data))

	// Closing cleans up the scratch directory.
	sr, ok := r.(*scratchReader)
	require.True(t, ok)
	require.NoError(t, r.Close())
	_, err = os.Stat(sr.dir)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenSourceMissing(t *testing.T) {
	_, err := OpenSource(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), fetcher.HTTPOptions{})
	require.Error(t, err)
}
