package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/clitools/internal/domain/release"
)

var errTestNotOnPath = errors.New("not on PATH")

// writeTarGz builds a tarball whose entries live under a top-level directory,
// the way release tarballs usually do.
func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, f.Close())
	}()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))

		_, err = tw.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, f.Close())
	}()

	zw := zip.NewWriter(f)

	for name, body := range files {
		w, createErr := zw.Create(name)
		require.NoError(t, createErr)

		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
}

func requireProgram(t *testing.T, program string) {
	t.Helper()

	if _, err := exec.LookPath(program); err != nil {
		t.Skipf("%s is not installed", program)
	}
}

// TestTarGz_StripsLeadingComponent extracts with the first path element removed.
func TestTarGz_StripsLeadingComponent(t *testing.T) {
	t.Parallel()
	requireProgram(t, "tar")

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "gh_2.40.0_linux_amd64.tar.gz")
	writeTarGz(t, archivePath, map[string]string{
		"gh_2.40.0_linux_amd64/gh":     "#!/bin/sh\necho gh\n",
		"gh_2.40.0_linux_amd64/bin/gh": "binary",
	})

	dest := filepath.Join(dir, "gh")
	require.NoError(t, NewTarGz().Extract(context.Background(), archivePath, dest))

	contents, err := os.ReadFile(filepath.Join(dest, "gh"))
	require.NoError(t, err)
	require.Equal(t, "#!/bin/sh\necho gh\n", string(contents))

	_, err = os.Stat(filepath.Join(dest, "bin", "gh"))
	require.NoError(t, err)
}

// TestTarGz_CorruptArchive surfaces the program failure as ErrExtract.
func TestTarGz_CorruptArchive(t *testing.T) {
	t.Parallel()
	requireProgram(t, "tar")

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "broken.tar.gz")
	require.NoError(t, os.WriteFile(archivePath, []byte("definitely not gzip"), 0o600))

	err := NewTarGz().Extract(context.Background(), archivePath, filepath.Join(dir, "broken"))
	require.ErrorIs(t, err, ErrExtract)
}

// TestZip_OverwritesExisting extracts into dest and replaces stale files.
func TestZip_OverwritesExisting(t *testing.T) {
	t.Parallel()
	requireProgram(t, "unzip")

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "tool.zip")
	writeZip(t, archivePath, map[string]string{"tool": "fresh"})

	dest := filepath.Join(dir, "tool")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "tool"), []byte("stale"), 0o600))

	require.NoError(t, NewZip().Extract(context.Background(), archivePath, dest))

	contents, err := os.ReadFile(filepath.Join(dest, "tool"))
	require.NoError(t, err)
	require.Equal(t, "fresh", string(contents))
}

// TestExtract_ProgramMissing reports ErrToolMissing without touching the filesystem.
func TestExtract_ProgramMissing(t *testing.T) {
	t.Parallel()

	e := &commandExtractor{
		program:    "no-such-tar",
		args:       func(a, d string) []string { return []string{a, d} },
		createDest: true,
		lookPath: func(string) (string, error) {
			return "", errTestNotOnPath
		},
	}

	dest := filepath.Join(t.TempDir(), "out")

	err := e.Extract(context.Background(), "archive.tar.gz", dest)
	require.ErrorIs(t, err, ErrToolMissing)

	_, err = os.Stat(dest)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestArgumentShapes pins the exact command lines.
func TestArgumentShapes(t *testing.T) {
	t.Parallel()

	zipExtractor, ok := NewZip().(*commandExtractor)
	require.True(t, ok)
	require.Equal(t, "unzip", zipExtractor.program)
	require.Equal(t, []string{"-d", "gh", "-o", "gh.zip"}, zipExtractor.args("gh.zip", "gh"))
	require.False(t, zipExtractor.createDest)

	tarExtractor, ok := NewTarGz().(*commandExtractor)
	require.True(t, ok)
	require.Equal(t, "tar", tarExtractor.program)
	require.Equal(t,
		[]string{"-mxvf", "gh.tar.gz", "-C", "gh", "--strip-components", "1"},
		tarExtractor.args("gh.tar.gz", "gh"))
	require.True(t, tarExtractor.createDest)
}

// TestRegistry resolves the two default content types and rejects others.
func TestRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()

	for _, contentType := range []string{release.ContentTypeZip, release.ContentTypeGzip} {
		e, err := r.For(contentType)
		require.NoError(t, err)
		require.NotNil(t, e)
	}

	_, err := r.For("application/x-rpm")
	require.ErrorIs(t, err, ErrUnsupportedContentType)

	r.Register("application/x-rpm", NewZip())

	_, err = r.For("application/x-rpm")
	require.NoError(t, err)
}
