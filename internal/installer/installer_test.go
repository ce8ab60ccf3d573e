package installer

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tarEntry struct {
	name string
	body string
	dir  bool
}

func buildArchive(t *testing.T, dir string, entries []tarEntry) string {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o755}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	path := filepath.Join(dir, "cmdstan-2.24.1.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newTestInstaller(t *testing.T) *Installer {
	t.Helper()

	inst, err := NewInstaller(context.Background(), t.TempDir(), nil, nil)
	require.NoError(t, err)
	return inst
}

func TestExtract(t *testing.T) {
	inst := newTestInstaller(t)

	archive := buildArchive(t, t.TempDir(), []tarEntry{
		{name: "cmdstan-2.24.1/", dir: true},
		{name: "cmdstan-2.24.1/makefile", body: "build:\n"},
		{name: "cmdstan-2.24.1/src/main.cpp", body: "int main() {}\n"},
	})

	require.NoError(t, inst.Extract(archive, inst.home))

	data, err := os.ReadFile(filepath.Join(inst.VersionDir("2.24.1"), "makefile"))
	require.NoError(t, err)
	assert.Equal(t, "build:\n", string(data))

	ok, err := afero.Exists(inst.fs, filepath.Join(inst.VersionDir("2.24.1"), "src", "main.cpp"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	inst := newTestInstaller(t)

	archive := buildArchive(t, t.TempDir(), []tarEntry{
		{name: "../evil.txt", body: "nope"},
	})

	err := inst.Extract(archive, inst.home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes destination")
}

func TestValidateInstall(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/home/.cmdstan/cmdstan-2.24.1"

	assert.False(t, ValidateInstall(fs, dir))

	require.NoError(t, fs.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "makefile"), []byte("build:\n"), 0o644))
	assert.False(t, ValidateInstall(fs, dir))

	stanc := filepath.Join(dir, "bin", "stanc")
	require.NoError(t, afero.WriteFile(fs, stanc, []byte{}, 0o755))
	if got := ValidateInstall(fs, dir); !got {
		// windows probes bin/stanc.exe instead
		require.NoError(t, afero.WriteFile(fs, stanc+".exe", []byte{}, 0o755))
		assert.True(t, ValidateInstall(fs, dir))
	}
}

func TestInstalledAndUninstall(t *testing.T) {
	inst := newTestInstaller(t)

	for _, v := range []string{"2.23.0", "2.36.0", "2.24.0-rc1"} {
		require.NoError(t, inst.fs.MkdirAll(inst.VersionDir(v), 0o755))
	}

	versions, err := inst.Installed()
	require.NoError(t, err)
	assert.Equal(t, []string{"2.36.0", "2.24.0-rc1", "2.23.0"}, versions)

	latest, err := inst.LatestInstalled()
	require.NoError(t, err)
	assert.Equal(t, "2.36.0", latest)

	require.NoError(t, inst.Uninstall("2.36.0"))

	versions, err = inst.Installed()
	require.NoError(t, err)
	assert.Equal(t, []string{"2.24.0-rc1", "2.23.0"}, versions)

	err = inst.Uninstall("2.36.0")
	assert.Error(t, err)
}

func TestCleanAll(t *testing.T) {
	inst := newTestInstaller(t)

	for _, v := range []string{"2.23.0", "2.24.1"} {
		require.NoError(t, inst.fs.MkdirAll(inst.VersionDir(v), 0o755))
	}

	require.NoError(t, inst.CleanAll())

	versions, err := inst.Installed()
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestFilterAndSortStableVersions(t *testing.T) {
	got := FilterAndSortStableVersions([]string{
		"2.23.0",
		"2.24.0-rc1",
		"2.36.0",
		"not-a-version",
		"v2.24.1",
	})

	assert.Equal(t, []string{"2.36.0", "2.24.1", "2.23.0"}, got)
}
