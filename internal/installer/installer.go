package installer

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/inovacc/stanup/internal/downloader"
	"github.com/inovacc/stanup/internal/index"
)

const installPrefix = "cmdstan-"

const (
	defaultBuildTimeout = 30 * time.Minute
	makeCommand         = "make"
	makeBuildTarget     = "build"
)

type OptsFunc func(*Installer)

type Installer struct {
	ctx          context.Context
	fs           afero.Fs
	home         string
	cores        int
	buildTimeout time.Duration
	dl           *downloader.Downloader
	idx          *index.Index
}

// WithCores sets the number of parallel make jobs.
func WithCores(cores int) OptsFunc {
	return func(i *Installer) {
		if cores > 0 {
			i.cores = cores
		}
	}
}

func WithBuildTimeout(timeout time.Duration) OptsFunc {
	return func(i *Installer) {
		i.buildTimeout = timeout
	}
}

func WithFs(fs afero.Fs) OptsFunc {
	return func(i *Installer) {
		i.fs = fs
	}
}

// NewInstaller creates an Installer rooted at the install home. The index may
// be nil, install runs are then not recorded.
func NewInstaller(ctx context.Context, home string, dl *downloader.Downloader, idx *index.Index, opts ...OptsFunc) (*Installer, error) {
	if home == "" {
		return nil, fmt.Errorf("install home is empty")
	}

	i := &Installer{
		ctx:          ctx,
		fs:           afero.NewOsFs(),
		home:         home,
		cores:        1,
		buildTimeout: defaultBuildTimeout,
		dl:           dl,
		idx:          idx,
	}

	for _, fn := range opts {
		fn(i)
	}

	if err := i.fs.MkdirAll(home, 0o755); err != nil {
		return nil, err
	}
	return i, nil
}

// VersionDir returns the install dir for a version.
func (i *Installer) VersionDir(version string) string {
	return filepath.Join(i.home, installPrefix+version)
}

// Install retrieves, extracts and builds a released version under the install
// home. An existing valid install is a no-op unless overwrite is set.
func (i *Installer) Install(version string, overwrite bool) error {
	dir := i.VersionDir(version)

	if !overwrite && ValidateInstall(i.fs, dir) {
		slog.Info("version already installed", "version", version, "dir", dir)
		return nil
	}

	start := time.Now()

	tmpDir, err := afero.TempDir(i.fs, "", "stanup-dl")
	if err != nil {
		return err
	}
	defer func(afs afero.Fs, path string) {
		if err = afs.RemoveAll(path); err != nil {
			slog.Error(err.Error())
		}
	}(i.fs, tmpDir)

	archive, digest, err := i.dl.RetrieveVersion(i.ctx, version, tmpDir)
	if err != nil {
		return err
	}

	if err = i.fs.RemoveAll(dir); err != nil {
		return err
	}

	if err = i.Extract(archive, i.home); err != nil {
		return err
	}

	if err = i.Build(dir); err != nil {
		return err
	}

	if !ValidateInstall(i.fs, dir) {
		return fmt.Errorf("install of %s finished but %s is not a valid toolchain dir", version, dir)
	}

	if i.idx != nil {
		runID, err := i.idx.RecordInstall(i.ctx, version, dir, digest, time.Since(start))
		if err != nil {
			return err
		}
		slog.Info("install recorded", "version", version, "runId", runID)
	}

	slog.Info("installed", "version", version, "dir", dir, "took", time.Since(start).String())
	return nil
}

// Extract unpacks a tar.gz archive into dest. Entries escaping dest are rejected.
func (i *Installer) Extract(archive, dest string) error {
	f, err := i.fs.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("error reading archive %s: %w", archive, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dest, filepath.Clean(hdr.Name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err = i.fs.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err = i.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}

			out, err := i.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}

			if _, err = io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}

			if err = out.Close(); err != nil {
				return err
			}
		default:
			// symlinks and the rest are not part of release archives
			continue
		}
	}
}

// Build runs `make build` in the toolchain dir with a bounded timeout.
func (i *Installer) Build(dir string) error {
	ctxTimeout, cancel := context.WithTimeout(i.ctx, i.buildTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctxTimeout, makeCommand, makeBuildTarget, fmt.Sprintf("-j%d", i.cores))
	cmd.Dir = dir

	slog.Info("building toolchain", "dir", dir, "jobs", i.cores)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("make build failed in %s: %w: %s", dir, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Installed lists versions present under the install home, newest first.
func (i *Installer) Installed() ([]string, error) {
	entries, err := afero.ReadDir(i.fs, i.home)
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), installPrefix) {
			continue
		}
		versions = append(versions, strings.TrimPrefix(entry.Name(), installPrefix))
	}
	return sortVersionsDesc(versions), nil
}

// LatestInstalled returns the newest stable installed version.
func (i *Installer) LatestInstalled() (string, error) {
	versions, err := i.Installed()
	if err != nil {
		return "", err
	}

	stable := FilterAndSortStableVersions(versions)
	if len(stable) == 0 {
		return "", fmt.Errorf("no stable version installed under %s", i.home)
	}
	return stable[0], nil
}

// Uninstall removes one installed version.
func (i *Installer) Uninstall(version string) error {
	dir := i.VersionDir(version)

	ok, err := afero.DirExists(i.fs, dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("version %s is not installed under %s", version, i.home)
	}

	if err = i.fs.RemoveAll(dir); err != nil {
		return err
	}

	if i.idx != nil {
		return i.idx.ForgetInstall(i.ctx, version)
	}
	return nil
}

// CleanAll removes every installed version, collecting per-version failures.
func (i *Installer) CleanAll() error {
	versions, err := i.Installed()
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, version := range versions {
		if err = i.Uninstall(version); err != nil {
			result = multierror.Append(result, fmt.Errorf("clean %s: %w", version, err))
		}
	}
	return result.ErrorOrNil()
}

// ValidateInstall reports whether dir looks like a built toolchain: the
// makefile must exist alongside the stanc binary.
func ValidateInstall(fs afero.Fs, dir string) bool {
	if ok, err := afero.DirExists(fs, dir); err != nil || !ok {
		return false
	}

	if ok, err := afero.Exists(fs, filepath.Join(dir, "makefile")); err != nil || !ok {
		return false
	}

	stanc := filepath.Join(dir, "bin", "stanc")
	if runtime.GOOS == "windows" {
		stanc += ".exe"
	}

	ok, err := afero.Exists(fs, stanc)
	return err == nil && ok
}

// FilterAndSortStableVersions drops prereleases and sorts newest first.
func FilterAndSortStableVersions(versions []string) []string {
	var stableVersions []*semver.Version
	for _, v := range versions {
		ver, err := semver.NewVersion(strings.TrimPrefix(v, "v"))
		if err != nil {
			continue
		}
		if ver.Prerelease() == "" {
			stableVersions = append(stableVersions, ver)
		}
	}

	sort.Slice(stableVersions, func(i, j int) bool {
		return stableVersions[i].GreaterThan(stableVersions[j])
	})

	var result = make([]string, 0)
	for _, v := range stableVersions {
		result = append(result, v.String())
	}
	return result
}

func sortVersionsDesc(versions []string) []string {
	parsed := make([]*semver.Version, 0, len(versions))
	var rest []string
	for _, v := range versions {
		ver, err := semver.NewVersion(v)
		if err != nil {
			rest = append(rest, v)
			continue
		}
		parsed = append(parsed, ver)
	}

	sort.Slice(parsed, func(i, j int) bool {
		return parsed[i].GreaterThan(parsed[j])
	})

	out := make([]string, 0, len(versions))
	for _, v := range parsed {
		out = append(out, v.Original())
	}
	return append(out, rest...)
}
