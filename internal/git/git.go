package git

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/go-git/go-billy/v5/osfs"
)

const upstreamURL = "https://github.com/stan-dev/cmdstan.git"

// RepoGit clones the upstream toolchain repo, used for development snapshots
// of refs that have no published release archive.
type RepoGit struct {
	*git.Repository
	*git.CloneOptions
}

// NewRepoGit prepares a clone of the upstream repo. An empty url means the
// default upstream.
func NewRepoGit(url string) (*RepoGit, error) {
	if url == "" {
		url = upstreamURL
	}

	return &RepoGit{
		CloneOptions: &git.CloneOptions{
			URL:               url,
			RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
		},
	}, nil
}

// SetDepth makes the clone shallow.
func (r *RepoGit) SetDepth(depth int) {
	r.CloneOptions.Depth = depth
}

// SetTag pins the clone to a release tag.
func (r *RepoGit) SetTag(tag string) {
	r.CloneOptions.ReferenceName = plumbing.NewTagReferenceName(tag)
	r.CloneOptions.SingleBranch = true
}

// SetBranch pins the clone to a branch, e.g. develop.
func (r *RepoGit) SetBranch(branch string) {
	r.CloneOptions.ReferenceName = plumbing.NewBranchReferenceName(branch)
	r.CloneOptions.SingleBranch = true
}

// Memory clones into memory, metadata-only use.
func (r *RepoGit) Memory(ctx context.Context) error {
	var err error
	r.Repository, err = git.CloneContext(ctx, memory.NewStorage(), nil, r.CloneOptions)
	return err
}

// Storage clones a working tree into path.
func (r *RepoGit) Storage(ctx context.Context, path string) error {
	wt := osfs.New(path)
	dot, err := wt.Chroot(git.GitDirName)
	if err != nil {
		return err
	}

	storer := filesystem.NewStorage(dot, cache.NewObjectLRUDefault())
	r.Repository, err = git.CloneContext(ctx, storer, wt, r.CloneOptions)
	return err
}

// Snapshot clones a shallow working tree of the given ref into path. Branch
// names and tags are both accepted, tags are tried first.
func Snapshot(ctx context.Context, path, ref string) error {
	repo, err := NewRepoGit("")
	if err != nil {
		return err
	}

	repo.SetDepth(1)
	repo.SetTag(ref)

	if err = repo.Storage(ctx, path); err == nil {
		return nil
	}

	repo, err = NewRepoGit("")
	if err != nil {
		return err
	}

	repo.SetDepth(1)
	repo.SetBranch(ref)

	if err = repo.Storage(ctx, path); err != nil {
		return fmt.Errorf("snapshot of %s failed: %w", ref, err)
	}
	return nil
}
