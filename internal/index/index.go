package index

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/blang/semver"
	"github.com/jmoiron/sqlx"

	"github.com/inovacc/stanup/internal/releases"
	"github.com/inovacc/stanup/internal/util"
)

const (
	createReleasesQuery  = `CREATE TABLE IF NOT EXISTS cmdstan_releases (id INTEGER PRIMARY KEY AUTOINCREMENT, tag TEXT NOT NULL UNIQUE, version TEXT NOT NULL, prerelease BOOLEAN NOT NULL, published_at TIMESTAMP, archive_url TEXT NOT NULL, created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP);`
	createInstallsQuery  = `CREATE TABLE IF NOT EXISTS cmdstan_installs (id INTEGER PRIMARY KEY AUTOINCREMENT, run_id TEXT NOT NULL, version TEXT NOT NULL, path TEXT NOT NULL, sha256 TEXT NOT NULL, duration_ms INTEGER NOT NULL, created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP);`
	insertReleaseQuery   = `INSERT OR IGNORE INTO cmdstan_releases (tag, version, prerelease, published_at, archive_url) VALUES (?, ?, ?, ?, ?);`
	insertInstallQuery   = `INSERT INTO cmdstan_installs (run_id, version, path, sha256, duration_ms) VALUES (?, ?, ?, ?, ?);`
	findAllQuery         = `SELECT tag, version, prerelease, published_at, archive_url FROM cmdstan_releases;`
	findByVersionQuery   = `SELECT tag, version, prerelease, published_at, archive_url FROM cmdstan_releases WHERE version = ?;`
	findInstallsQuery    = `SELECT run_id, version, path, sha256, duration_ms FROM cmdstan_installs ORDER BY id DESC;`
	deleteInstallByVer   = `DELETE FROM cmdstan_installs WHERE version = ?;`
	countByVersionsQuery = `SELECT COUNT(1) FROM cmdstan_releases WHERE version = ?;`
)

// ErrNotIndexed is returned when a version has no row in the local index.
var ErrNotIndexed = errors.New("version not present in the local index")

type Row struct {
	Tag         string `db:"tag" json:"tag"`
	Version     string `db:"version" json:"version"`
	Prerelease  bool   `db:"prerelease" json:"prerelease"`
	PublishedAt string `db:"published_at" json:"published_at"`
	ArchiveURL  string `db:"archive_url" json:"archive_url"`
}

type InstallRow struct {
	RunID      string `db:"run_id" json:"run_id"`
	Version    string `db:"version" json:"version"`
	Path       string `db:"path" json:"path"`
	Sha256     string `db:"sha256" json:"sha256"`
	DurationMs int64  `db:"duration_ms" json:"duration_ms"`
}

type Index struct {
	db *sqlx.DB
}

// NewIndex prepares the local release index tables.
func NewIndex(ctx context.Context, db *sqlx.DB) (*Index, error) {
	x := &Index{db: db}

	if _, err := db.ExecContext(ctx, createReleasesQuery); err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, createInstallsQuery); err != nil {
		return nil, err
	}

	return x, nil
}

// SaveReleases records release metadata, already-known tags are skipped.
func (x *Index) SaveReleases(ctx context.Context, rels []releases.Release) error {
	tx, err := x.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	for i := range rels {
		rel := rels[i]

		archiveURL := ""
		for _, asset := range rel.Assets {
			if asset.Name == releases.ArchiveName(rel.Version()) {
				archiveURL = asset.BrowserDownloadURL
				break
			}
		}

		if _, err = tx.ExecContext(ctx, insertReleaseQuery, rel.TagName, rel.Version(), rel.Prerelease, rel.PublishedAt.Format(time.RFC3339), archiveURL); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// All returns every indexed release, newest first.
func (x *Index) All(ctx context.Context) ([]Row, error) {
	var rows []Row
	if err := x.db.SelectContext(ctx, &rows, findAllQuery); err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		verI, errI := semver.ParseTolerant(rows[i].Version)
		verJ, errJ := semver.ParseTolerant(rows[j].Version)
		if errI != nil || errJ != nil {
			// RFC3339 sorts lexicographically
			return rows[i].PublishedAt > rows[j].PublishedAt
		}
		return verI.GT(verJ)
	})
	return rows, nil
}

// Latest returns the newest indexed release, optionally skipping prereleases.
func (x *Index) Latest(ctx context.Context, stableOnly bool) (*Row, error) {
	rows, err := x.All(ctx)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		if stableOnly && rows[i].Prerelease {
			continue
		}
		return &rows[i], nil
	}
	return nil, ErrNotIndexed
}

// ByVersion returns the indexed release for a version.
func (x *Index) ByVersion(ctx context.Context, version string) (*Row, error) {
	var row Row
	if err := x.db.GetContext(ctx, &row, findByVersionQuery, version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotIndexed
		}
		return nil, err
	}
	return &row, nil
}

// Has reports whether a version is present in the local index.
func (x *Index) Has(ctx context.Context, version string) (bool, error) {
	var count int
	if err := x.db.GetContext(ctx, &count, countByVersionsQuery, version); err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordInstall writes one finished install run.
func (x *Index) RecordInstall(ctx context.Context, version, path, sha256 string, took time.Duration) (string, error) {
	runID := util.GetID()
	if _, err := x.db.ExecContext(ctx, insertInstallQuery, runID, version, path, sha256, took.Milliseconds()); err != nil {
		return "", err
	}
	return runID, nil
}

// Installs returns recorded install runs, newest first.
func (x *Index) Installs(ctx context.Context) ([]InstallRow, error) {
	var rows []InstallRow
	if err := x.db.SelectContext(ctx, &rows, findInstallsQuery); err != nil {
		return nil, err
	}
	return rows, nil
}

// ForgetInstall drops install records for a version.
func (x *Index) ForgetInstall(ctx context.Context, version string) error {
	_, err := x.db.ExecContext(ctx, deleteInstallByVer, version)
	return err
}
