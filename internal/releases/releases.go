package releases

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/blang/semver"
)

const (
	defaultAPIBase      = "https://api.github.com/repos/stan-dev/cmdstan"
	defaultDownloadBase = "https://github.com/stan-dev/cmdstan/releases/download"
)

const requestTimeout = 30 * time.Second

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	Size               int    `json:"size"`
	ContentType        string `json:"content_type"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release is one published release on the release host.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Version returns the release version without the leading tag prefix.
func (r *Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

type OptsFunc func(*Client)

type Client struct {
	apiBase      string
	downloadBase string
	token        string
	httpClient   *http.Client
}

// WithAPIBase overrides the release API base URL.
func WithAPIBase(base string) OptsFunc {
	return func(c *Client) {
		c.apiBase = strings.TrimSuffix(base, "/")
	}
}

// WithDownloadBase overrides the archive download base URL.
func WithDownloadBase(base string) OptsFunc {
	return func(c *Client) {
		c.downloadBase = strings.TrimSuffix(base, "/")
	}
}

// WithToken sets the bearer token for API calls.
func WithToken(token string) OptsFunc {
	return func(c *Client) {
		c.token = token
	}
}

func WithHTTPClient(httpClient *http.Client) OptsFunc {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a release-host client. GITHUB_TOKEN is picked up from the
// environment when no token option is given.
func NewClient(opts ...OptsFunc) *Client {
	c := &Client{
		apiBase:      defaultAPIBase,
		downloadBase: defaultDownloadBase,
		token:        os.Getenv("GITHUB_TOKEN"),
		httpClient:   &http.Client{Timeout: requestTimeout},
	}

	for _, fn := range opts {
		fn(c)
	}
	return c
}

// ArchiveName returns the release archive filename for a version.
func ArchiveName(version string) string {
	return fmt.Sprintf("cmdstan-%s.tar.gz", version)
}

// ArchiveURL returns the full download URL of the release archive for a version.
func (c *Client) ArchiveURL(version string) string {
	return fmt.Sprintf("%s/v%s/%s", c.downloadBase, version, ArchiveName(version))
}

// IsVersionAvailable reports whether the release host exposes an archive for
// the given version. Absence is not an error, it is reported as false.
func (c *Client) IsVersionAvailable(ctx context.Context, version string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.ArchiveURL(version), nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func(Body io.ReadCloser) {
		if err = Body.Close(); err != nil {
			fmt.Println(err)
		}
	}(resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// LatestVersion returns the newest published version, without the tag prefix.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	var rel Release
	if err := c.getJSON(ctx, fmt.Sprintf("%s/releases/latest", c.apiBase), &rel); err != nil {
		return "", err
	}

	version := rel.Version()
	if version == "" {
		return "", fmt.Errorf("latest release has an empty tag")
	}
	return version, nil
}

// ListReleases returns all published releases, newest first.
func (c *Client) ListReleases(ctx context.Context) ([]Release, error) {
	var rels []Release
	if err := c.getJSON(ctx, fmt.Sprintf("%s/releases?per_page=100", c.apiBase), &rels); err != nil {
		return nil, err
	}

	sort.Slice(rels, func(i, j int) bool {
		verI, errI := semver.ParseTolerant(rels[i].Version())
		verJ, errJ := semver.ParseTolerant(rels[j].Version())
		if errI != nil || errJ != nil {
			return rels[i].PublishedAt.After(rels[j].PublishedAt)
		}
		return verI.GT(verJ)
	})
	return rels, nil
}

// ListVersions returns all published version strings, newest first.
func (c *Client) ListVersions(ctx context.Context) ([]string, error) {
	rels, err := c.ListReleases(ctx)
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(rels))
	for i := range rels {
		versions = append(versions, rels[i].Version())
	}
	return versions, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func(Body io.ReadCloser) {
		if err = Body.Close(); err != nil {
			fmt.Println(err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("release api request failed: %s, status code: %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
