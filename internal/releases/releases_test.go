package releases

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHost(t *testing.T) *Client {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tag_name":"v2.36.0","name":"CmdStan 2.36.0","prerelease":false,"published_at":"2026-01-15T12:00:00Z"}`))
	})

	mux.HandleFunc("/api/releases", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"tag_name":"v2.24.0-rc1","prerelease":true,"published_at":"2020-07-10T12:00:00Z"},
			{"tag_name":"v2.36.0","prerelease":false,"published_at":"2026-01-15T12:00:00Z"},
			{"tag_name":"v2.24.1","prerelease":false,"published_at":"2020-08-01T12:00:00Z"}
		]`))
	})

	mux.HandleFunc("/dl/v2.24.1/cmdstan-2.24.1.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/dl/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewClient(
		WithAPIBase(server.URL+"/api"),
		WithDownloadBase(server.URL+"/dl"),
		WithToken(""),
	)
}

func TestIsVersionAvailable(t *testing.T) {
	client := newTestHost(t)

	assert.True(t, client.IsVersionAvailable(context.Background(), "2.24.1"))
	assert.False(t, client.IsVersionAvailable(context.Background(), "2.222.222-rc222"))
}

func TestLatestVersion(t *testing.T) {
	client := newTestHost(t)

	version, err := client.LatestVersion(context.Background())
	require.NoError(t, err)

	// examples of known previous versions: 2.24-rc1, 2.23.0
	nums := strings.Split(version, ".")
	require.GreaterOrEqual(t, len(nums), 2)
	assert.True(t, unicode.IsDigit(rune(nums[0][0])))
	assert.True(t, unicode.IsDigit(rune(nums[1][0])))
}

func TestListVersions(t *testing.T) {
	client := newTestHost(t)

	versions, err := client.ListVersions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"2.36.0", "2.24.1", "2.24.0-rc1"}, versions)
}

func TestArchiveURL(t *testing.T) {
	client := NewClient(WithToken(""))

	assert.Equal(t,
		"https://github.com/stan-dev/cmdstan/releases/download/v2.24.1/cmdstan-2.24.1.tar.gz",
		client.ArchiveURL("2.24.1"))
	assert.Equal(t, "cmdstan-2.24.1.tar.gz", ArchiveName("2.24.1"))
}
