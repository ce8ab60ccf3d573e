package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepoGit(t *testing.T) {
	repo, err := NewRepoGit("")
	require.NoError(t, err)
	require.NotNil(t, repo)

	assert.Equal(t, upstreamURL, repo.CloneOptions.URL)

	repo.SetDepth(1)
	assert.Equal(t, 1, repo.CloneOptions.Depth)

	repo.SetTag("v2.24.1")
	assert.Equal(t, "refs/tags/v2.24.1", repo.CloneOptions.ReferenceName.String())
	assert.True(t, repo.CloneOptions.SingleBranch)

	repo.SetBranch("develop")
	assert.Equal(t, "refs/heads/develop", repo.CloneOptions.ReferenceName.String())
}
