package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMatchingAssets keeps API order and matches on the download URL only.
func TestMatchingAssets(t *testing.T) {
	t.Parallel()

	r := &Release{
		TagName: "v2.40.0",
		Assets: []Asset{
			{Name: "gh_2.40.0_linux_amd64.tar.gz", DownloadURL: "https://example.com/gh_2.40.0_linux_amd64.tar.gz"},
			{Name: "gh_2.40.0_linux_arm64.tar.gz", DownloadURL: "https://example.com/gh_2.40.0_linux_arm64.tar.gz"},
			{Name: "linux_amd64.rpm", DownloadURL: "https://example.com/gh_2.40.0_linux_amd64.rpm"},
			{Name: "gh_2.40.0_linux_amd64.tar.gz.sig", DownloadURL: "https://example.com/gh_2.40.0_linux_amd64.tar.gz.sig"},
		},
	}

	matches := r.MatchingAssets("linux_amd64.tar.gz")
	require.Len(t, matches, 2)
	require.Equal(t, "gh_2.40.0_linux_amd64.tar.gz", matches[0].Name)
	require.Equal(t, "gh_2.40.0_linux_amd64.tar.gz.sig", matches[1].Name)

	require.Empty(t, r.MatchingAssets("windows"))
	require.Empty(t, (&Release{}).MatchingAssets("anything"))
}
