package release

import "strings"

// Content types an asset may be published with.
const (
	ContentTypeZip  = "application/zip"
	ContentTypeGzip = "application/gzip"
)

// Asset is one file attached to a release.
type Asset struct {
	// Name is the file name of the asset.
	Name string `json:"name"`
	// DownloadURL is where the asset body is served from.
	DownloadURL string `json:"browser_download_url"`
	// ContentType is the media type declared by the uploader.
	ContentType string `json:"content_type"`
	// Size is the asset size in bytes as reported by the API.
	Size int64 `json:"size,omitempty"`
}

// Release is the latest release of a repository.
type Release struct {
	// TagName is the git tag the release was cut from.
	TagName string `json:"tag_name"`
	// Assets are listed in API response order.
	Assets []Asset `json:"assets"`
}

// MatchingAssets returns, in API order, the assets whose download URL contains fragment.
func (r *Release) MatchingAssets(fragment string) []Asset {
	var matches []Asset

	for _, asset := range r.Assets {
		if strings.Contains(asset.DownloadURL, fragment) {
			matches = append(matches, asset)
		}
	}

	return matches
}
