// Package release holds the subset of GitHub release metadata the installer
// needs: the release tag and its downloadable assets.
package release
