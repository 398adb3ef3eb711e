// Package github resolves the latest release of a repository through the
// GitHub REST API and picks the asset matching a name fragment.
//
// Only the anonymous `GET /repos/{org}/{repo}/releases/latest` endpoint is used.
package github
