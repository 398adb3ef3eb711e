// Package installer turns a resolved release asset into an installed binary.
//
// It downloads the asset into the working directory, unpacks it with the
// extractor registered for its content type, atomically replaces the binary in
// bin_path and removes the temporary archive and extraction directory. Cleanup
// is best effort: failures are logged and never fail the install.
package installer
