package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/clitools/internal/archive"
	"github.com/oshokin/clitools/internal/config"
	"github.com/oshokin/clitools/internal/domain/release"
	"github.com/oshokin/clitools/internal/logger"
	"github.com/oshokin/clitools/internal/version"
)

var (
	// ErrDownload is returned when the asset body cannot be fetched.
	ErrDownload = errors.New("download asset")
	// ErrWrite is returned when the downloaded asset cannot be written locally.
	ErrWrite = errors.New("write asset")
	// ErrBinaryNotFound is returned when extraction did not produce the expected binary.
	ErrBinaryNotFound = errors.New("binary not found after extraction")
	// ErrInstallMove is returned when the binary cannot be placed into bin_path.
	ErrInstallMove = errors.New("install binary")
	// ErrCleanup is logged when temporary files cannot be removed.
	ErrCleanup = errors.New("remove temporary files")

	errBadAssetName = errors.New("asset name is not a plain file name")
)

const (
	// BinaryFileMode is the mode of installed binaries.
	BinaryFileMode os.FileMode = 0o755
	// archiveFileMode is the mode of downloaded archives.
	archiveFileMode os.FileMode = 0o644
)

// Extractors picks an extractor for a content type.
type Extractors interface {
	For(contentType string) (archive.Extractor, error)
}

// Installer downloads, extracts and installs release assets.
type Installer struct {
	// httpClient downloads assets.
	httpClient *http.Client
	// extractors unpack downloaded archives.
	extractors Extractors
	// workDir receives the archive and the extraction directory.
	workDir string
	// userAgent is sent with download requests.
	userAgent string
	// timeout bounds a single download.
	timeout time.Duration
}

// Option configures an Installer.
type Option func(*Installer)

// WithHTTPClient replaces the download client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(i *Installer) {
		if httpClient != nil {
			i.httpClient = httpClient
		}
	}
}

// WithExtractors replaces the content type to extractor mapping.
func WithExtractors(extractors Extractors) Option {
	return func(i *Installer) {
		if extractors != nil {
			i.extractors = extractors
		}
	}
}

// WithWorkDir sets where temporary archives and extraction directories go.
func WithWorkDir(dir string) Option {
	return func(i *Installer) {
		if dir != "" {
			i.workDir = dir
		}
	}
}

// WithUserAgent overrides the User-Agent header of downloads.
func WithUserAgent(userAgent string) Option {
	return func(i *Installer) {
		if userAgent != "" {
			i.userAgent = userAgent
		}
	}
}

// WithTimeout bounds each download.
func WithTimeout(timeout time.Duration) Option {
	return func(i *Installer) {
		if timeout > 0 {
			i.timeout = timeout
		}
	}
}

// New creates an Installer working in the current directory with the
// system unzip and tar extractors.
func New(opts ...Option) *Installer {
	i := &Installer{
		httpClient: http.DefaultClient,
		extractors: archive.DefaultRegistry(),
		workDir:    ".",
		userAgent:  version.UserAgent(),
		timeout:    config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Install puts the binary from asset into binPath under the tool name and
// returns its path. Unsupported content types fail with
// archive.ErrUnsupportedContentType before anything is downloaded.
func (i *Installer) Install(ctx context.Context, asset release.Asset, tool config.Tool, binPath string) (string, error) {
	extractor, err := i.extractors.For(asset.ContentType)
	if err != nil {
		return "", err
	}

	archiveName := filepath.Base(asset.Name)
	if asset.Name == "" || archiveName != asset.Name || archiveName == "." || archiveName == ".." {
		return "", fmt.Errorf("%w: %w: %q", ErrWrite, errBadAssetName, asset.Name)
	}

	var (
		archivePath = filepath.Join(i.workDir, archiveName)
		extractDir  = filepath.Join(i.workDir, tool.Name)
		targetPath  = filepath.Join(binPath, tool.Name)
	)

	applyOptions := goupdate.Options{
		TargetPath: targetPath,
		TargetMode: BinaryFileMode,
	}

	if err = applyOptions.CheckPermissions(); err != nil {
		return "", fmt.Errorf("%w: %s is not writable: %w", ErrInstallMove, binPath, err)
	}

	logger.InfoKV(ctx, "Downloading asset", "url", asset.DownloadURL, "path", archivePath)

	if err = i.download(ctx, asset.DownloadURL, archivePath); err != nil {
		return "", err
	}

	defer func() {
		_ = i.cleanup(ctx, archivePath)
	}()

	logger.InfoKV(ctx, "Extracting archive", "archive", archivePath, "dir", extractDir)

	// Only what this install extracted is removed, a download failure leaves workDir untouched.
	defer func() {
		_ = i.cleanup(ctx, extractDir)
	}()

	if err = extractor.Extract(ctx, archivePath, extractDir); err != nil {
		return "", err
	}

	binaryPath := filepath.Join(extractDir, tool.BinaryPathInArchive())

	info, err := os.Stat(binaryPath)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: expected %s", ErrBinaryNotFound, binaryPath)
	}

	logger.InfoKV(ctx, "Installing binary", "from", binaryPath, "to", targetPath)

	if err = apply(binaryPath, applyOptions); err != nil {
		return "", err
	}

	return targetPath, nil
}

// download streams url into path.
func (i *Installer) download(ctx context.Context, url, path string) error {
	downloadCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	req.Header.Set("User-Agent", i.userAgent)

	response, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: %s", ErrDownload, url, response.Status)
	}

	output, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, archiveFileMode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if _, err = io.Copy(output, response.Body); err != nil {
		_ = output.Close()
		_ = os.Remove(path)

		if downloadCtx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrDownload, err)
		}

		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err = output.Close(); err != nil {
		_ = os.Remove(path)

		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

// apply replaces opts.TargetPath with the file at binaryPath. go-update writes
// a sibling file and renames it over the target, so an interrupted install
// never leaves a truncated binary behind.
func apply(binaryPath string, opts goupdate.Options) error {
	binary, err := os.Open(filepath.Clean(binaryPath))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInstallMove, err)
	}

	defer func() {
		_ = binary.Close()
	}()

	// go-update renames the current target aside first, so a fresh install needs a placeholder.
	placeholder := false

	if _, err = os.Stat(opts.TargetPath); errors.Is(err, os.ErrNotExist) {
		var file *os.File

		file, err = os.OpenFile(opts.TargetPath, os.O_CREATE|os.O_WRONLY, opts.TargetMode)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInstallMove, err)
		}

		_ = file.Close()
		placeholder = true
	}

	if err = goupdate.Apply(binary, opts); err != nil {
		if rollbackErr := goupdate.RollbackError(err); rollbackErr != nil {
			err = errors.Join(err, rollbackErr)
		}

		if placeholder {
			_ = os.Remove(opts.TargetPath)
		}

		return fmt.Errorf("%w: %w", ErrInstallMove, err)
	}

	return nil
}

// cleanup removes the given temporary paths. Missing paths are fine.
// Failures are logged and returned for callers that care.
func (i *Installer) cleanup(ctx context.Context, paths ...string) error {
	var errs []error

	for _, path := range paths {
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrCleanup, err))
		}
	}

	for _, err := range errs {
		logger.WarnKV(ctx, "Temporary files left behind", "error", err)
	}

	return errors.Join(errs...)
}
