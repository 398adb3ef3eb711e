package updater

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/clitools/internal/config"
	"github.com/oshokin/clitools/internal/domain/install"
	"github.com/oshokin/clitools/internal/github"
	"github.com/oshokin/clitools/internal/logger"
	"github.com/oshokin/clitools/internal/service/installer"
)

var (
	// ErrSomeToolsFailed is returned after a run in which at least one tool failed.
	ErrSomeToolsFailed = errors.New("some tools failed to install")
	// ErrAlreadyRunning is returned when another run holds the update marker.
	ErrAlreadyRunning = errors.New("update_all is already running")

	errBinPathNotDirectory = errors.New("bin_path is not a directory")
)

// Options are inputs accepted by the update_all entry point.
type Options struct {
	// ConfigPath is the path to the YAML config; empty means config.DefaultConfigFilename.
	ConfigPath string
	// WorkDir receives downloaded archives and extraction directories; empty means ".".
	WorkDir string
	// Extractors overrides the system unzip/tar extractors.
	Extractors installer.Extractors
}

// Run loads the config, installs every tool and returns the run summary.
// The summary is nil only when the run could not start.
func Run(ctx context.Context, opts *Options) (*install.Summary, error) {
	ctx = logger.WithName(ctx, "update_all")

	if opts == nil {
		opts = new(Options)
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err = ensureDirectory(cfg.BinPath); err != nil {
		return nil, err
	}

	lock, err := acquireMarker(ctx, workDir, currentExecutable())
	if err != nil {
		return nil, err
	}

	defer lock.release(ctx)

	resolver := github.NewClient(
		github.WithBaseURL(cfg.APIURL),
		github.WithUserAgent(cfg.UserAgent),
		github.WithCallTimeout(cfg.Timeout),
	)

	toolInstaller := installer.New(
		installer.WithWorkDir(workDir),
		installer.WithUserAgent(cfg.UserAgent),
		installer.WithTimeout(cfg.Timeout),
		installer.WithExtractors(opts.Extractors),
	)

	logger.InfoKV(ctx, "Updating tools", "count", len(cfg.Commands), "bin_path", cfg.BinPath)

	summary := UpdateAll(ctx, cfg, resolver, toolInstaller)

	logger.InfoKV(ctx, "Update finished",
		"installed", summary.Installed(), "skipped", summary.Skipped(), "failed", summary.Failed())

	if summary.HasFailures() {
		return summary, fmt.Errorf("%w: %d of %d", ErrSomeToolsFailed, summary.Failed(), len(summary.Results))
	}

	return summary, nil
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errBinPathNotDirectory, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", errBinPathNotDirectory, path)
	}

	return nil
}
