package updater

import (
	"context"
	"errors"

	"github.com/oshokin/clitools/internal/archive"
	"github.com/oshokin/clitools/internal/config"
	"github.com/oshokin/clitools/internal/domain/install"
	"github.com/oshokin/clitools/internal/domain/release"
	"github.com/oshokin/clitools/internal/github"
	"github.com/oshokin/clitools/internal/logger"
)

// Resolver finds the asset to install for a tool.
type Resolver interface {
	Resolve(ctx context.Context, org, repository, binPartName string) (release.Asset, error)
}

// Installer installs a resolved asset into binPath.
type Installer interface {
	Install(ctx context.Context, asset release.Asset, tool config.Tool, binPath string) (string, error)
}

// UpdateAll processes every tool of cfg in order and returns one result per tool.
// Failures are isolated per tool; only context cancellation stops the loop early,
// in which case the remaining tools are reported as failed.
func UpdateAll(ctx context.Context, cfg *config.Config, resolver Resolver, installer Installer) *install.Summary {
	summary := &install.Summary{
		Results: make([]install.Result, 0, len(cfg.Commands)),
	}

	for _, tool := range cfg.Commands {
		if err := ctx.Err(); err != nil {
			summary.Add(install.Result{Tool: tool.Name, Status: install.StatusFailed, Err: err})
			continue
		}

		toolCtx := logger.WithKV(ctx, "tool", tool.Name)
		result := updateOne(toolCtx, cfg.BinPath, tool, resolver, installer)
		summary.Add(result)
	}

	return summary
}

func updateOne(ctx context.Context, binPath string, tool config.Tool, resolver Resolver, installer Installer) install.Result {
	result := install.Result{Tool: tool.Name}

	asset, err := resolver.Resolve(ctx, tool.Org, tool.Repository, tool.BinPartName)

	switch {
	case errors.Is(err, github.ErrNoMatchingAsset):
		logger.WarnKV(ctx, "No asset matches, maybe the latest GitHub release is not set", "reason", err)

		result.Status = install.StatusSkippedNoMatch
		result.Err = err

		return result
	case err != nil:
		logger.ErrorKV(ctx, "Resolving release failed", "error", err)

		result.Status = install.StatusFailed
		result.Err = err

		return result
	}

	result.Asset = asset

	installedPath, err := installer.Install(ctx, asset, tool, binPath)

	switch {
	case errors.Is(err, archive.ErrUnsupportedContentType):
		logger.WarnKV(ctx, "Skipping asset with unsupported format", "asset", asset.Name, "reason", err)

		result.Status = install.StatusSkippedUnsupportedFormat
		result.Err = err
	case err != nil:
		logger.ErrorKV(ctx, "Installing failed", "asset", asset.Name, "error", err)

		result.Status = install.StatusFailed
		result.Err = err
	default:
		logger.InfoKV(ctx, "Installed", "path", installedPath)

		result.Status = install.StatusInstalled
		result.InstalledPath = installedPath
	}

	return result
}
