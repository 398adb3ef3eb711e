package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/clitools/internal/config"
	"github.com/oshokin/clitools/internal/logger"
	"github.com/oshokin/clitools/internal/version"
)

const (
	// MarkerFilename marks that update_all is running in this working directory.
	MarkerFilename = "clitools-update.marker"

	// markerLifetime is the period after which a marker is considered stale.
	markerLifetime = 10 * time.Minute

	// commNameLimit is how many bytes of an executable name the kernel reports on Linux.
	commNameLimit = 15
)

// marker is the run lock held for the duration of one update_all run.
type marker struct {
	path string
}

// acquireMarker creates the marker in dir unless a live run of executable holds it.
// The file is created exclusively, so two runs racing for it cannot both win.
func acquireMarker(ctx context.Context, dir, executable string) (*marker, error) {
	path := filepath.Join(dir, MarkerFilename)

	// A stale marker is removed by the first check, the second attempt takes its place.
	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, config.DefaultFilePermissions)
		if err == nil {
			return writeMarker(file)
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create update marker: %w", err)
		}

		if isHeldByAnotherRun(ctx, path, executable) {
			return nil, fmt.Errorf("%w: remove %s if this is wrong", ErrAlreadyRunning, path)
		}
	}

	return nil, fmt.Errorf("%w: %s keeps reappearing", ErrAlreadyRunning, path)
}

func writeMarker(file *os.File) (*marker, error) {
	path := file.Name()

	_, err := file.WriteString(strconv.Itoa(os.Getpid()))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write update marker: %w", err)
	}

	return &marker{path: path}, nil
}

// release removes the marker.
func (m *marker) release(ctx context.Context) {
	if m == nil {
		return
	}

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove update marker", "path", m.path, "error", err)
	}
}

// isHeldByAnotherRun reports whether path is a fresh marker written by a live
// process running executable. Stale markers are removed.
func isHeldByAnotherRun(ctx context.Context, path, executable string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	if err != nil {
		logger.WarnKV(ctx, "Unable to read update marker", "path", path, "error", err)
		return false
	}

	if time.Since(info.ModTime()) <= markerLifetime {
		contents, readErr := os.ReadFile(filepath.Clean(path))
		if readErr == nil && strings.TrimSpace(string(contents)) == "" {
			// Another run has created the file and is about to write its pid.
			return true
		}

		if process := markerOwner(contents, executable); process != nil {
			logger.DebugKV(ctx, "Update marker is held",
				"pid", process.Pid(), "executable", process.Executable())

			return true
		}
	}

	logger.InfoKV(ctx, "Removing stale update marker", "path", path)

	if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Unable to remove stale update marker", "path", path, "error", err)
		return true
	}

	return false
}

// markerOwner returns the live process recorded in the marker contents when it
// runs executable or clitools, or nil. A reused pid belonging to another program is not an owner.
//
//nolint:ireturn // go-ps only exposes the Process interface.
func markerOwner(contents []byte, executable string) ps.Process {
	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return nil
	}

	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return nil
	}

	name := process.Executable()
	if !sameExecutable(name, executable) && !sameExecutable(name, version.Name) {
		return nil
	}

	return process
}

// sameExecutable compares a go-ps executable name with want, allowing for the
// kernel truncating long names.
func sameExecutable(got, want string) bool {
	if got == "" || want == "" {
		return false
	}

	if got == want {
		return true
	}

	return len(got) == commNameLimit && strings.HasPrefix(want, got)
}

// currentExecutable is the name other runs of this program show up under.
func currentExecutable() string {
	path, err := os.Executable()
	if err != nil {
		return version.Name
	}

	return filepath.Base(path)
}
