package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/oshokin/clitools/internal/domain/release"
	"github.com/oshokin/clitools/internal/logger"
)

var (
	// ErrUnsupportedContentType is returned for content types without an extractor.
	ErrUnsupportedContentType = errors.New("unsupported archive content type")
	// ErrToolMissing is returned when the extraction program is not on PATH.
	ErrToolMissing = errors.New("extraction program not found")
	// ErrExtract is returned when the extraction program fails.
	ErrExtract = errors.New("extract archive")
)

// dirPermissions is used for extraction directories.
const dirPermissions = 0o755

// Extractor unpacks an archive file into a directory.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// commandExtractor runs an external program with a fixed argument shape.
type commandExtractor struct {
	// program is looked up on PATH before every run.
	program string
	// args builds the argument list for one archive.
	args func(archivePath, destDir string) []string
	// createDest makes destDir before running the program.
	createDest bool
	// lookPath resolves program; exec.LookPath unless replaced in tests.
	lookPath func(file string) (string, error)
}

// NewZip returns an extractor running `unzip -d <dest> -o <archive>`.
// Existing files in dest are overwritten.
//
//nolint:ireturn // Callers only need the behaviour.
func NewZip() Extractor {
	return &commandExtractor{
		program: "unzip",
		args: func(archivePath, destDir string) []string {
			return []string{"-d", destDir, "-o", archivePath}
		},
		lookPath: exec.LookPath,
	}
}

// NewTarGz returns an extractor creating dest and running
// `tar -mxvf <archive> -C <dest> --strip-components 1`.
//
//nolint:ireturn // Callers only need the behaviour.
func NewTarGz() Extractor {
	return &commandExtractor{
		program: "tar",
		args: func(archivePath, destDir string) []string {
			return []string{"-mxvf", archivePath, "-C", destDir, "--strip-components", "1"}
		},
		createDest: true,
		lookPath:   exec.LookPath,
	}
}

// Extract runs the program and wraps its output into the error on failure.
func (e *commandExtractor) Extract(ctx context.Context, archivePath, destDir string) error {
	programPath, err := e.lookPath(e.program)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolMissing, e.program, err)
	}

	if e.createDest {
		if err = os.MkdirAll(destDir, dirPermissions); err != nil {
			return fmt.Errorf("%w: create %s: %w", ErrExtract, destDir, err)
		}
	}

	args := e.args(archivePath, destDir)
	logger.DebugKV(ctx, "Running extractor", "program", programPath, "args", args)

	output, err := exec.CommandContext(ctx, programPath, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w: %s",
			ErrExtract, e.program, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}

	return nil
}

// Registry maps asset content types to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]Extractor),
	}
}

// DefaultRegistry handles the two content types release assets are expected to use.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(release.ContentTypeZip, NewZip())
	r.Register(release.ContentTypeGzip, NewTarGz())

	return r
}

// Register binds contentType to e, replacing any previous binding.
func (r *Registry) Register(contentType string, e Extractor) {
	r.extractors[contentType] = e
}

// For returns the extractor for contentType or ErrUnsupportedContentType.
//
//nolint:ireturn // Callers only need the behaviour.
func (r *Registry) For(contentType string) (Extractor, error) {
	e, ok := r.extractors[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	return e, nil
}
