package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes which tools to install and where.
type Config struct {
	// BinPath is the directory receiving installed binaries.
	BinPath string `yaml:"bin_path"`
	// Commands lists the tools in installation order.
	Commands []Tool `yaml:"commands"`
	// APIURL is the base URL of the release API.
	APIURL string `yaml:"api_url,omitempty"`
	// UserAgent overrides the User-Agent header sent with every request.
	UserAgent string `yaml:"user_agent,omitempty"`
	// Timeout bounds each HTTP request (API call or asset download).
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Tool identifies one external tool published as a GitHub release.
type Tool struct {
	// Name is the installed binary name and the extraction directory name.
	Name string `yaml:"name"`
	// Org is the GitHub organisation or user owning the repository.
	Org string `yaml:"org"`
	// Repository is the GitHub repository name.
	Repository string `yaml:"repository"`
	// BinPartName is a substring picking the asset from the release.
	BinPartName string `yaml:"bin_part_name"`
	// ArchiveBinPath is the binary location inside the extraction directory.
	// Empty means Name, i.e. <name>/<name> after extraction.
	ArchiveBinPath string `yaml:"archive_bin_path,omitempty"`
}

// BinaryPathInArchive returns the binary location relative to the extraction directory.
func (t *Tool) BinaryPathInArchive() string {
	if t.ArchiveBinPath == "" {
		return t.Name
	}

	return filepath.FromSlash(t.ArchiveBinPath)
}

const (
	// DefaultConfigFilename is the config file read from the working directory.
	DefaultConfigFilename = "sample.yml"

	// DefaultAPIURL is the public GitHub REST API.
	DefaultAPIURL = "https://api.github.com"

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 5 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// ErrConfigNotFound is returned when the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrConfigParse is returned when the config file is not valid YAML.
	ErrConfigParse = errors.New("parse config")

	errConfigIsNotSet   = errors.New("configuration is not set")
	errBinPathRequired  = errors.New("bin_path must be provided")
	errToolFieldMissing = errors.New("tool field must be provided")
	errUnsafePath       = errors.New("path must stay inside its directory")
	errDuplicateTool    = errors.New("duplicate tool name")
)

// Load reads configuration from path, fills defaults and validates its structure.
// bin_path existence is not checked here.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}

		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrConfigParse, path, err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.BinPath) == "" {
		return errBinPathRequired
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return fmt.Errorf("invalid api_url: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	seen := make(map[string]struct{}, len(cfg.Commands))

	for i := range cfg.Commands {
		tool := &cfg.Commands[i]
		if err := validateTool(tool); err != nil {
			return fmt.Errorf("commands[%d]: %w", i, err)
		}

		if _, found := seen[tool.Name]; found {
			return fmt.Errorf("commands[%d] %s: %w", i, tool.Name, errDuplicateTool)
		}

		seen[tool.Name] = struct{}{}
	}

	return nil
}

func validateTool(tool *Tool) error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", tool.Name},
		{"org", tool.Org},
		{"repository", tool.Repository},
		{"bin_part_name", tool.BinPartName},
	}

	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s: %w", field.name, errToolFieldMissing)
		}
	}

	// The name becomes both a directory in the working directory and a file in bin_path.
	if tool.Name != filepath.Base(tool.Name) || tool.Name == "." || tool.Name == ".." {
		return fmt.Errorf("name %q: %w", tool.Name, errUnsafePath)
	}

	if tool.ArchiveBinPath != "" && !filepath.IsLocal(filepath.FromSlash(tool.ArchiveBinPath)) {
		return fmt.Errorf("archive_bin_path %q: %w", tool.ArchiveBinPath, errUnsafePath)
	}

	return nil
}
