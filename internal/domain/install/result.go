package install

import (
	"fmt"
	"strings"

	"github.com/oshokin/clitools/internal/domain/release"
)

// Status is the outcome of processing one tool.
type Status string

// Possible outcomes.
const (
	StatusInstalled                Status = "installed"
	StatusSkippedNoMatch           Status = "skipped_no_match"
	StatusSkippedUnsupportedFormat Status = "skipped_unsupported_format"
	StatusFailed                   Status = "failed"
)

// IsSkip reports whether the status is one of the skip variants.
func (s Status) IsSkip() bool {
	return s == StatusSkippedNoMatch || s == StatusSkippedUnsupportedFormat
}

// Result records what happened to one tool.
type Result struct {
	// Tool is the configured tool name.
	Tool string
	// Status is the outcome.
	Status Status
	// Asset is the selected asset, zero when none was resolved.
	Asset release.Asset
	// InstalledPath is the final binary location for installed tools.
	InstalledPath string
	// Err explains skips and failures.
	Err error
}

// Summary aggregates the results of one run in configuration order.
type Summary struct {
	Results []Result
}

// Add appends a result.
func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
}

// Installed counts installed tools.
func (s *Summary) Installed() int {
	return s.count(func(st Status) bool { return st == StatusInstalled })
}

// Skipped counts tools skipped for any reason.
func (s *Summary) Skipped() int {
	return s.count(Status.IsSkip)
}

// Failed counts failed tools.
func (s *Summary) Failed() int {
	return s.count(func(st Status) bool { return st == StatusFailed })
}

// HasFailures reports whether any tool failed.
func (s *Summary) HasFailures() bool {
	return s.Failed() > 0
}

// String renders a one-line summary followed by one line per non-installed tool.
func (s *Summary) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "installed: %d, skipped: %d, failed: %d", s.Installed(), s.Skipped(), s.Failed())

	for _, r := range s.Results {
		if r.Status == StatusInstalled {
			continue
		}

		fmt.Fprintf(&b, "\n  %s: %s", r.Tool, r.Status)

		if r.Err != nil {
			fmt.Fprintf(&b, " (%v)", r.Err)
		}
	}

	return b.String()
}

func (s *Summary) count(match func(Status) bool) int {
	n := 0

	for _, r := range s.Results {
		if match(r.Status) {
			n++
		}
	}

	return n
}
