package install

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	errTestNoAsset = errors.New("no asset")
	errTestBoom    = errors.New("boom")
)

// TestSummary_Counts verifies aggregation by status.
func TestSummary_Counts(t *testing.T) {
	t.Parallel()

	var s Summary

	require.False(t, s.HasFailures())
	require.Equal(t, "installed: 0, skipped: 0, failed: 0", s.String())

	s.Add(Result{Tool: "gh", Status: StatusInstalled, InstalledPath: "/tmp/bin/gh"})
	s.Add(Result{Tool: "rg", Status: StatusSkippedNoMatch, Err: errTestNoAsset})
	s.Add(Result{Tool: "jq", Status: StatusSkippedUnsupportedFormat})
	s.Add(Result{Tool: "fd", Status: StatusFailed, Err: errTestBoom})

	require.Equal(t, 1, s.Installed())
	require.Equal(t, 2, s.Skipped())
	require.Equal(t, 1, s.Failed())
	require.True(t, s.HasFailures())

	out := s.String()
	require.Contains(t, out, "installed: 1, skipped: 2, failed: 1")
	require.Contains(t, out, "rg: skipped_no_match (no asset)")
	require.Contains(t, out, "jq: skipped_unsupported_format")
	require.Contains(t, out, "fd: failed (boom)")
	require.NotContains(t, out, "gh:")
}

// TestStatus_IsSkip separates skips from installs and failures.
func TestStatus_IsSkip(t *testing.T) {
	t.Parallel()

	require.True(t, StatusSkippedNoMatch.IsSkip())
	require.True(t, StatusSkippedUnsupportedFormat.IsSkip())
	require.False(t, StatusInstalled.IsSkip())
	require.False(t, StatusFailed.IsSkip())
}
