// Package install describes the outcome of processing each configured tool
// and aggregates those outcomes into a run summary.
package install
