// Package updater implements the update_all operation.
//
// Every configured tool is resolved against its latest release and installed
// in file order. A tool that fails is recorded in the run summary and the run
// moves on to the next one; the caller gets ErrSomeToolsFailed only after all
// tools were attempted. A marker file in the working directory keeps two runs
// from sharing the same temporary files.
package updater
