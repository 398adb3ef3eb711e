// Package config loads the YAML file describing which GitHub-hosted tools to
// install and the directory that receives them.
//
// Load distinguishes a missing file (ErrConfigNotFound) from malformed YAML
// (ErrConfigParse). Save writes the same format back, so a loaded config can be
// round-tripped without changing bin_path or the order of commands.
package config
