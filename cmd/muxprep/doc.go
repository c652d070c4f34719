// Package main hosts the muxprep CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and presets once, then hands
// off to the internal packages: `run` walks the input directory through the
// workflow processor, `plan` and `probe` inspect single files, `history`
// reads the SQLite history, `check` runs preflight, and `config` scaffolds
// and validates configuration files.
//
// Keep this package lean: add functionality to the internal packages first
// and surface it here through commands or flags.
package main
