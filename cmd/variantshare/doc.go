// Package main hosts the variantshare CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the export daemon, performs one-shot
// exports of a variant file into a PDF, Word, PowerPoint or Excel artifact,
// maintains the user directory behind the lookup endpoint, and scaffolds
// configuration. It centralizes configuration resolution and logger setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
