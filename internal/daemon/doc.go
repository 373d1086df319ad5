// Package daemon coordinates the long-running variantshare process.
//
// It wires configuration, the user directory, the export pipeline and the
// dispatch client into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon owns the registry of export sessions, each
// driven by its own artifact.Manager, and tears every session down on stop so
// no preview handle outlives the process.
//
// Keep orchestration logic here: export steps should live in their respective
// packages while the daemon focuses on startup, shutdown, and the HTTP
// surface.
package daemon
