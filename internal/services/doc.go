// Package services defines shared utilities consumed by the export pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, artifact formats, variant IDs, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper and Kind classifier that
//     let the HTTP surface map failures onto status codes.
//
// The subpackages hold the clients for the out-of-process collaborators: the
// document generation service, the screenshot search index, and the mail
// backends.
package services
