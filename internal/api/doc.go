// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal session, artifact and user models into
// transport-friendly DTOs that the web client and the CLI can render without
// coupling to internal types.
//
// # Key Types
//
// Session: export session view with lifecycle state, artifact details,
// preview URL and the last ingestion report.
//
// GenerateRequest/SendRequest: bodies accepted by the session actions.
//
// ErrorResponse: the `{"error":{"message"}}` envelope every failure uses.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (artifact.State, document.Format) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds.
package api
