// Package variant models the recorded process variants that get exported:
// the ordered step graph, aggregate run counters, and the screenshot records
// retrieved from the search index.
//
// Untyped documents (search hits, uploaded variant payloads) are converted to
// these nominal types at the ingestion boundary. Malformed records are
// rejected there instead of flowing into the document builders.
package variant
