// Package correlate joins a variant's ordered steps with the screenshot
// records fetched from the search index.
//
// The output is one Row per step in execution order. A step whose screenshot
// reference cannot be resolved still yields a row, flagged Unresolved; the
// document builders decide whether that is fatal. The key lookup index is
// cached and reused for as long as the record set is unchanged.
package correlate
