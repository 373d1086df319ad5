// Package artifact owns the per-session export lifecycle.
//
// A Manager drives one artifact through Idle, Generating, Previewable, Sent
// and Failed. At most one generation runs at a time; a second request while
// Generating is rejected with ErrBusy rather than queued. PDF artifacts are
// published through a preview Registry as revocable handles, and every
// transition away from Previewable releases the handle through a single
// discard path so repeated generate/preview cycles never accumulate live
// handles.
package artifact
