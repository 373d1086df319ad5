// Package exporter wires the export pipeline: screenshot records are fetched
// for a variant, correlated with its steps, summarised into metadata and
// handed to the builder for the requested format.
//
// A Job binds the pipeline to one variant and is the generator driven by the
// artifact lifecycle manager.
package exporter
