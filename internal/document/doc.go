// Package document renders correlated variant steps into shareable files.
//
// Four builders exist, one per Format. PDF rendering is delegated to the
// remote document generation service; Word, PowerPoint and Excel files are
// assembled in memory. Every builder either returns a complete Artifact or a
// *BuildError naming the format and, where relevant, the offending step.
package document
