package document

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a build failure.
type ErrorKind string

const (
	KindRemoteGenerationFailed ErrorKind = "RemoteGenerationFailed"
	KindDocumentAssemblyFailed ErrorKind = "DocumentAssemblyFailed"
	KindMissingScreenshot      ErrorKind = "MissingScreenshot"
	KindSerializationFailed    ErrorKind = "SerializationFailed"
	KindUnsupportedFormat      ErrorKind = "UnsupportedFormat"
)

// BuildError reports a failed build for one format. StepIndex is the 1-based
// step number for step-specific failures and zero otherwise.
type BuildError struct {
	Format    Format
	Kind      ErrorKind
	StepIndex int
	Err       error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "build %s: %s", e.Format, e.Kind)
	if e.StepIndex > 0 {
		fmt.Fprintf(&b, " at step %d", e.StepIndex)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *BuildError) Unwrap() error { return e.Err }

// ErrorKind maps the failure onto the shared classification used by the API.
func (e *BuildError) ErrorKind() string {
	switch e.Kind {
	case KindRemoteGenerationFailed:
		return "external"
	case KindUnsupportedFormat:
		return "validation"
	default:
		return "build"
	}
}

func missingScreenshot(format Format, step int, err error) *BuildError {
	return &BuildError{Format: format, Kind: KindMissingScreenshot, StepIndex: step, Err: err}
}
