package document

import (
	"context"

	"variantshare/internal/correlate"
	"variantshare/internal/timefmt"
	"variantshare/internal/variant"
)

// Input is everything a builder consumes.
type Input struct {
	Variant  *variant.Variant
	Rows     []correlate.Row
	Metadata Metadata
	Mode     Mode
	// BaseName is the artifact file name without extension.
	BaseName string
	Dates    *timefmt.Formatter
}

// Builder renders one format.
type Builder interface {
	Format() Format
	Build(ctx context.Context, in Input) (*Artifact, error)
}

// Set dispatches builds to the builder registered for a format.
type Set struct {
	builders map[Format]Builder
}

// NewSet registers builders by their format. Later entries replace earlier ones.
func NewSet(builders ...Builder) *Set {
	s := &Set{builders: make(map[Format]Builder, len(builders))}
	for _, b := range builders {
		if b != nil {
			s.builders[b.Format()] = b
		}
	}
	return s
}

// Supports reports whether a builder exists for format.
func (s *Set) Supports(format Format) bool {
	_, ok := s.builders[format]
	return ok
}

// Build renders in with the builder registered for format.
func (s *Set) Build(ctx context.Context, format Format, in Input) (*Artifact, error) {
	b, ok := s.builders[format]
	if !ok {
		return nil, &BuildError{Format: format, Kind: KindUnsupportedFormat}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Build(ctx, in)
}

func (in Input) stepTimestamp(row correlate.Row) string {
	if row.Unresolved || in.Dates == nil {
		return ""
	}
	return in.Dates.Timestamp(row.Screenshot.Timestamp)
}

func (in Input) variantName() string {
	if in.Metadata.VariantName != "" {
		return in.Metadata.VariantName
	}
	if in.Variant != nil {
		return in.Variant.Name
	}
	return ""
}
