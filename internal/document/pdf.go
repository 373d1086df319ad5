package document

import (
	"context"
	"errors"
	"strings"

	"variantshare/internal/services/docgen"
)

// Renderer is the remote generation service.
type Renderer interface {
	Generate(ctx context.Context, req docgen.Request) (docgen.Document, error)
}

// PDFBuilder delegates rendering to the document generation service.
type PDFBuilder struct {
	renderer     Renderer
	repositoryID string
}

// NewPDFBuilder returns a builder that requests PDFs for repositoryID.
func NewPDFBuilder(renderer Renderer, repositoryID string) *PDFBuilder {
	return &PDFBuilder{renderer: renderer, repositoryID: strings.TrimSpace(repositoryID)}
}

// Format implements Builder.
func (b *PDFBuilder) Format() Format { return FormatPDF }

// Build implements Builder. Unresolved screenshots are the service's concern.
func (b *PDFBuilder) Build(ctx context.Context, in Input) (*Artifact, error) {
	if b.renderer == nil {
		return nil, &BuildError{Format: FormatPDF, Kind: KindRemoteGenerationFailed, Err: errors.New("no renderer configured")}
	}
	if in.Variant == nil {
		return nil, &BuildError{Format: FormatPDF, Kind: KindRemoteGenerationFailed, Err: errors.New("variant required")}
	}
	doc, err := b.renderer.Generate(ctx, docgen.Request{
		VariantID:    in.Variant.ID,
		ProcessID:    in.Variant.Process.ID,
		Format:       string(FormatPDF),
		RepositoryID: b.repositoryID,
	})
	if err != nil {
		return nil, &BuildError{Format: FormatPDF, Kind: KindRemoteGenerationFailed, Err: err}
	}
	if len(doc.Data) == 0 {
		return nil, &BuildError{Format: FormatPDF, Kind: KindRemoteGenerationFailed, Err: errors.New("empty document")}
	}
	return newArtifact(FormatPDF, in.BaseName, doc.Data), nil
}
