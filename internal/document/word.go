package document

import (
	"context"
	"errors"
)

// Block kinds in an assembled document.
const (
	BlockHeading   = "heading"
	BlockParagraph = "paragraph"
	BlockImage     = "image"
	BlockTable     = "table"
)

// Block is one element of an assembled Word document.
type Block struct {
	Kind  string
	Level int
	Text  string
	Image []byte
	// ImageExt is the image file extension including the dot.
	ImageExt string
	Rows     [][2]string
}

// WordDocument is the structured output of an Assembler.
type WordDocument struct {
	Title  string
	Blocks []Block
}

// Assembler turns builder input into a structured document. A nil document
// without error means assembly produced nothing.
type Assembler interface {
	Assemble(ctx context.Context, in Input) (*WordDocument, error)
}

// AssemblerFunc adapts a function to Assembler.
type AssemblerFunc func(ctx context.Context, in Input) (*WordDocument, error)

// Assemble implements Assembler.
func (f AssemblerFunc) Assemble(ctx context.Context, in Input) (*WordDocument, error) {
	return f(ctx, in)
}

// WordBuilder serializes an assembled document to docx.
type WordBuilder struct {
	assembler Assembler
}

// NewWordBuilder returns a builder using assembler, or StepAssembler when nil.
func NewWordBuilder(assembler Assembler) *WordBuilder {
	if assembler == nil {
		assembler = StepAssembler{}
	}
	return &WordBuilder{assembler: assembler}
}

// Format implements Builder.
func (b *WordBuilder) Format() Format { return FormatWord }

// Build implements Builder.
func (b *WordBuilder) Build(ctx context.Context, in Input) (*Artifact, error) {
	doc, err := b.assembler.Assemble(ctx, in)
	if err != nil {
		return nil, &BuildError{Format: FormatWord, Kind: KindDocumentAssemblyFailed, Err: err}
	}
	if doc == nil {
		return nil, &BuildError{Format: FormatWord, Kind: KindDocumentAssemblyFailed, Err: errors.New("assembler returned no document")}
	}
	data, err := writeDocx(doc)
	if err != nil {
		return nil, &BuildError{Format: FormatWord, Kind: KindSerializationFailed, Err: err}
	}
	return newArtifact(FormatWord, in.BaseName, data), nil
}

// StepAssembler lays out the metadata table followed by one section per
// step. Steps without a screenshot keep their text and omit the image.
type StepAssembler struct{}

// Assemble implements Assembler.
func (StepAssembler) Assemble(ctx context.Context, in Input) (*WordDocument, error) {
	if in.Variant == nil {
		return nil, errors.New("variant required")
	}
	doc := &WordDocument{Title: in.variantName()}
	doc.Blocks = append(doc.Blocks,
		Block{Kind: BlockHeading, Level: 1, Text: doc.Title},
		Block{Kind: BlockTable, Rows: in.Metadata.Pairs()},
	)
	for _, row := range in.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockHeading, Level: 2, Text: "Step " + row.Number})
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockParagraph, Text: row.Description})
		if in.Mode == ModeTranslated && row.TranslatedDescription != "" {
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockParagraph, Text: row.TranslatedDescription})
		}
		if row.Unresolved {
			continue
		}
		data, ext, err := row.Screenshot.DecodeImage()
		if err != nil {
			continue
		}
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockImage, Image: data, ImageExt: ext})
	}
	return doc, nil
}
