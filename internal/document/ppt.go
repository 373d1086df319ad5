package document

import (
	"context"
	"errors"
	"fmt"
)

// Slide geometry in EMU on a 16:9 canvas. These are fixed presentation
// constants and never depend on input.
const (
	slideWidth  = 12192000
	slideHeight = 6858000

	logoWidth  = 1828800
	logoHeight = 914400
	logoTop    = 457200
	logoLeftX  = 457200
	logoRightX = slideWidth - 457200 - logoWidth

	titleX      = 914400
	titleY      = 2743200
	titleWidth  = slideWidth - 2*914400
	titleHeight = 1371600
	titleSize   = 4000
	titleColor  = "1F3864"

	headingX      = 457200
	headingY      = 228600
	headingWidth  = slideWidth - 2*457200
	headingHeight = 685800
	headingSize   = 2400

	imageX      = 457200
	imageY      = 1143000
	imageWidth  = 7315200
	imageHeight = 4572000

	bodyX      = 8001000
	bodyY      = 1143000
	bodyWidth  = slideWidth - 8001000 - 457200
	bodyHeight = 4572000
	bodySize   = 1600
	bodyColor  = "333333"
)

// PPTBuilder produces a title slide followed by one slide per step.
type PPTBuilder struct {
	logos [2][]byte
}

// PPTOption customizes the presentation builder.
type PPTOption func(*PPTBuilder)

// WithLogos replaces the two title slide images.
func WithLogos(left, right []byte) PPTOption {
	return func(b *PPTBuilder) {
		if len(left) > 0 {
			b.logos[0] = left
		}
		if len(right) > 0 {
			b.logos[1] = right
		}
	}
}

// NewPPTBuilder constructs a presentation builder.
func NewPPTBuilder(opts ...PPTOption) *PPTBuilder {
	left, right := defaultLogos()
	b := &PPTBuilder{logos: [2][]byte{left, right}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Format implements Builder.
func (b *PPTBuilder) Format() Format { return FormatPPT }

// Build implements Builder. Every step slide embeds an image, so any
// unresolved screenshot fails the build at that step.
func (b *PPTBuilder) Build(ctx context.Context, in Input) (*Artifact, error) {
	if in.Variant == nil {
		return nil, &BuildError{Format: FormatPPT, Kind: KindDocumentAssemblyFailed, Err: errors.New("variant required")}
	}
	slides := make([]slide, 0, len(in.Rows)+1)
	slides = append(slides, slide{
		shapes: []shape{
			{kind: shapePicture, x: logoLeftX, y: logoTop, cx: logoWidth, cy: logoHeight, image: b.logos[0], ext: ".png"},
			{kind: shapePicture, x: logoRightX, y: logoTop, cx: logoWidth, cy: logoHeight, image: b.logos[1], ext: ".png"},
			{kind: shapeText, x: titleX, y: titleY, cx: titleWidth, cy: titleHeight, text: in.variantName(), size: titleSize, color: titleColor, bold: true, center: true},
		},
	})
	for _, row := range in.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if row.Unresolved {
			return nil, missingScreenshot(FormatPPT, row.Index, fmt.Errorf("screenshot %q not found", row.ScreenshotKey))
		}
		data, ext, err := row.Screenshot.DecodeImage()
		if err != nil {
			return nil, missingScreenshot(FormatPPT, row.Index, err)
		}
		cx, cy := fitImage(data, imageWidth, imageHeight)
		body := row.Description
		if in.Mode == ModeTranslated && row.TranslatedDescription != "" {
			body = row.TranslatedDescription
		}
		slides = append(slides, slide{
			shapes: []shape{
				{kind: shapeText, x: headingX, y: headingY, cx: headingWidth, cy: headingHeight, text: "Step " + row.Number, size: headingSize, color: titleColor, bold: true},
				{kind: shapePicture, x: imageX, y: imageY, cx: cx, cy: cy, image: data, ext: ext},
				{kind: shapeText, x: bodyX, y: bodyY, cx: bodyWidth, cy: bodyHeight, text: body, size: bodySize, color: bodyColor},
			},
		})
	}
	data, err := writePptx(slides)
	if err != nil {
		return nil, &BuildError{Format: FormatPPT, Kind: KindSerializationFailed, Err: err}
	}
	return newArtifact(FormatPPT, in.BaseName, data), nil
}
