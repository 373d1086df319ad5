package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	metadataSheet = "Metadata"
	stepsSheet    = "Steps"

	metadataKeyWidth   = 40
	metadataValueWidth = 50

	imageRowHeight = 160
	imageMaxWidth  = 420
	imageMaxHeight = 200
	imageOffset    = 5
)

type excelColumn struct {
	header string
	width  float64
	value  func(in Input, r int) string
	image  bool
}

func stepColumns(mode Mode) []excelColumn {
	cols := []excelColumn{
		{header: "Step No", width: 10, value: func(in Input, r int) string { return in.Rows[r].Number }},
		{header: "Description", width: 50, value: func(in Input, r int) string { return in.Rows[r].Description }},
	}
	if mode == ModeTranslated {
		cols = append(cols, excelColumn{header: "Translated Description", width: 50, value: func(in Input, r int) string { return in.Rows[r].TranslatedDescription }})
	}
	return append(cols,
		excelColumn{header: "Image", width: 62, image: true},
		excelColumn{header: "Locator", width: 30, value: func(in Input, r int) string { return in.Rows[r].Locator }},
		excelColumn{header: "Timestamp", width: 34, value: func(in Input, r int) string { return in.stepTimestamp(in.Rows[r]) }},
		excelColumn{header: "URL", width: 40, value: func(in Input, r int) string { return in.Rows[r].URL }},
	)
}

// ExcelBuilder writes a two sheet workbook: metadata and steps.
type ExcelBuilder struct {
	imageAppTypes map[string]struct{}
}

// NewExcelBuilder embeds screenshots for rows whose application type is in
// imageAppTypes.
func NewExcelBuilder(imageAppTypes []string) *ExcelBuilder {
	set := make(map[string]struct{}, len(imageAppTypes))
	for _, label := range imageAppTypes {
		if label = strings.ToLower(strings.TrimSpace(label)); label != "" {
			set[label] = struct{}{}
		}
	}
	return &ExcelBuilder{imageAppTypes: set}
}

// Format implements Builder.
func (b *ExcelBuilder) Format() Format { return FormatExcel }

// needsImage reports whether a row must carry a screenshot. A row whose
// screenshot is missing has no app type to go on, so it is held to the
// image requirement.
func (b *ExcelBuilder) needsImage(appType string, unresolved bool) bool {
	if appType == "" {
		return unresolved
	}
	_, ok := b.imageAppTypes[appType]
	return ok
}

// Build implements Builder.
func (b *ExcelBuilder) Build(ctx context.Context, in Input) (*Artifact, error) {
	if in.Variant == nil {
		return nil, &BuildError{Format: FormatExcel, Kind: KindDocumentAssemblyFailed, Err: errors.New("variant required")}
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := writeMetadataSheet(f, in.Metadata); err != nil {
		return nil, &BuildError{Format: FormatExcel, Kind: KindSerializationFailed, Err: err}
	}
	if err := b.writeStepsSheet(ctx, f, in); err != nil {
		var buildErr *BuildError
		if errors.As(err, &buildErr) {
			return nil, buildErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &BuildError{Format: FormatExcel, Kind: KindSerializationFailed, Err: err}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &BuildError{Format: FormatExcel, Kind: KindSerializationFailed, Err: err}
	}
	return newArtifact(FormatExcel, in.BaseName, buf.Bytes()), nil
}

func writeMetadataSheet(f *excelize.File, meta Metadata) error {
	if err := f.SetSheetName("Sheet1", metadataSheet); err != nil {
		return err
	}
	pairs := meta.Pairs()
	for i, pair := range pairs {
		row := i + 1
		if err := f.SetCellValue(metadataSheet, fmt.Sprintf("A%d", row), pair[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(metadataSheet, fmt.Sprintf("B%d", row), pair[1]); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(metadataSheet, "A1", fmt.Sprintf("A%d", len(pairs)), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(metadataSheet, "A", "A", metadataKeyWidth); err != nil {
		return err
	}
	return f.SetColWidth(metadataSheet, "B", "B", metadataValueWidth)
}

func (b *ExcelBuilder) writeStepsSheet(ctx context.Context, f *excelize.File, in Input) error {
	if _, err := f.NewSheet(stepsSheet); err != nil {
		return err
	}
	cols := stepColumns(in.Mode)
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}
	for c, col := range cols {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(stepsSheet, cell, col.header); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(stepsSheet, name, name, col.width); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(stepsSheet, "A1", last, header); err != nil {
		return err
	}
	if err := f.SetPanes(stepsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for r, row := range in.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := r + 2
		for c, col := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, line)
			if err != nil {
				return err
			}
			if col.image {
				if !b.needsImage(row.AppType, row.Unresolved) {
					continue
				}
				if row.Unresolved {
					return missingScreenshot(FormatExcel, row.Index, fmt.Errorf("screenshot %q not found", row.ScreenshotKey))
				}
				data, ext, err := row.Screenshot.DecodeImage()
				if err != nil {
					return missingScreenshot(FormatExcel, row.Index, err)
				}
				if err := f.AddPictureFromBytes(stepsSheet, cell, &excelize.Picture{
					Extension: ext,
					File:      data,
					Format:    imageOptions(data),
				}); err != nil {
					return err
				}
				if err := f.SetRowHeight(stepsSheet, line, imageRowHeight); err != nil {
					return err
				}
				continue
			}
			if err := f.SetCellValue(stepsSheet, cell, col.value(in, r)); err != nil {
				return err
			}
		}
		first, _ := excelize.CoordinatesToCellName(1, line)
		end, _ := excelize.CoordinatesToCellName(len(cols), line)
		if err := f.SetCellStyle(stepsSheet, first, end, wrap); err != nil {
			return err
		}
	}
	return nil
}

func imageOptions(data []byte) *excelize.GraphicOptions {
	opts := &excelize.GraphicOptions{
		OffsetX:         imageOffset,
		OffsetY:         imageOffset,
		ScaleX:          1,
		ScaleY:          1,
		LockAspectRatio: true,
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return opts
	}
	scale := min(1, float64(imageMaxWidth)/float64(cfg.Width), float64(imageMaxHeight)/float64(cfg.Height))
	opts.ScaleX, opts.ScaleY = scale, scale
	return opts
}
