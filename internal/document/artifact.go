package document

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Format identifies an export target.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatWord  Format = "docx"
	FormatPPT   Format = "pptx"
	FormatExcel Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{FormatPDF, FormatWord, FormatPPT, FormatExcel}

const (
	MIMEPDF   = "application/pdf"
	MIMEWord  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPPT   = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ParseFormat accepts either the extension or the common name of a format.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pdf":
		return FormatPDF, nil
	case "docx", "word", "doc":
		return FormatWord, nil
	case "pptx", "ppt", "powerpoint":
		return FormatPPT, nil
	case "xlsx", "excel", "xls":
		return FormatExcel, nil
	default:
		return "", &BuildError{Format: Format(raw), Kind: KindUnsupportedFormat}
	}
}

// MIME returns the content type for the format.
func (f Format) MIME() string {
	switch f {
	case FormatPDF:
		return MIMEPDF
	case FormatWord:
		return MIMEWord
	case FormatPPT:
		return MIMEPPT
	case FormatExcel:
		return MIMEExcel
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Mode selects the steps layout.
type Mode string

const (
	ModeVariant    Mode = "variant"
	ModeTranslated Mode = "translated"
)

// ParseMode defaults to ModeVariant for empty input.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "variant", "plain":
		return ModeVariant, nil
	case "translated", "translated-variant":
		return ModeTranslated, nil
	default:
		return "", fmt.Errorf("unknown export mode %q", raw)
	}
}

// Artifact is a finished in-memory document.
type Artifact struct {
	Name      string
	Format    Format
	MIME      string
	Data      []byte
	CreatedAt time.Time
}

// Size returns the payload length in bytes.
func (a *Artifact) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

func newArtifact(format Format, base string, data []byte) *Artifact {
	return &Artifact{
		Name:      FileName(base, format),
		Format:    format,
		MIME:      format.MIME(),
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName derives a filesystem and attachment safe name for an artifact.
func FileName(base string, format Format) string {
	name := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(base), "_"), "._")
	if name == "" {
		name = "variant"
	}
	return name + format.Extension()
}
