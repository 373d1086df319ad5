package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"
)

const (
	emuPerInch = 914400

	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	relOfficeDoc    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relImage        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

type zipPart struct {
	name string
	data []byte
}

type relationship struct {
	id     string
	typ    string
	target string
}

func writeZip(parts []zipPart) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Now().UTC()
	for _, part := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: part.name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

func relationshipsXML(rels []relationship) []byte {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="` + nsRelationships + `">`)
	for _, rel := range rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, rel.id, rel.typ, escape(rel.target))
	}
	b.WriteString(`</Relationships>`)
	return []byte(b.String())
}

func contentTypesXML(overrides map[string]string, order []string) []byte {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	b.WriteString(`<Default Extension="jpeg" ContentType="image/jpeg"/>`)
	b.WriteString(`<Default Extension="gif" ContentType="image/gif"/>`)
	for _, part := range order {
		fmt.Fprintf(&b, `<Override PartName="%s" ContentType="%s"/>`, part, overrides[part])
	}
	b.WriteString(`</Types>`)
	return []byte(b.String())
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// fitImage scales an image to fit a box in EMU, keeping its aspect ratio.
func fitImage(data []byte, maxW, maxH int64) (int64, int64) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return maxW, maxH
	}
	w, h := maxW, maxW*int64(cfg.Height)/int64(cfg.Width)
	if h > maxH {
		h = maxH
		w = maxH * int64(cfg.Width) / int64(cfg.Height)
	}
	return w, h
}
