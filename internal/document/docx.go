package document

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	docxMaxImageWidth  = 6 * emuPerInch
	docxMaxImageHeight = 8 * emuPerInch

	docxNamespaces = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
		`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`
)

func writeDocx(doc *WordDocument) ([]byte, error) {
	var body strings.Builder
	var media []zipPart
	var rels []relationship

	for _, block := range doc.Blocks {
		switch block.Kind {
		case BlockHeading:
			size := 32
			if block.Level > 1 {
				size = 26
			}
			fmt.Fprintf(&body, `<w:p><w:pPr><w:spacing w:before="240" w:after="120"/></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="%d"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, size, escape(block.Text))
		case BlockParagraph:
			fmt.Fprintf(&body, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, escape(block.Text))
		case BlockTable:
			writeDocxTable(&body, block.Rows)
		case BlockImage:
			if len(block.Image) == 0 {
				continue
			}
			n := len(media) + 1
			ext := block.ImageExt
			if ext == "" {
				ext = ".png"
			}
			rid := fmt.Sprintf("rId%d", n)
			target := fmt.Sprintf("media/image%d%s", n, ext)
			media = append(media, zipPart{name: "word/" + target, data: block.Image})
			rels = append(rels, relationship{id: rid, typ: relImage, target: target})
			cx, cy := fitImage(block.Image, docxMaxImageWidth, docxMaxImageHeight)
			writeDocxImage(&body, n, rid, cx, cy)
		default:
			return nil, fmt.Errorf("unknown block kind %q", block.Kind)
		}
	}
	body.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>`)

	document := xml.Header + `<w:document ` + docxNamespaces + `><w:body>` + body.String() + `</w:body></w:document>`

	parts := []zipPart{
		{name: "[Content_Types].xml", data: contentTypesXML(
			map[string]string{"/word/document.xml": "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"},
			[]string{"/word/document.xml"},
		)},
		{name: "_rels/.rels", data: relationshipsXML([]relationship{{id: "rId1", typ: relOfficeDoc, target: "word/document.xml"}})},
		{name: "word/document.xml", data: []byte(document)},
		{name: "word/_rels/document.xml.rels", data: relationshipsXML(rels)},
	}
	parts = append(parts, media...)
	return writeZip(parts)
}

func writeDocxTable(b *strings.Builder, rows [][2]string) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="9000" w:type="dxa"/><w:tblBorders>`)
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(b, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="auto"/>`, edge)
	}
	b.WriteString(`</w:tblBorders></w:tblPr><w:tblGrid><w:gridCol w:w="3600"/><w:gridCol w:w="5400"/></w:tblGrid>`)
	for _, row := range rows {
		fmt.Fprintf(b, `<w:tr><w:tc><w:tcPr><w:tcW w:w="3600" w:type="dxa"/></w:tcPr><w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc>`, escape(row[0]))
		fmt.Fprintf(b, `<w:tc><w:tcPr><w:tcW w:w="5400" w:type="dxa"/></w:tcPr><w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc></w:tr>`, escape(row[1]))
	}
	b.WriteString(`</w:tbl>`)
}

func writeDocxImage(b *strings.Builder, n int, rid string, cx, cy int64) {
	fmt.Fprintf(b, `<w:p><w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%d" cy="%d"/><wp:docPr id="%d" name="Picture %d"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="%d" name="image%d"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`,
		cx, cy, n, n, n, n, rid, cx, cy)
}
