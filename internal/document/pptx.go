package document

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	pptNamespaces = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

	relSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTheme       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"

	ctPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	ctSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	ctSlideMaster  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	ctSlideLayout  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	ctTheme        = "application/vnd.openxmlformats-officedocument.theme+xml"

	emptyTree = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`
)

type shapeKind int

const (
	shapeText shapeKind = iota
	shapePicture
)

type shape struct {
	kind   shapeKind
	x, y   int64
	cx, cy int64
	text   string
	size   int
	color  string
	bold   bool
	center bool
	image  []byte
	ext    string
}

type slide struct {
	shapes []shape
}

func writePptx(slides []slide) ([]byte, error) {
	overrides := map[string]string{
		"/ppt/presentation.xml":              ctPresentation,
		"/ppt/slideMasters/slideMaster1.xml": ctSlideMaster,
		"/ppt/slideLayouts/slideLayout1.xml": ctSlideLayout,
		"/ppt/theme/theme1.xml":              ctTheme,
	}
	order := []string{"/ppt/presentation.xml", "/ppt/slideMasters/slideMaster1.xml", "/ppt/slideLayouts/slideLayout1.xml", "/ppt/theme/theme1.xml"}

	presRels := []relationship{
		{id: "rId1", typ: relSlideMaster, target: "slideMasters/slideMaster1.xml"},
		{id: "rId2", typ: relTheme, target: "theme/theme1.xml"},
	}
	var slideIDs strings.Builder
	var parts []zipPart
	mediaCount := 0

	for i, s := range slides {
		n := i + 1
		name := fmt.Sprintf("slides/slide%d.xml", n)
		part := "/ppt/" + name
		overrides[part] = ctSlide
		order = append(order, part)
		rid := fmt.Sprintf("rId%d", n+2)
		presRels = append(presRels, relationship{id: rid, typ: relSlide, target: name})
		fmt.Fprintf(&slideIDs, `<p:sldId id="%d" r:id="%s"/>`, 255+n, rid)

		slideRels := []relationship{{id: "rId1", typ: relSlideLayout, target: "../slideLayouts/slideLayout1.xml"}}
		var tree strings.Builder
		for j, sh := range s.shapes {
			id := j + 2
			switch sh.kind {
			case shapePicture:
				if len(sh.image) == 0 {
					return nil, fmt.Errorf("slide %d: picture %d has no data", n, j+1)
				}
				mediaCount++
				ext := sh.ext
				if ext == "" {
					ext = ".png"
				}
				target := fmt.Sprintf("media/image%d%s", mediaCount, ext)
				imgRID := fmt.Sprintf("rId%d", len(slideRels)+1)
				slideRels = append(slideRels, relationship{id: imgRID, typ: relImage, target: "../" + target})
				parts = append(parts, zipPart{name: "ppt/" + target, data: sh.image})
				writePicture(&tree, id, imgRID, sh)
			case shapeText:
				writeTextBox(&tree, id, sh)
			}
		}
		body := xml.Header + `<p:sld ` + pptNamespaces + `><p:cSld><p:spTree>` + emptyTree + tree.String() +
			`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
		parts = append(parts,
			zipPart{name: "ppt/" + name, data: []byte(body)},
			zipPart{name: fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), data: relationshipsXML(slideRels)},
		)
	}

	presentation := xml.Header + `<p:presentation ` + pptNamespaces + ` saveSubsetFonts="1">` +
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>` +
		`<p:sldIdLst>` + slideIDs.String() + `</p:sldIdLst>` +
		fmt.Sprintf(`<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/>`, slideWidth, slideHeight) +
		`</p:presentation>`

	base := []zipPart{
		{name: "[Content_Types].xml", data: contentTypesXML(overrides, order)},
		{name: "_rels/.rels", data: relationshipsXML([]relationship{{id: "rId1", typ: relOfficeDoc, target: "ppt/presentation.xml"}})},
		{name: "ppt/presentation.xml", data: []byte(presentation)},
		{name: "ppt/_rels/presentation.xml.rels", data: relationshipsXML(presRels)},
		{name: "ppt/slideMasters/slideMaster1.xml", data: []byte(slideMasterXML)},
		{name: "ppt/slideMasters/_rels/slideMaster1.xml.rels", data: relationshipsXML([]relationship{
			{id: "rId1", typ: relSlideLayout, target: "../slideLayouts/slideLayout1.xml"},
			{id: "rId2", typ: relTheme, target: "../theme/theme1.xml"},
		})},
		{name: "ppt/slideLayouts/slideLayout1.xml", data: []byte(slideLayoutXML)},
		{name: "ppt/slideLayouts/_rels/slideLayout1.xml.rels", data: relationshipsXML([]relationship{
			{id: "rId1", typ: relSlideMaster, target: "../slideMasters/slideMaster1.xml"},
		})},
		{name: "ppt/theme/theme1.xml", data: []byte(themeXML)},
	}
	return writeZip(append(base, parts...))
}

func writePicture(b *strings.Builder, id int, rid string, sh shape) {
	fmt.Fprintf(b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`+
		`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
		`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		id, id, rid, sh.x, sh.y, sh.cx, sh.cy)
}

func writeTextBox(b *strings.Builder, id int, sh shape) {
	align := "l"
	anchor := "t"
	if sh.center {
		align, anchor = "ctr", "ctr"
	}
	bold := "0"
	if sh.bold {
		bold = "1"
	}
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
		`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`+
		`<p:txBody><a:bodyPr wrap="square" anchor="%s"><a:normAutofit/></a:bodyPr><a:lstStyle/>`,
		id, id, sh.x, sh.y, sh.cx, sh.cy, anchor)
	for _, line := range strings.Split(sh.text, "\n") {
		fmt.Fprintf(b, `<a:p><a:pPr algn="%s"/><a:r><a:rPr lang="en-US" sz="%d" b="%s" dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r></a:p>`,
			align, sh.size, bold, sh.color, escape(line))
	}
	b.WriteString(`</p:txBody></p:sp>`)
}

const slideMasterXML = xml.Header + `<p:sldMaster ` + pptNamespaces + `><p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + emptyTree + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

const slideLayoutXML = xml.Header + `<p:sldLayout ` + pptNamespaces + ` type="blank" preserve="1"><p:cSld name="Blank"><p:spTree>` + emptyTree + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const themeXML = xml.Header + `<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Variant Share">` +
	`<a:themeElements><a:clrScheme name="Variant Share">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F3864"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="2E75B6"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink></a:clrScheme>` +
	`<a:fontScheme name="Variant Share"><a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme>` +
	`<a:fmtScheme name="Variant Share"><a:fillStyleLst>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`</a:fillStyleLst><a:lnStyleLst>` +
	`<a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>` +
	`</a:lnStyleLst><a:effectStyleLst>` +
	`<a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle>` +
	`</a:effectStyleLst><a:bgFillStyleLst>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`</a:bgFillStyleLst></a:fmtScheme></a:themeElements><a:objectDefaults/><a:extraClrSchemeLst/></a:theme>`
