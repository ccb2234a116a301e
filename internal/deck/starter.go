package deck

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

	slideWidth  = 12192000
	slideHeight = 6858000
)

// 应用页中各形状的位置（EMU）
var (
	starterNumber     = frame{x: 457200, y: 457200, cx: 1371600, cy: 914400}
	starterName       = frame{x: 3657600, y: 1828800, cx: 7315200, cy: 914400}
	starterDeveloper  = frame{x: 3657600, y: 2971800, cx: 3810000, cy: 609600}
	starterPill       = frame{x: 3600000, y: 2950000, cx: 3900000, cy: 650000}
	starterLogo       = frame{x: 457200, y: 1828800, cx: 3 * emuPerInch, cy: 5 * emuPerInch / 2}
	starterIcon       = frame{x: 11000000, y: 6000000, cx: emuPerInch / 2, cy: emuPerInch / 2}
	starterClosing    = frame{x: 457200, y: 1371600, cx: 11277600, cy: 1371600}
	starterButton     = frame{x: 3657600, y: 4114800, cx: 5 * emuPerInch, cy: emuPerInch}
	starterCoverTitle = frame{x: 457200, y: 2286000, cx: 11277600, cy: 2286000}
)

// WriteStarterTemplate 写出一个最小可用模板：封面、programmeSlides 页应用页、结尾页
func WriteStarterTemplate(w io.Writer, programmeSlides int) error {
	if programmeSlides < 1 {
		return fmt.Errorf("need at least one programme slide, got %d", programmeSlides)
	}
	total := programmeSlides + 2

	logoPNG, err := solidPNG(400, 320, color.RGBA{R: 0xD9, G: 0xE2, B: 0xEC, A: 0xFF})
	if err != nil {
		return err
	}
	buttonPNG, err := solidPNG(500, 100, color.RGBA{R: 0x3C, G: 0xC0, B: 0xFF, A: 0xFF})
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	write := func(name, content string) error {
		f, err := zw.Create(name)
		if err != nil {
			return err
		}
		_, err = io.WriteString(f, content)
		return err
	}

	files := []struct{ name, content string }{
		{contentTypesPart, starterContentTypes(total)},
		{"_rels/.rels", starterRootRels},
		{appPropsPart, fmt.Sprintf(starterAppProps, total)},
		{"docProps/core.xml", starterCoreProps},
		{presentationPart, starterPresentation(total)},
		{"ppt/_rels/presentation.xml.rels", starterPresentationRels(total)},
		{"ppt/slideMasters/slideMaster1.xml", starterMaster},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", rels(rel{relTypeSlideLayout, "../slideLayouts/slideLayout1.xml"}, rel{relTypeTheme, "../theme/theme1.xml"})},
		{"ppt/slideLayouts/slideLayout1.xml", starterLayout},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", rels(rel{relTypeSlideMaster, "../slideMasters/slideMaster1.xml"})},
		{"ppt/theme/theme1.xml", starterTheme},
	}

	for i := 1; i <= total; i++ {
		var body string
		media := "../media/image1.png"
		switch i {
		case 1:
			body = textShape(2, "Title", starterCoverTitle, "$industry")
		case total:
			body = textShape(2, "Closing Title", starterClosing, "Apps for $industry at") +
				pictureShape(3, "SFApps Button", starterButton, "rId2")
			media = "../media/image2.png"
		default:
			body = textShape(2, "Number", starterNumber, "#1") +
				textShape(3, "App Name", starterName, "App Name") +
				textShape(4, "Developer", starterDeveloper, "By Developer") +
				rectShape(5, "Developer Background", starterPill, "3CC0FF") +
				pictureShape(6, "Logo", starterLogo, "rId2") +
				pictureShape(7, "Icon", starterIcon, "rId2")
		}
		files = append(files,
			struct{ name, content string }{fmt.Sprintf("ppt/slides/slide%d.xml", i), slideXML(body)},
			struct{ name, content string }{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i),
				rels(rel{relTypeSlideLayout, "../slideLayouts/slideLayout1.xml"}, rel{relTypeImage, media})},
		)
	}

	for _, f := range files {
		if err := write(f.name, f.content); err != nil {
			return err
		}
	}
	media := []struct {
		name string
		data []byte
	}{
		{"ppt/media/image1.png", logoPNG},
		{"ppt/media/image2.png", buttonPNG},
	}
	for _, m := range media {
		f, err := zw.Create(m.name)
		if err != nil {
			return err
		}
		if _, err := f.Write(m.data); err != nil {
			return err
		}
	}
	return zw.Close()
}

// StarterTemplate 返回内存中的最小模板
func StarterTemplate(programmeSlides int) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteStarterTemplate(&buf, programmeSlides); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func solidPNG(w, h int, c color.Color) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type rel struct {
	typ    string
	target string
}

func rels(items ...rel) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Relationships xmlns="` + nsRelationships + `">`)
	for i, r := range items {
		fmt.Fprintf(&sb, `<Relationship Id="rId%d" Type="%s" Target="%s"/>`, i+1, r.typ, r.target)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

func starterContentTypes(total int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	sb.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	sb.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	sb.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	sb.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	sb.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	sb.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	sb.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&sb, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="%s"/>`, i, ctSlide)
	}
	sb.WriteString(`</Types>`)
	return sb.String()
}

var starterRootRels = rels(
	rel{relTypeOfficeDoc, "ppt/presentation.xml"},
	rel{relTypeCoreProps, "docProps/core.xml"},
	rel{relTypeExtProps, "docProps/app.xml"},
)

const starterAppProps = xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties" xmlns:vt="http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes"><Application>sfapps-deck</Application><Slides>%d</Slides></Properties>`

const starterCoreProps = xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"><dc:title>SFApps Best Apps</dc:title></cp:coreProperties>`

func starterPresentation(total int) string {
	var sb strings.Builder
	sb.WriteString(xmlHeader)
	sb.WriteString(`<p:presentation xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" saveSubsetFonts="1">`)
	sb.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	sb.WriteString(`<p:sldIdLst>`)
	for i := 1; i <= total; i++ {
		// rId1 母版，rId2 主题
		fmt.Fprintf(&sb, `<p:sldId id="%d" r:id="rId%d"/>`, minSlideID+i-1, i+2)
	}
	sb.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&sb, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/>`, slideWidth, slideHeight)
	sb.WriteString(`</p:presentation>`)
	return sb.String()
}

func starterPresentationRels(total int) string {
	items := []rel{
		{relTypeSlideMaster, "slideMasters/slideMaster1.xml"},
		{relTypeTheme, "theme/theme1.xml"},
	}
	for i := 1; i <= total; i++ {
		items = append(items, rel{relTypeSlide, fmt.Sprintf("slides/slide%d.xml", i)})
	}
	return rels(items...)
}

const emptyTree = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`

const starterMaster = xmlHeader + `<p:sldMaster xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
	`<p:cSld><p:spTree>` + emptyTree + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`</p:sldMaster>`

const starterLayout = xmlHeader + `<p:sldLayout xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" type="blank" preserve="1">` +
	`<p:cSld name="Blank"><p:spTree>` + emptyTree + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
	`</p:sldLayout>`

const starterTheme = xmlHeader + `<a:theme xmlns:a="` + nsA + `" name="SFApps"><a:themeElements>` +
	`<a:clrScheme name="SFApps">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="163560"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="3CC0FF"/></a:accent1><a:accent2><a:srgbClr val="163560"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="SFApps">` +
	`<a:majorFont><a:latin typeface="Poppins"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Poppins"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="SFApps">` +
	`<a:fillStyleLst>` + phFill + phFill + phFill + `</a:fillStyleLst>` +
	`<a:lnStyleLst>` + phLine + phLine + phLine + `</a:lnStyleLst>` +
	`<a:effectStyleLst>` + noEffect + noEffect + noEffect + `</a:effectStyleLst>` +
	`<a:bgFillStyleLst>` + phFill + phFill + phFill + `</a:bgFillStyleLst>` +
	`</a:fmtScheme>` +
	`</a:themeElements></a:theme>`

const (
	phFill   = `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	phLine   = `<a:ln w="6350">` + phFill + `</a:ln>`
	noEffect = `<a:effectStyle><a:effectLst/></a:effectStyle>`
)

func slideXML(body string) string {
	return xmlHeader + `<p:sld xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
		`<p:cSld><p:spTree>` + emptyTree + body + `</p:spTree></p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

func xfrmXML(f frame) string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom>`, f.x, f.y, f.cx, f.cy)
}

func textShape(id int, name string, f frame, text string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, name) +
		`<p:spPr>` + xfrmXML(f) + `<a:noFill/></p:spPr>` +
		`<p:txBody><a:bodyPr wrap="square" rtlCol="0"/><a:lstStyle/>` +
		`<a:p><a:r><a:rPr lang="en-US" dirty="0"/><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp>`
}

func rectShape(id int, name string, f frame, fill string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`, id, name) +
		`<p:spPr>` + xfrmXML(f) + `<a:solidFill><a:srgbClr val="` + fill + `"/></a:solidFill></p:spPr>` +
		`<p:txBody><a:bodyPr rtlCol="0" anchor="ctr"/><a:lstStyle/><a:p><a:endParaRPr lang="en-US" dirty="0"/></a:p></p:txBody></p:sp>`
}

func pictureShape(id int, name string, f frame, rID string) string {
	return fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`, id, name) +
		`<p:blipFill><a:blip r:embed="` + rID + `"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>` +
		`<p:spPr>` + xfrmXML(f) + `</p:spPr></p:pic>`
}
