package deck

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// EMU 换算
const (
	emuPerInch  = 914400
	emuPerPoint = 12700
	// 96 DPI 下一个像素的 EMU
	emuPerPixel = 9525
)

// frame 形状的位置和尺寸（EMU）
type frame struct {
	x, y, cx, cy int64
}

// run 一段统一格式的文本，brk 表示换行
type run struct {
	text  string
	size  float64
	bold  bool
	color string
	brk   bool
}

// paragraph 一个段落，align 取 l / ctr / r
type paragraph struct {
	align string
	runs  []run
}

// topShapes spTree 下的直接子形状
func topShapes(doc *etree.Document) []*etree.Element {
	tree := doc.FindElement("//p:cSld/p:spTree")
	if tree == nil {
		return nil
	}
	var out []*etree.Element
	for _, el := range tree.ChildElements() {
		switch el.FullTag() {
		case "p:sp", "p:pic", "p:cxnSp", "p:graphicFrame", "p:grpSp":
			out = append(out, el)
		}
	}
	return out
}

// textBody 有文本框的形状返回 p:txBody
func textBody(el *etree.Element) *etree.Element {
	if el.FullTag() != "p:sp" {
		return nil
	}
	return el.SelectElement("p:txBody")
}

// shapeText 段落以换行连接
func shapeText(el *etree.Element) string {
	body := textBody(el)
	if body == nil {
		return ""
	}
	var paras []string
	for _, p := range body.SelectElements("a:p") {
		var sb strings.Builder
		for _, child := range p.ChildElements() {
			switch child.FullTag() {
			case "a:r", "a:fld":
				if t := child.SelectElement("a:t"); t != nil {
					sb.WriteString(t.Text())
				}
			case "a:br":
				sb.WriteString("\n")
			}
		}
		paras = append(paras, sb.String())
	}
	return strings.Join(paras, "\n")
}

func xfrmOf(el *etree.Element) *etree.Element {
	if el.FullTag() == "p:graphicFrame" {
		return el.SelectElement("p:xfrm")
	}
	if el.FullTag() == "p:grpSp" {
		if pr := el.SelectElement("p:grpSpPr"); pr != nil {
			return pr.SelectElement("a:xfrm")
		}
		return nil
	}
	if pr := el.SelectElement("p:spPr"); pr != nil {
		return pr.SelectElement("a:xfrm")
	}
	return nil
}

// frameOf 读取形状位置，继承自版式的占位符没有 xfrm 时返回 false
func frameOf(el *etree.Element) (frame, bool) {
	xfrm := xfrmOf(el)
	if xfrm == nil {
		return frame{}, false
	}
	off := xfrm.SelectElement("a:off")
	ext := xfrm.SelectElement("a:ext")
	if off == nil || ext == nil {
		return frame{}, false
	}
	return frame{
		x:  attrInt(off, "x"),
		y:  attrInt(off, "y"),
		cx: attrInt(ext, "cx"),
		cy: attrInt(ext, "cy"),
	}, true
}

func setExtent(el *etree.Element, cx, cy int64) {
	xfrm := xfrmOf(el)
	if xfrm == nil {
		return
	}
	ext := xfrm.SelectElement("a:ext")
	if ext == nil {
		return
	}
	if cx > 0 {
		ext.CreateAttr("cx", strconv.FormatInt(cx, 10))
	}
	if cy > 0 {
		ext.CreateAttr("cy", strconv.FormatInt(cy, 10))
	}
}

func attrInt(el *etree.Element, key string) int64 {
	n, _ := strconv.ParseInt(el.SelectAttrValue(key, "0"), 10, 64)
	return n
}

// setText 用给定段落替换文本框内容，保留 bodyPr 和 lstStyle
func setText(el *etree.Element, font, anchor string, paras ...paragraph) {
	body := textBody(el)
	if body == nil {
		return
	}
	for _, p := range body.SelectElements("a:p") {
		body.RemoveChild(p)
	}

	if anchor != "" {
		bodyPr := body.SelectElement("a:bodyPr")
		if bodyPr == nil {
			bodyPr = etree.NewElement("a:bodyPr")
			body.InsertChildAt(0, bodyPr)
		}
		bodyPr.CreateAttr("anchor", anchor)
	}

	for _, para := range paras {
		p := body.CreateElement("a:p")
		if para.align != "" {
			p.CreateElement("a:pPr").CreateAttr("algn", para.align)
		}
		var last run
		for _, r := range para.runs {
			if r.brk {
				br := p.CreateElement("a:br")
				writeRunProps(br, font, last)
				continue
			}
			ar := p.CreateElement("a:r")
			writeRunProps(ar, font, r)
			ar.CreateElement("a:t").SetText(r.text)
			last = r
		}
		writeEndProps(p, font, last)
	}
}

func writeRunProps(parent *etree.Element, font string, r run) {
	rPr := parent.CreateElement("a:rPr")
	rPr.CreateAttr("lang", "en-US")
	if r.size > 0 {
		rPr.CreateAttr("sz", strconv.Itoa(int(r.size*100)))
	}
	if r.bold {
		rPr.CreateAttr("b", "1")
	} else {
		rPr.CreateAttr("b", "0")
	}
	rPr.CreateAttr("dirty", "0")
	if r.color != "" {
		rPr.CreateElement("a:solidFill").CreateElement("a:srgbClr").CreateAttr("val", r.color)
	}
	if font != "" {
		rPr.CreateElement("a:latin").CreateAttr("typeface", font)
	}
}

// writeEndProps 段落结束属性，保证空行的字号一致
func writeEndProps(p *etree.Element, font string, r run) {
	end := p.CreateElement("a:endParaRPr")
	end.CreateAttr("lang", "en-US")
	if r.size > 0 {
		end.CreateAttr("sz", strconv.Itoa(int(r.size*100)))
	}
	end.CreateAttr("dirty", "0")
	if font != "" {
		end.CreateElement("a:latin").CreateAttr("typeface", font)
	}
}

func removeShape(el *etree.Element) {
	if parent := el.Parent(); parent != nil {
		parent.RemoveChild(el)
	}
}

// pictureBlip p:pic 的 a:blip
func pictureBlip(el *etree.Element) *etree.Element {
	fill := el.SelectElement("p:blipFill")
	if fill == nil {
		return nil
	}
	return fill.SelectElement("a:blip")
}
