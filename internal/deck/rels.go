package deck

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsOfficeRels    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relTypeSlide       = nsOfficeRels + "/slide"
	relTypeSlideLayout = nsOfficeRels + "/slideLayout"
	relTypeSlideMaster = nsOfficeRels + "/slideMaster"
	relTypeTheme       = nsOfficeRels + "/theme"
	relTypeImage       = nsOfficeRels + "/image"
	relTypeHyperlink   = nsOfficeRels + "/hyperlink"
	relTypeNotesSlide  = nsOfficeRels + "/notesSlide"
	relTypeOfficeDoc   = nsOfficeRels + "/officeDocument"
	relTypeExtProps    = nsOfficeRels + "/extended-properties"
	relTypeCoreProps   = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
)

// relationships 某个部件的 .rels 文件
type relationships struct {
	part string
	doc  *etree.Document
}

// rels 加载部件的关系文件，不存在时创建空文件
func (p *pptxPackage) rels(part string) (*relationships, error) {
	name := relsPath(part)
	if !p.has(name) {
		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
		root := doc.CreateElement("Relationships")
		root.CreateAttr("xmlns", nsRelationships)
		p.putXML(name, doc)
		return &relationships{part: part, doc: doc}, nil
	}
	doc, err := p.xml(name)
	if err != nil {
		return nil, err
	}
	return &relationships{part: part, doc: doc}, nil
}

func (r *relationships) list() []*etree.Element {
	return r.doc.Root().SelectElements("Relationship")
}

func (r *relationships) byID(id string) *etree.Element {
	for _, rel := range r.list() {
		if rel.SelectAttrValue("Id", "") == id {
			return rel
		}
	}
	return nil
}

// byType 返回类型匹配的关系
func (r *relationships) byType(match func(string) bool) []*etree.Element {
	var out []*etree.Element
	for _, rel := range r.list() {
		if match(rel.SelectAttrValue("Type", "")) {
			out = append(out, rel)
		}
	}
	return out
}

// target 内部关系指向的包内路径
func (r *relationships) target(rel *etree.Element) string {
	return resolveTarget(r.part, rel.SelectAttrValue("Target", ""))
}

// add 新增关系并返回 rId
func (r *relationships) add(relType, target string, external bool) string {
	id := r.nextID()
	rel := r.doc.Root().CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", target)
	if external {
		rel.CreateAttr("TargetMode", "External")
	}
	return id
}

func (r *relationships) remove(rel *etree.Element) {
	r.doc.Root().RemoveChild(rel)
}

func (r *relationships) nextID() string {
	max := 0
	for _, rel := range r.list() {
		id := rel.SelectAttrValue("Id", "")
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n > max {
			max = n
		}
	}
	return "rId" + strconv.Itoa(max+1)
}

func isCommentRel(relType string) bool {
	return strings.Contains(strings.ToLower(relType), "comment")
}

// contentTypes [Content_Types].xml
type contentTypes struct {
	doc *etree.Document
}

func (p *pptxPackage) contentTypes() (*contentTypes, error) {
	doc, err := p.xml(contentTypesPart)
	if err != nil {
		return nil, err
	}
	return &contentTypes{doc: doc}, nil
}

func (c *contentTypes) override(partName string) *etree.Element {
	for _, o := range c.doc.Root().SelectElements("Override") {
		if strings.EqualFold(o.SelectAttrValue("PartName", ""), partName) {
			return o
		}
	}
	return nil
}

func (c *contentTypes) addOverride(partName, contentType string) {
	if o := c.override(partName); o != nil {
		o.CreateAttr("ContentType", contentType)
		return
	}
	o := c.doc.Root().CreateElement("Override")
	o.CreateAttr("PartName", partName)
	o.CreateAttr("ContentType", contentType)
}

func (c *contentTypes) removeOverride(partName string) {
	if o := c.override(partName); o != nil {
		c.doc.Root().RemoveChild(o)
	}
}

// ensureDefault 确保扩展名有默认类型
func (c *contentTypes) ensureDefault(ext, contentType string) {
	for _, d := range c.doc.Root().SelectElements("Default") {
		if strings.EqualFold(d.SelectAttrValue("Extension", ""), ext) {
			return
		}
	}
	d := etree.NewElement("Default")
	d.CreateAttr("Extension", ext)
	d.CreateAttr("ContentType", contentType)
	// Default 必须排在 Override 之前
	c.doc.Root().InsertChildAt(0, d)
}
