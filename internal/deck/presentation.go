package deck

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

const (
	ctSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"

	// 第一个合法的 sldId
	minSlideID = 256
)

// slideRef 演示文稿中的一页
type slideRef struct {
	el   *etree.Element // p:sldId
	rID  string
	part string
}

func (p *pptxPackage) sldIDList() (*etree.Element, error) {
	doc, err := p.xml(presentationPart)
	if err != nil {
		return nil, err
	}
	lst := doc.FindElement("//p:sldIdLst")
	if lst == nil {
		return nil, fmt.Errorf("%w: presentation has no slide list", ErrInvalidTemplate)
	}
	return lst, nil
}

// slides 按放映顺序返回所有幻灯片
func (p *pptxPackage) slides() ([]slideRef, error) {
	lst, err := p.sldIDList()
	if err != nil {
		return nil, err
	}
	rels, err := p.rels(presentationPart)
	if err != nil {
		return nil, err
	}

	var refs []slideRef
	for _, el := range lst.SelectElements("p:sldId") {
		rID := el.SelectAttrValue("r:id", "")
		rel := rels.byID(rID)
		if rel == nil {
			return nil, fmt.Errorf("%w: slide relationship %s not found", ErrInvalidTemplate, rID)
		}
		part := rels.target(rel)
		if !p.has(part) {
			return nil, fmt.Errorf("%w: missing slide part %s", ErrInvalidTemplate, part)
		}
		refs = append(refs, slideRef{el: el, rID: rID, part: part})
	}
	return refs, nil
}

// cloneSlide 复制 src，插入到 before 之前；备注和批注关系不复制
func (p *pptxPackage) cloneSlide(src, before slideRef) (slideRef, error) {
	srcDoc, err := p.xml(src.part)
	if err != nil {
		return slideRef{}, err
	}
	srcRels, err := p.rels(src.part)
	if err != nil {
		return slideRef{}, err
	}

	part := p.uniqueName("ppt/slides/slide%d.xml", 1)
	p.putXML(part, srcDoc.Copy())

	relsDoc := srcRels.doc.Copy()
	p.putXML(relsPath(part), relsDoc)
	newRels := &relationships{part: part, doc: relsDoc}
	for _, rel := range newRels.list() {
		relType := rel.SelectAttrValue("Type", "")
		if relType == relTypeNotesSlide || isCommentRel(relType) {
			newRels.remove(rel)
		}
	}

	ct, err := p.contentTypes()
	if err != nil {
		return slideRef{}, err
	}
	ct.addOverride(partURI(part), ctSlide)

	presRels, err := p.rels(presentationPart)
	if err != nil {
		return slideRef{}, err
	}
	rID := presRels.add(relTypeSlide, relativeTarget(presentationPart, part), false)

	lst, err := p.sldIDList()
	if err != nil {
		return slideRef{}, err
	}
	el := etree.NewElement("p:sldId")
	el.CreateAttr("id", strconv.Itoa(p.nextSlideID(lst)))
	el.CreateAttr("r:id", rID)
	lst.InsertChildAt(before.el.Index(), el)

	return slideRef{el: el, rID: rID, part: part}, nil
}

func (p *pptxPackage) nextSlideID(lst *etree.Element) int {
	max := minSlideID - 1
	for _, el := range lst.SelectElements("p:sldId") {
		if n, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// removeSlide 删除幻灯片及其关系、备注页和内容类型
func (p *pptxPackage) removeSlide(ref slideRef) error {
	lst, err := p.sldIDList()
	if err != nil {
		return err
	}
	lst.RemoveChild(ref.el)

	presRels, err := p.rels(presentationPart)
	if err != nil {
		return err
	}
	if rel := presRels.byID(ref.rID); rel != nil {
		presRels.remove(rel)
	}

	ct, err := p.contentTypes()
	if err != nil {
		return err
	}

	slideRels, err := p.rels(ref.part)
	if err != nil {
		return err
	}
	for _, rel := range slideRels.byType(func(t string) bool { return t == relTypeNotesSlide || isCommentRel(t) }) {
		target := slideRels.target(rel)
		p.remove(target)
		p.remove(relsPath(target))
		ct.removeOverride(partURI(target))
	}

	p.remove(ref.part)
	p.remove(relsPath(ref.part))
	ct.removeOverride(partURI(ref.part))
	return nil
}

// stripComments 删除幻灯片的批注关系和批注部件
func (p *pptxPackage) stripComments(ref slideRef) error {
	slideRels, err := p.rels(ref.part)
	if err != nil {
		return err
	}
	ct, err := p.contentTypes()
	if err != nil {
		return err
	}
	for _, rel := range slideRels.byType(isCommentRel) {
		target := slideRels.target(rel)
		slideRels.remove(rel)
		p.remove(target)
		p.remove(relsPath(target))
		ct.removeOverride(partURI(target))
	}
	return nil
}

// setSlideCount 更新 docProps/app.xml 中的页数
func (p *pptxPackage) setSlideCount(n int) error {
	if !p.has(appPropsPart) {
		return nil
	}
	doc, err := p.xml(appPropsPart)
	if err != nil {
		return err
	}
	if el := doc.Root().SelectElement("Slides"); el != nil {
		el.SetText(strconv.Itoa(n))
	}
	return nil
}
