package deck

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/beevik/etree"
)

const (
	contentTypesPart = "[Content_Types].xml"
	presentationPart = "ppt/presentation.xml"
	appPropsPart     = "docProps/app.xml"
)

// pptxPackage 内存中的 OPC 包，XML 部件按需解析并在写出时序列化
type pptxPackage struct {
	order []string
	files map[string][]byte
	docs  map[string]*etree.Document
}

func openPackage(data []byte) (*pptxPackage, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	p := &pptxPackage{
		files: make(map[string][]byte, len(zr.File)),
		docs:  make(map[string]*etree.Document),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidTemplate, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidTemplate, f.Name, err)
		}
		p.order = append(p.order, f.Name)
		p.files[f.Name] = content
	}

	if !p.has(contentTypesPart) || !p.has(presentationPart) {
		return nil, fmt.Errorf("%w: missing %s or %s", ErrInvalidTemplate, contentTypesPart, presentationPart)
	}
	return p, nil
}

func (p *pptxPackage) has(name string) bool {
	_, ok := p.files[name]
	return ok
}

// xml 解析并缓存 XML 部件
func (p *pptxPackage) xml(name string) (*etree.Document, error) {
	if doc, ok := p.docs[name]; ok {
		return doc, nil
	}
	content, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing part %s", ErrInvalidTemplate, name)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidTemplate, name, err)
	}
	p.docs[name] = doc
	return doc, nil
}

func (p *pptxPackage) put(name string, content []byte) {
	if !p.has(name) {
		p.order = append(p.order, name)
	}
	p.files[name] = content
	delete(p.docs, name)
}

func (p *pptxPackage) putXML(name string, doc *etree.Document) {
	if !p.has(name) {
		p.order = append(p.order, name)
	}
	p.files[name] = nil
	p.docs[name] = doc
}

func (p *pptxPackage) remove(name string) {
	if !p.has(name) {
		return
	}
	delete(p.files, name)
	delete(p.docs, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// uniqueName 返回 format 中第一个未被占用的序号对应的部件名
func (p *pptxPackage) uniqueName(format string, start int) string {
	for i := start; ; i++ {
		name := fmt.Sprintf(format, i)
		if !p.has(name) {
			return name
		}
	}
}

// bytes 序列化为 zip，[Content_Types].xml 放在最前
func (p *pptxPackage) bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	names := make([]string, 0, len(p.order))
	names = append(names, contentTypesPart)
	for _, n := range p.order {
		if n != contentTypesPart {
			names = append(names, n)
		}
	}

	for _, name := range names {
		content := p.files[name]
		if doc, ok := p.docs[name]; ok {
			var err error
			content, err = doc.WriteToBytes()
			if err != nil {
				return nil, fmt.Errorf("serialize %s: %w", name, err)
			}
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(content); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// partURI 包内路径转为 /ppt/... 形式的部件名
func partURI(name string) string {
	return "/" + strings.TrimPrefix(name, "/")
}

// relsPath ppt/slides/slide1.xml -> ppt/slides/_rels/slide1.xml.rels
func relsPath(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// resolveTarget 将关系目标解析为包内路径
func resolveTarget(part, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(part), target)
}

// relativeTarget 由源部件指向目标部件的相对路径
func relativeTarget(from, to string) string {
	fromDir := strings.Split(path.Dir(from), "/")
	toParts := strings.Split(to, "/")

	common := 0
	for common < len(fromDir) && common < len(toParts)-1 && fromDir[common] == toParts[common] {
		common++
	}
	var rel []string
	for i := common; i < len(fromDir); i++ {
		rel = append(rel, "..")
	}
	rel = append(rel, toParts[common:]...)
	return strings.Join(rel, "/")
}
