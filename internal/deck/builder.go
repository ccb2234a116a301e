package deck

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"sfapps-deck-go/internal/utils"
)

var (
	// ErrTemplateNotFound 模板文件不存在
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidTemplate 模板不是合法的PPTX或少于三页
	ErrInvalidTemplate = errors.New("invalid template")
)

// Input 一次生成所需的数据
type Input struct {
	Industry string
	FinalURL string
	Apps     []App
}

// App 一页应用幻灯片的内容
type App struct {
	Name      string
	Developer string // 不带 "By " 前缀
	Logo      []byte
	LogoMIME  string
}

// Builder 基于PPTX模板生成演示文稿：第一页封面，最后一页结尾，中间为应用页
type Builder struct {
	template []byte
	style    Style
	logger   *zap.Logger
}

// NewBuilder 读取并校验模板文件
func NewBuilder(templatePath string, style Style, logger *zap.Logger) (*Builder, error) {
	data, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return NewBuilderFromBytes(data, style, logger)
}

// NewBuilderFromBytes 使用内存中的模板
func NewBuilderFromBytes(data []byte, style Style, logger *zap.Logger) (*Builder, error) {
	if err := style.Validate(); err != nil {
		return nil, err
	}
	pkg, err := openPackage(data)
	if err != nil {
		return nil, err
	}
	refs, err := pkg.slides()
	if err != nil {
		return nil, err
	}
	if len(refs) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 slides, got %d", ErrInvalidTemplate, len(refs))
	}
	return &Builder{template: data, style: style, logger: logger}, nil
}

// ProgrammeSlides 模板中应用页的数量
func (b *Builder) ProgrammeSlides() int {
	pkg, err := openPackage(b.template)
	if err != nil {
		return 0
	}
	refs, err := pkg.slides()
	if err != nil {
		return 0
	}
	return len(refs) - 2
}

// Build 生成PPTX
func (b *Builder) Build(in Input) ([]byte, error) {
	if len(in.Apps) == 0 {
		return nil, errors.New("at least one app is required")
	}

	pkg, err := openPackage(b.template)
	if err != nil {
		return nil, err
	}
	refs, err := pkg.slides()
	if err != nil {
		return nil, err
	}

	if err := b.adjustSlideCount(pkg, refs, len(in.Apps)); err != nil {
		return nil, err
	}
	if refs, err = pkg.slides(); err != nil {
		return nil, err
	}

	for _, ref := range refs {
		if err := pkg.stripComments(ref); err != nil {
			return nil, err
		}
	}

	if err := b.fillCover(pkg, refs[0], in.Industry); err != nil {
		return nil, err
	}
	for i, app := range in.Apps {
		if err := b.fillApp(pkg, refs[i+1], app, i+1); err != nil {
			return nil, fmt.Errorf("slide %d: %w", i+2, err)
		}
	}
	if err := b.fillClosing(pkg, refs[len(refs)-1], in.Industry, in.FinalURL); err != nil {
		return nil, err
	}

	if err := pkg.setSlideCount(len(refs)); err != nil {
		return nil, err
	}

	b.logger.Debug("deck built",
		zap.String("industry", in.Industry),
		zap.Int("apps", len(in.Apps)),
		zap.Int("slides", len(refs)))

	return pkg.bytes()
}

// adjustSlideCount 复制或删除应用页，使其数量等于 need
func (b *Builder) adjustSlideCount(pkg *pptxPackage, refs []slideRef, need int) error {
	closing := refs[len(refs)-1]
	programme := refs[1 : len(refs)-1]

	for i := len(programme); i < need; i++ {
		if _, err := pkg.cloneSlide(programme[0], closing); err != nil {
			return fmt.Errorf("clone slide: %w", err)
		}
	}
	// 从末尾删除
	for i := len(programme) - 1; i >= need; i-- {
		if err := pkg.removeSlide(programme[i]); err != nil {
			return fmt.Errorf("remove slide: %w", err)
		}
	}
	return nil
}

func (b *Builder) fillCover(pkg *pptxPackage, ref slideRef, industry string) error {
	doc, err := pkg.xml(ref.part)
	if err != nil {
		return err
	}
	s := b.style
	for _, el := range topShapes(doc) {
		if !strings.Contains(shapeText(el), s.Placeholder) {
			continue
		}
		setText(el, s.Font, "ctr", paragraph{
			align: "ctr",
			runs: []run{
				{text: s.CoverPrefix, size: s.TitleSize, bold: true, color: s.DarkColor},
				{text: industry, size: s.TitleSize, bold: true, color: s.AccentColor},
				{brk: true},
				{text: s.CoverSuffix, size: s.TitleSize, bold: true, color: s.DarkColor},
			},
		})
	}
	return nil
}

func (b *Builder) fillClosing(pkg *pptxPackage, ref slideRef, industry, finalURL string) error {
	doc, err := pkg.xml(ref.part)
	if err != nil {
		return err
	}
	s := b.style
	for _, el := range topShapes(doc) {
		if !strings.Contains(shapeText(el), s.Placeholder) {
			continue
		}
		setText(el, s.Font, "ctr", paragraph{
			align: "r",
			runs: []run{
				{text: s.ClosingPrefix, size: s.TitleSize, bold: true, color: s.DarkColor},
				{text: industry, size: s.TitleSize, bold: true, color: s.AccentColor},
				{text: s.ClosingSuffix, size: s.TitleSize, bold: true, color: s.DarkColor},
			},
		})
	}

	if finalURL == "" {
		return nil
	}
	// 宽而矮的图片是 SFApps 按钮
	for _, el := range topShapes(doc) {
		if el.FullTag() != "p:pic" {
			continue
		}
		f, ok := frameOf(el)
		if !ok || f.cx <= 4*emuPerInch || f.cy >= 2*emuPerInch {
			continue
		}
		return b.linkPicture(pkg, ref, el, finalURL)
	}
	b.logger.Debug("closing slide has no button picture")
	return nil
}

func (b *Builder) linkPicture(pkg *pptxPackage, ref slideRef, pic *etree.Element, target string) error {
	rels, err := pkg.rels(ref.part)
	if err != nil {
		return err
	}
	cNvPr := pic.FindElement("p:nvPicPr/p:cNvPr")
	if cNvPr == nil {
		return nil
	}
	if old := cNvPr.SelectElement("a:hlinkClick"); old != nil {
		if rel := rels.byID(old.SelectAttrValue("r:id", "")); rel != nil {
			rels.remove(rel)
		}
		cNvPr.RemoveChild(old)
	}
	rID := rels.add(relTypeHyperlink, target, true)
	link := etree.NewElement("a:hlinkClick")
	link.CreateAttr("r:id", rID)
	// hlinkClick 必须在 extLst 之前
	cNvPr.InsertChildAt(0, link)
	return nil
}

func (b *Builder) fillApp(pkg *pptxPackage, ref slideRef, app App, number int) error {
	doc, err := pkg.xml(ref.part)
	if err != nil {
		return err
	}
	s := b.style

	shapes := topShapes(doc)
	logo := findLogoPicture(shapes)

	nameDone := false
	var backgrounds []frame
	for _, el := range shapes {
		if textBody(el) == nil {
			continue
		}
		text := shapeText(el)
		switch {
		case strings.Contains(text, "#"):
			setText(el, s.Font, "ctr", paragraph{
				runs: []run{{text: fmt.Sprintf(" #%d", number), size: s.NumberSize, bold: true, color: s.NumberColor}},
			})
		case strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), "by "):
			devText := s.DeveloperPrefix + app.Developer
			setText(el, s.Font, "ctr", paragraph{
				align: "l",
				runs:  []run{{text: devText, size: s.DeveloperSize, color: s.AccentColor}},
			})
			if f, ok := frameOf(el); ok {
				width := utils.TextWidth(devText, s.DeveloperSize, s.Font, false)
				width = utils.Clamp(width, s.DeveloperMinWidth, s.DeveloperMaxWidth)
				setExtent(el, int64(width*emuPerPoint), 0)
				backgrounds = append(backgrounds, f)
			}
		case !nameDone && strings.TrimSpace(text) != "":
			setText(el, s.Font, "ctr", paragraph{
				align: "l",
				runs:  []run{{text: app.Name, size: s.NameSize, bold: true, color: s.DarkColor}},
			})
			nameDone = true
		}
	}

	for _, f := range backgrounds {
		b.removeBackgrounds(shapes, logo, f)
	}

	if logo == nil {
		b.logger.Debug("no logo picture on slide", zap.Int("number", number))
		return nil
	}
	if len(app.Logo) == 0 {
		return nil
	}
	return b.replaceLogo(pkg, ref, logo, app)
}

// removeBackgrounds 删除开发者文本框附近没有文字的形状（彩色底框），logo 除外
func (b *Builder) removeBackgrounds(shapes []*etree.Element, logo *etree.Element, text frame) {
	tolerance := int64(b.style.BackgroundTolerance * emuPerPoint)
	for _, el := range shapes {
		if el == logo || el.Parent() == nil {
			continue
		}
		switch el.FullTag() {
		case "p:pic", "p:cxnSp":
		case "p:sp":
			if strings.TrimSpace(shapeText(el)) != "" {
				continue
			}
		default:
			continue
		}
		f, ok := frameOf(el)
		if !ok {
			continue
		}
		if abs(f.x-text.x) < tolerance && abs(f.y-text.y) < tolerance {
			removeShape(el)
		}
	}
}

// findLogoPicture 宽高都在 1~4 英寸之间、面积最大的图片
func findLogoPicture(shapes []*etree.Element) *etree.Element {
	var best *etree.Element
	var bestArea float64
	for _, el := range shapes {
		if el.FullTag() != "p:pic" {
			continue
		}
		f, ok := frameOf(el)
		if !ok {
			continue
		}
		w := float64(f.cx) / emuPerInch
		h := float64(f.cy) / emuPerInch
		if w <= 1 || w >= 4 || h <= 1 || h >= 4 {
			continue
		}
		if area := w * h; best == nil || area > bestArea {
			best, bestArea = el, area
		}
	}
	return best
}

// replaceLogo 写入新的图片部件并指向它，不修改可能被其他页共享的原图
func (b *Builder) replaceLogo(pkg *pptxPackage, ref slideRef, pic *etree.Element, app App) error {
	blip := pictureBlip(pic)
	if blip == nil {
		return nil
	}

	var (
		data      []byte
		ext, mime string
		cx, cy    int64
	)
	fitted, err := fitLogo(app.Logo, b.style.logoWidthPx(), b.style.logoHeightPx())
	if err != nil {
		b.logger.Warn("logo could not be decoded, embedding original bytes", zap.Error(err))
		data = app.Logo
		ext, mime = imageExt(app.LogoMIME, app.Logo)
		cx = int64(b.style.LogoWidth * emuPerPoint)
		cy = int64(b.style.LogoHeight * emuPerPoint)
	} else {
		data, ext, mime = fitted.data, fitted.ext, fitted.mime
		cx = int64(fitted.width) * emuPerPixel
		cy = int64(fitted.height) * emuPerPixel
	}

	media := pkg.uniqueName("ppt/media/sfapps_logo%d."+ext, 1)
	pkg.put(media, data)

	ct, err := pkg.contentTypes()
	if err != nil {
		return err
	}
	ct.ensureDefault(ext, mime)

	rels, err := pkg.rels(ref.part)
	if err != nil {
		return err
	}
	rID := rels.add(relTypeImage, relativeTarget(ref.part, media), false)
	blip.CreateAttr("r:embed", rID)
	// 去掉 SVG 等扩展引用，否则新版 PowerPoint 仍显示原图
	if extLst := blip.SelectElement("a:extLst"); extLst != nil {
		blip.RemoveChild(extLst)
	}

	setExtent(pic, cx, cy)
	return nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
