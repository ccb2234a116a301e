package fetcher

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sfapps-deck-go/internal/utils"
)

var (
	nameSelectors = []string{
		`h1[type="style"]`,
		`.listing-title h1`,
		`[data-testid="listing-title"]`,
		`h1`,
	}
	developerSelectors = []string{
		`p[type="style"]`,
		`.listing-title p`,
		`[data-testid="listing-publisher"]`,
		`.appPublisher`,
		`.publisher-name`,
		`.developer-name`,
	}
	logoSelectors = []string{
		`img.ads-image`,
		`.ads-image`,
		`.listing-logo img`,
		`.summary img`,
		`img[class*="ads-image"]`,
		`.appIcon img`,
		`.app-logo img`,
		`.listing-icon img`,
	}
	logoAttrs = []string{"src", "data-src", "data-original", "data-lazy"}

	// JSON-LD 中可能表示开发者的字段
	developerKeys = []string{"publisher", "author", "developer", "organization", "creator"}
)

// ListingParser AppExchange 列表页HTML解析器
type ListingParser struct{}

// NewListingParser 创建解析器
func NewListingParser() *ListingParser {
	return &ListingParser{}
}

// Parse 解析列表页，按优先级依次尝试各个步骤，每一步只填充仍为空的字段
func (p *ListingParser) Parse(html, pageURL string) (*Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	result := &Extraction{}
	steps := []func(*goquery.Document) (string, string, string){
		p.fromSelectors,
		p.fromJSONLD,
		p.fromJSONScripts,
		p.fromOpenGraph,
		p.fromMetaText,
		p.fromTitle,
	}
	for _, step := range steps {
		name, developer, logo := step(doc)
		result.fill(validName(name), utils.CleanDeveloper(developer), resolveLogoURL(pageURL, logo))
		if result.Complete() {
			break
		}
	}

	return result, nil
}

func (p *ListingParser) fromSelectors(doc *goquery.Document) (string, string, string) {
	name := firstText(doc, nameSelectors)

	developer := firstText(doc, developerSelectors)
	if developer == "" {
		doc.Find("p").EachWithBreak(func(i int, s *goquery.Selection) bool {
			text := utils.NormalizeSpace(s.Text())
			if strings.HasPrefix(text, "By ") {
				developer = text
				return false
			}
			return true
		})
	}

	logo := ""
	for _, sel := range logoSelectors {
		doc.Find(sel).EachWithBreak(func(i int, s *goquery.Selection) bool {
			// .ads-image 可能是容器
			if !s.Is("img") {
				s = s.Find("img").First()
			}
			for _, attr := range logoAttrs {
				if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
					logo = strings.TrimSpace(v)
					return false
				}
			}
			return true
		})
		if logo != "" {
			break
		}
	}

	return name, developer, logo
}

func (p *ListingParser) fromJSONLD(doc *goquery.Document) (string, string, string) {
	var name, developer, logo string
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		// 只看顶层对象，publisher 等嵌套对象的 name 属于开发者
		for _, obj := range topLevelObjects(data) {
			if n := stringField(obj, "name"); n != "" && name == "" && !strings.Contains(n, "AppExchange") {
				name = n
			}
			if logo == "" {
				logo = imageField(obj["image"])
			}
			if developer == "" {
				for _, key := range developerKeys {
					if d := nameField(obj[key]); d != "" {
						developer = d
						break
					}
				}
			}
		}
	})
	return name, developer, logo
}

// jsonScriptPairs 内嵌JSON中应用名、开发者和图标的字段组合
var jsonScriptPairs = []struct {
	name, developer string
	logos           []string
}{
	{name: "name", developer: "publisher", logos: []string{"logoUrl", "logo"}},
	{name: "title", developer: "developer", logos: []string{"imageUrl", "image"}},
}

func (p *ListingParser) fromJSONScripts(doc *goquery.Document) (string, string, string) {
	var name, developer, logo string
	doc.Find(`script[type="application/json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		walkObjects(data, 0, func(obj map[string]any) bool {
			for _, pair := range jsonScriptPairs {
				n, d := stringField(obj, pair.name), nameField(obj[pair.developer])
				if n == "" || d == "" {
					continue
				}
				name, developer = n, d
				for _, key := range pair.logos {
					if logo = imageField(obj[key]); logo != "" {
						break
					}
				}
				return true
			}
			return false
		})
		return name == ""
	})
	return name, developer, logo
}

func (p *ListingParser) fromOpenGraph(doc *goquery.Document) (string, string, string) {
	name := metaContent(doc, `meta[property="og:title"]`)
	if idx := strings.Index(name, "|"); idx >= 0 {
		name = name[:idx]
	}
	logo := metaContent(doc, `meta[property="og:image"]`)
	developer := utils.DeveloperFromText(metaContent(doc, `meta[property="og:description"]`))
	return utils.CleanAppName(name), developer, logo
}

func (p *ListingParser) fromMetaText(doc *goquery.Document) (string, string, string) {
	if d := metaContent(doc, `meta[name="twitter:data1"]`); d != "" {
		return "", d, ""
	}
	if d := utils.DeveloperFromText(metaContent(doc, `meta[name="description"]`)); d != "" {
		return "", d, ""
	}

	// 短文本节点 "By X"
	developer := ""
	doc.Find("span, div, a, li").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := utils.NormalizeSpace(s.Text())
		if len(text) < 60 && strings.HasPrefix(text, "By ") && len(text) > 3 {
			developer = text
			return false
		}
		return true
	})
	return "", developer, ""
}

func (p *ListingParser) fromTitle(doc *goquery.Document) (string, string, string) {
	return titleName(doc.Find("title").First().Text()), "", ""
}

// titleName 从文档标题中截取应用名
func titleName(title string) string {
	title = utils.NormalizeSpace(title)
	if idx := strings.Index(title, "|"); idx >= 0 {
		title = title[:idx]
	}
	if idx := strings.Index(title, " - AppExchange"); idx >= 0 {
		title = title[:idx]
	}
	return utils.CleanAppName(title)
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := utils.NormalizeSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return utils.NormalizeSpace(v)
}

// validName 过滤掉站点标题之类的无效名称
func validName(name string) string {
	name = utils.CleanAppName(name)
	if name == "" || strings.EqualFold(name, "AppExchange") || len(name) > 200 {
		return ""
	}
	return name
}

// resolveLogoURL 补全协议和相对路径，只保留 http(s)
func resolveLogoURL(pageURL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		base, err := url.Parse(pageURL)
		if err != nil || !base.IsAbs() {
			return ""
		}
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	return ref.String()
}

// maxJSONDepth 内嵌JSON的最大搜索深度
const maxJSONDepth = 5

// walkObjects 深度优先遍历JSON中的对象，visit 返回 true 时停止。
// 对象的键按字典序访问，保证同一页面每次结果一致
func walkObjects(v any, depth int, visit func(map[string]any) bool) bool {
	if depth > maxJSONDepth {
		return false
	}
	switch t := v.(type) {
	case map[string]any:
		if visit(t) {
			return true
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if walkObjects(t[k], depth+1, visit) {
				return true
			}
		}
	case []any:
		for _, child := range t {
			if walkObjects(child, depth+1, visit) {
				return true
			}
		}
	}
	return false
}

// topLevelObjects JSON-LD 的顶层对象：对象本身、顶层数组元素或 @graph 元素
func topLevelObjects(v any) []map[string]any {
	var out []map[string]any
	switch t := v.(type) {
	case map[string]any:
		out = append(out, t)
		if graph, ok := t["@graph"].([]any); ok {
			out = append(out, topLevelObjects(graph)...)
		}
	case []any:
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, topLevelObjects(obj)...)
			}
		}
	}
	return out
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return utils.NormalizeSpace(s)
}

// nameField 字符串或 {name: ...}
func nameField(v any) string {
	switch t := v.(type) {
	case string:
		return utils.NormalizeSpace(t)
	case map[string]any:
		return stringField(t, "name")
	}
	return ""
}

// imageField 字符串、{url: ...} 或数组的第一个元素
func imageField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return stringField(t, "url")
	case []any:
		if len(t) > 0 {
			return imageField(t[0])
		}
	}
	return ""
}
