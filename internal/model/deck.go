package model

// Format 导出格式
type Format string

const (
	FormatPPTX Format = "pptx"
	FormatPDF  Format = "pdf"
)

// MIME 返回格式对应的 Content-Type
func (f Format) MIME() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
}

// DeckRequest 生成请求
type DeckRequest struct {
	Industry string  `json:"industry"`
	FinalURL string  `json:"final_url"`
	Entries  []Entry `json:"entries"`
	Format   Format  `json:"format"`
}

// URLs 返回所有条目的链接
func (r *DeckRequest) URLs() []string {
	urls := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		urls[i] = e.URL
	}
	return urls
}

// PreviewSlide 预览中的一页
type PreviewSlide struct {
	Kind       string `json:"kind"` // cover | app | closing
	Title      string `json:"title"`
	Heading    string `json:"heading"`
	Subheading string `json:"subheading,omitempty"`
	Link       string `json:"link,omitempty"`
	Image      string `json:"image,omitempty"` // data URI
	NeedsInput bool   `json:"needs_input,omitempty"`
}

// Preview 预览数据
type Preview struct {
	Slides []PreviewSlide `json:"slides"`
}

// Artifact 生成的文件
type Artifact struct {
	Filename string `json:"filename"`
	Format   Format `json:"format"`
	Data     []byte `json:"-"`
	// Fallback 请求PDF但转换失败、实际返回PPTX时为true
	Fallback bool `json:"fallback"`
}

// MIME 文件的 Content-Type
func (a *Artifact) MIME() string {
	return a.Format.MIME()
}
