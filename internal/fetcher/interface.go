package fetcher

import "context"

// Strategy 一种列表页抓取策略
type Strategy interface {
	Name() string
	Extract(ctx context.Context, listingURL string) (*Extraction, error)
}

// PageFetcher 获取页面HTML
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// LogoFetcher 下载logo图片，返回内容和MIME
type LogoFetcher interface {
	FetchLogo(ctx context.Context, logoURL string) ([]byte, string, error)
}

// Extraction 单个策略的抓取结果，空字段表示未找到
type Extraction struct {
	Name      string `json:"name"`
	Developer string `json:"developer"`
	LogoURL   string `json:"logo_url"`
}

// Empty 是否一个字段都没有找到
func (e *Extraction) Empty() bool {
	return e == nil || (e.Name == "" && e.Developer == "" && e.LogoURL == "")
}

// Complete 三个字段是否都已找到
func (e *Extraction) Complete() bool {
	return e != nil && e.Name != "" && e.Developer != "" && e.LogoURL != ""
}

// fill 只填充仍为空的字段
func (e *Extraction) fill(name, developer, logoURL string) {
	if e.Name == "" {
		e.Name = name
	}
	if e.Developer == "" {
		e.Developer = developer
	}
	if e.LogoURL == "" {
		e.LogoURL = logoURL
	}
}
