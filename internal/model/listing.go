package model

import "strings"

// ManualInputRequired 抓取失败且无人工覆盖时展示给用户的占位文本
const ManualInputRequired = "⚠️ Manual input required"

// Listing 从 AppExchange 页面提取到的应用信息
type Listing struct {
	URL       string   `json:"url"`
	Name      string   `json:"name"`
	Developer string   `json:"developer"` // 不带 "By " 前缀
	LogoURL   string   `json:"logo_url,omitempty"`
	Logo      []byte   `json:"logo,omitempty"`
	LogoMIME  string   `json:"logo_mime,omitempty"`
	Sources   []string `json:"sources,omitempty"` // 贡献过字段的策略名

	NameFound      bool `json:"name_found"`
	DeveloperFound bool `json:"developer_found"`
	LogoFound      bool `json:"logo_found"`
}

// Extracted 名称是否提取成功，决定整条记录是否算抓取成功
func (l *Listing) Extracted() bool {
	return l.NameFound
}

// Complete 三个字段是否都已获得
func (l *Listing) Complete() bool {
	return l.NameFound && l.DeveloperFound && l.LogoFound
}

// AddSource 记录贡献字段的策略（去重）
func (l *Listing) AddSource(name string) {
	for _, s := range l.Sources {
		if s == name {
			return
		}
	}
	l.Sources = append(l.Sources, name)
}

// Override 用户手动填写的字段，只在对应字段抓取失败时生效
type Override struct {
	Name      string `json:"name,omitempty"`
	Developer string `json:"developer,omitempty"`
	Logo      []byte `json:"logo,omitempty"`
	LogoMIME  string `json:"logo_mime,omitempty"`
}

// IsZero 是否没有任何覆盖值
func (o Override) IsZero() bool {
	return strings.TrimSpace(o.Name) == "" && strings.TrimSpace(o.Developer) == "" && len(o.Logo) == 0
}

// Entry 演示文稿中的一个应用位
type Entry struct {
	URL      string   `json:"url"`
	Override Override `json:"override,omitempty"`
}

// ResolvedEntry 合并抓取结果与人工覆盖之后，用于生成幻灯片的数据
type ResolvedEntry struct {
	Number     int     `json:"number"`
	Listing    Listing `json:"listing"`
	Name       string  `json:"name"`
	Developer  string  `json:"developer"`
	Logo       []byte  `json:"-"`
	LogoMIME   string  `json:"logo_mime,omitempty"`
	NeedsInput bool    `json:"needs_input"`
	FromCache  bool    `json:"from_cache"`
}
