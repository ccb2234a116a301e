package deck

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// Style 幻灯片文字样式和固定文案
type Style struct {
	Font        string `yaml:"font"`
	DarkColor   string `yaml:"dark_color"`
	AccentColor string `yaml:"accent_color"`
	NumberColor string `yaml:"number_color"`

	TitleSize     float64 `yaml:"title_size"`
	NumberSize    float64 `yaml:"number_size"`
	NameSize      float64 `yaml:"name_size"`
	DeveloperSize float64 `yaml:"developer_size"`

	Placeholder     string `yaml:"placeholder"`
	CoverPrefix     string `yaml:"cover_prefix"`
	CoverSuffix     string `yaml:"cover_suffix"`
	ClosingPrefix   string `yaml:"closing_prefix"`
	ClosingSuffix   string `yaml:"closing_suffix"`
	DeveloperPrefix string `yaml:"developer_prefix"`

	// 开发者文本框宽度范围（pt）
	DeveloperMinWidth float64 `yaml:"developer_min_width"`
	DeveloperMaxWidth float64 `yaml:"developer_max_width"`
	// 开发者文本框附近多少 pt 内的背景形状会被删除
	BackgroundTolerance float64 `yaml:"background_tolerance"`

	// logo 框（pt），图片按 96 DPI 缩放到框内
	LogoWidth  float64 `yaml:"logo_width"`
	LogoHeight float64 `yaml:"logo_height"`
}

// DefaultStyle 模板的默认样式
func DefaultStyle() Style {
	return Style{
		Font:                "Poppins",
		DarkColor:           "163560",
		AccentColor:         "3CC0FF",
		NumberColor:         "FFFFFF",
		TitleSize:           59,
		NumberSize:          40,
		NameSize:            40,
		DeveloperSize:       27,
		Placeholder:         "$industry",
		CoverPrefix:         "Best Apps for ",
		CoverSuffix:         "Available on ",
		ClosingPrefix:       "Apps for ",
		ClosingSuffix:       " at",
		DeveloperPrefix:     "By ",
		DeveloperMinWidth:   150,
		DeveloperMaxWidth:   400,
		BackgroundTolerance: 100,
		LogoWidth:           207,
		LogoHeight:          161,
	}
}

// LoadStyle 读取 YAML 样式文件，未设置的字段使用默认值；path 为空时返回默认样式
func LoadStyle(path string) (Style, error) {
	style := DefaultStyle()
	if path == "" {
		return style, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return style, fmt.Errorf("failed to read style file: %w", err)
	}
	if err := yaml.Unmarshal(data, &style); err != nil {
		return style, fmt.Errorf("failed to parse style file: %w", err)
	}
	if err := style.Validate(); err != nil {
		return style, err
	}
	return style, nil
}

// Validate 校验颜色和尺寸
func (s Style) Validate() error {
	for name, c := range map[string]string{"dark_color": s.DarkColor, "accent_color": s.AccentColor, "number_color": s.NumberColor} {
		if !hexColor.MatchString(c) {
			return fmt.Errorf("style %s must be a 6 digit hex colour, got %q", name, c)
		}
	}
	if s.TitleSize <= 0 || s.NumberSize <= 0 || s.NameSize <= 0 || s.DeveloperSize <= 0 {
		return fmt.Errorf("style font sizes must be positive")
	}
	if s.DeveloperMinWidth <= 0 || s.DeveloperMaxWidth < s.DeveloperMinWidth {
		return fmt.Errorf("style developer width range is invalid")
	}
	if s.logoWidthPx() <= 0 || s.logoHeightPx() <= 0 {
		return fmt.Errorf("style logo box must be positive")
	}
	if s.Placeholder == "" {
		return fmt.Errorf("style placeholder must not be empty")
	}
	return nil
}

func (s Style) logoWidthPx() int {
	return int(s.LogoWidth * 96 / 72)
}

func (s Style) logoHeightPx() int {
	return int(s.LogoHeight * 96 / 72)
}
