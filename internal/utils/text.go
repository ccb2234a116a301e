package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	appNameSuffixes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*\|\s*.*AppExchange.*$`),
		regexp.MustCompile(`(?i)\s*\|\s*.*Salesforce.*$`),
		regexp.MustCompile(`(?i)\s+-\s+(Salesforce\s+)?AppExchange.*$`),
	}
	appNamePrefix = regexp.MustCompile(`(?i)^\s*Salesforce\s*-\s*`)
	byPrefix      = regexp.MustCompile(`(?i)^by\s+`)

	// 按优先级排列，第一个命中的模式生效
	developerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\w+)\s+is\s+the\s+top`),
		regexp.MustCompile(`(?i)By\s+(\w+)`),
		regexp.MustCompile(`(?i)from\s+(\w+)`),
		regexp.MustCompile(`(?i)developed\s+by\s+(\w+)`),
		regexp.MustCompile(`(?i)built\s+by\s+(\w+)`),
		regexp.MustCompile(`(?i)(\w+)\s+helps\s+teams`),
	}
	developerStopWords = map[string]bool{"the": true, "and": true, "this": true, "that": true}
)

// NormalizeSpace 合并连续空白并去掉首尾空白
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanAppName 去掉标题中 AppExchange / Salesforce 相关的后缀
func CleanAppName(name string) string {
	name = NormalizeSpace(name)
	for _, re := range appNameSuffixes {
		name = re.ReplaceAllString(name, "")
	}
	name = appNamePrefix.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// CleanDeveloper 规范化开发者名称，去掉 "By " 前缀
func CleanDeveloper(dev string) string {
	dev = NormalizeSpace(dev)
	dev = byPrefix.ReplaceAllString(dev, "")
	return strings.TrimSpace(dev)
}

// DeveloperFromText 从描述文本中猜测开发者，找不到返回空串
func DeveloperFromText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	for _, re := range developerPatterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if len(candidate) > 2 && !developerStopWords[strings.ToLower(candidate)] {
			return candidate
		}
	}
	return ""
}

// 每种字体的平均字宽系数（常规, 粗体）
var fontRatios = map[string][2]float64{
	"Poppins":         {0.6, 0.65},
	"Arial":           {0.55, 0.6},
	"Times New Roman": {0.5, 0.55},
}

// TextWidth 估算文本渲染宽度（pt），包含20%的留白
func TextWidth(text string, fontSize float64, fontName string, bold bool) float64 {
	ratio := 0.6
	if r, ok := fontRatios[fontName]; ok {
		ratio = r[0]
		if bold {
			ratio = r[1]
		}
	}
	base := float64(utf8.RuneCountInString(text)) * fontSize * ratio
	return base * 1.2
}

// Clamp 将 v 限制在 [lo, hi] 区间
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
