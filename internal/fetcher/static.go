package fetcher

import (
	"context"
	"fmt"
)

// StaticStrategy 直接请求HTML后用goquery解析
type StaticStrategy struct {
	pages  PageFetcher
	parser *ListingParser
}

// NewStaticStrategy 创建静态抓取策略
func NewStaticStrategy(pages PageFetcher) *StaticStrategy {
	return &StaticStrategy{
		pages:  pages,
		parser: NewListingParser(),
	}
}

// Name 策略名
func (s *StaticStrategy) Name() string {
	return "static"
}

// Extract 获取并解析列表页
func (s *StaticStrategy) Extract(ctx context.Context, listingURL string) (*Extraction, error) {
	html, err := s.pages.FetchPage(ctx, listingURL)
	if err != nil {
		return nil, err
	}
	result, err := s.parser.Parse(html, listingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}
	return result, nil
}
