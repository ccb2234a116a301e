package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sfapps-deck-go/internal/cache"
	"sfapps-deck-go/internal/deck"
	"sfapps-deck-go/internal/fetcher"
	"sfapps-deck-go/internal/metrics"
	"sfapps-deck-go/internal/model"
	"sfapps-deck-go/internal/utils"
)

// CacheTTL 默认缓存过期时间
const CacheTTL = 24 * time.Hour

// ErrInvalidRequest 请求参数不合法
var ErrInvalidRequest = errors.New("invalid request")

// ListingExtractor 抓取单个列表页，失败时返回字段为空的结果
type ListingExtractor interface {
	Extract(ctx context.Context, listingURL string) *model.Listing
}

// DeckBuilder 根据数据填充模板
type DeckBuilder interface {
	Build(in deck.Input) ([]byte, error)
}

// PDFConverter PPTX 转 PDF
type PDFConverter interface {
	ToPDF(ctx context.Context, pptx []byte) ([]byte, error)
}

// ProgressFunc 单个条目解析完成时回调，index 从0开始。会被并发调用
type ProgressFunc func(index int, entry *model.ResolvedEntry)

// Options DeckService 依赖
type Options struct {
	Extractor   ListingExtractor
	Cache       cache.Cache
	CacheTTL    time.Duration
	Builder     DeckBuilder
	Converter   PDFConverter // 为 nil 时PDF请求直接返回PPTX
	Concurrency int
	MaxListings int
	Logger      *zap.Logger
}

// DeckService 抓取、预览和生成演示文稿
type DeckService struct {
	extractor   ListingExtractor
	cache       cache.Cache
	cacheTTL    time.Duration
	builder     DeckBuilder
	converter   PDFConverter
	concurrency int
	maxListings int
	logger      *zap.Logger
}

// NewDeckService 创建服务
func NewDeckService(opts Options) *DeckService {
	s := &DeckService{
		extractor:   opts.Extractor,
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		builder:     opts.Builder,
		converter:   opts.Converter,
		concurrency: opts.Concurrency,
		maxListings: opts.MaxListings,
		logger:      opts.Logger,
	}
	if s.cache == nil {
		s.cache = cache.NopCache{}
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = CacheTTL
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.maxListings < 1 {
		s.maxListings = 20
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// MaxListings 单次请求允许的最大条目数
func (s *DeckService) MaxListings() int {
	return s.maxListings
}

// Normalize 使用服务的条目上限校验请求
func (s *DeckService) Normalize(req *model.DeckRequest) (*model.DeckRequest, error) {
	return NormalizeRequest(req, s.maxListings)
}

// NormalizeRequest 去除空白，丢弃链接为空的行（连同其覆盖值），并校验请求
func NormalizeRequest(req *model.DeckRequest, maxListings int) (*model.DeckRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrInvalidRequest)
	}

	out := &model.DeckRequest{
		Industry: utils.NormalizeSpace(req.Industry),
		FinalURL: strings.TrimSpace(req.FinalURL),
		Format:   model.Format(strings.ToLower(strings.TrimSpace(string(req.Format)))),
	}
	if out.Industry == "" {
		return nil, fmt.Errorf("%w: industry is required", ErrInvalidRequest)
	}
	if out.Format == "" {
		out.Format = model.FormatPPTX
	}
	if out.Format != model.FormatPPTX && out.Format != model.FormatPDF {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidRequest, req.Format)
	}
	if out.FinalURL != "" && !isWebURL(out.FinalURL) {
		return nil, fmt.Errorf("%w: final url %q is not an http(s) url", ErrInvalidRequest, out.FinalURL)
	}

	for _, e := range req.Entries {
		link := strings.TrimSpace(e.URL)
		if link == "" {
			continue
		}
		if !isWebURL(link) {
			return nil, fmt.Errorf("%w: %q is not an http(s) url", ErrInvalidRequest, link)
		}
		out.Entries = append(out.Entries, model.Entry{
			URL: link,
			Override: model.Override{
				Name:      utils.NormalizeSpace(e.Override.Name),
				Developer: utils.CleanDeveloper(e.Override.Developer),
				Logo:      e.Override.Logo,
				LogoMIME:  e.Override.LogoMIME,
			},
		})
	}

	if len(out.Entries) < 1 {
		return nil, fmt.Errorf("%w: at least one app link is required", ErrInvalidRequest)
	}
	if len(out.Entries) > maxListings {
		return nil, fmt.Errorf("%w: at most %d app links are allowed, got %d", ErrInvalidRequest, maxListings, len(out.Entries))
	}
	return out, nil
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Resolve 并发解析所有条目，结果顺序与请求一致
func (s *DeckService) Resolve(ctx context.Context, req *model.DeckRequest, progress ProgressFunc) ([]model.ResolvedEntry, error) {
	results := make([]model.ResolvedEntry, len(req.Entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, entry := range req.Entries {
		g.Go(func() error {
			listing, fromCache := s.lookup(gctx, entry.URL)
			results[i] = resolveEntry(i+1, listing, entry.Override)
			results[i].FromCache = fromCache
			if progress != nil {
				progress(i, &results[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("listings resolved",
		zap.String("industry", req.Industry),
		zap.Int("count", len(results)),
		zap.Int("needs_input", countNeedsInput(results)))
	return results, nil
}

// lookup 先查缓存，未命中再抓取；只缓存名称抓取成功的结果
func (s *DeckService) lookup(ctx context.Context, listingURL string) (*model.Listing, bool) {
	cached, err := s.cache.Get(ctx, listingURL)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("cache lookup failed", zap.String("url", listingURL), zap.Error(err))
	case cached != nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		s.logger.Debug("cache hit", zap.String("url", listingURL))
		listing := cached.Listing
		return &listing, true
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	listing := s.extractor.Extract(ctx, listingURL)
	if listing.Extracted() && ctx.Err() == nil {
		if err := s.cache.Set(ctx, listingURL, listing, s.cacheTTL); err != nil {
			s.logger.Warn("cache store failed", zap.String("url", listingURL), zap.Error(err))
		}
	}
	return listing, false
}

// resolveEntry 合并抓取结果与人工覆盖：覆盖值只填补抓取失败的字段
func resolveEntry(number int, listing *model.Listing, o model.Override) model.ResolvedEntry {
	r := model.ResolvedEntry{
		Number:    number,
		Listing:   *listing,
		Name:      listing.Name,
		Developer: listing.Developer,
		Logo:      listing.Logo,
		LogoMIME:  listing.LogoMIME,
	}

	if !listing.NameFound {
		if o.Name != "" {
			r.Name = o.Name
		} else {
			r.Name = model.ManualInputRequired
			r.NeedsInput = true
		}
	}
	if !listing.DeveloperFound {
		if o.Developer != "" {
			r.Developer = o.Developer
		} else {
			r.Developer = model.ManualInputRequired
			r.NeedsInput = true
		}
	}
	if !listing.LogoFound && len(o.Logo) > 0 {
		r.Logo = o.Logo
		r.LogoMIME = o.LogoMIME
		if r.LogoMIME == "" {
			r.LogoMIME = fetcher.DetectMIME("", o.Logo)
		}
	}
	return r
}

func countNeedsInput(entries []model.ResolvedEntry) int {
	n := 0
	for _, e := range entries {
		if e.NeedsInput {
			n++
		}
	}
	return n
}

// Preview 解析条目并生成预览：封面、每个应用一页、结尾页
func (s *DeckService) Preview(ctx context.Context, req *model.DeckRequest, progress ProgressFunc) (*model.Preview, error) {
	entries, err := s.Resolve(ctx, req, progress)
	if err != nil {
		return nil, err
	}
	return BuildPreview(req, entries), nil
}

// BuildPreview 由解析结果组装预览数据
func BuildPreview(req *model.DeckRequest, entries []model.ResolvedEntry) *model.Preview {
	slides := make([]model.PreviewSlide, 0, len(entries)+2)
	slides = append(slides, model.PreviewSlide{
		Kind:    "cover",
		Title:   "Cover",
		Heading: fmt.Sprintf("Best Apps for %s Available on AppExchange", req.Industry),
	})

	for _, e := range entries {
		slide := model.PreviewSlide{
			Kind:       "app",
			Title:      fmt.Sprintf("App #%d", e.Number),
			Heading:    e.Name,
			Subheading: "By " + e.Developer,
			Link:       e.Listing.URL,
			NeedsInput: e.NeedsInput,
		}
		if len(e.Logo) > 0 {
			slide.Image = dataURI(e.LogoMIME, e.Logo)
		}
		slides = append(slides, slide)
	}

	slides = append(slides, model.PreviewSlide{
		Kind:    "closing",
		Title:   "Closing",
		Heading: fmt.Sprintf("View Full List of Best Salesforce Apps for %s", req.Industry),
		Link:    req.FinalURL,
	})
	return &model.Preview{Slides: slides}
}

func dataURI(mime string, data []byte) string {
	if mime == "" {
		mime = fetcher.DetectMIME("", data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Generate 解析条目并生成文件。PDF转换失败时退回PPTX，并标记 Fallback
func (s *DeckService) Generate(ctx context.Context, req *model.DeckRequest) (*model.Artifact, error) {
	entries, err := s.Resolve(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	return s.Render(ctx, req, entries)
}

// Render 用已解析的条目生成文件
func (s *DeckService) Render(ctx context.Context, req *model.DeckRequest, entries []model.ResolvedEntry) (*model.Artifact, error) {
	in := deck.Input{
		Industry: req.Industry,
		FinalURL: req.FinalURL,
		Apps:     make([]deck.App, len(entries)),
	}
	for i, e := range entries {
		in.Apps[i] = deck.App{
			Name:      e.Name,
			Developer: e.Developer,
			Logo:      e.Logo,
			LogoMIME:  e.LogoMIME,
		}
	}

	pptx, err := s.builder.Build(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build deck: %w", err)
	}

	artifact := &model.Artifact{
		Filename: DeckFilename(req.Industry, model.FormatPPTX),
		Format:   model.FormatPPTX,
		Data:     pptx,
	}

	if req.Format == model.FormatPDF {
		if pdf, ok := s.convert(ctx, pptx); ok {
			artifact = &model.Artifact{
				Filename: DeckFilename(req.Industry, model.FormatPDF),
				Format:   model.FormatPDF,
				Data:     pdf,
			}
		} else {
			artifact.Fallback = true
		}
	}

	metrics.DecksGenerated.WithLabelValues(string(artifact.Format)).Inc()
	s.logger.Info("deck generated",
		zap.String("industry", req.Industry),
		zap.String("format", string(artifact.Format)),
		zap.Bool("fallback", artifact.Fallback),
		zap.Int("bytes", len(artifact.Data)))
	return artifact, nil
}

func (s *DeckService) convert(ctx context.Context, pptx []byte) ([]byte, bool) {
	if s.converter == nil {
		metrics.PDFConversions.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Warn("pdf requested but no converter configured, returning pptx")
		return nil, false
	}
	pdf, err := s.converter.ToPDF(ctx, pptx)
	if err != nil {
		metrics.PDFConversions.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Warn("pdf conversion failed, returning pptx", zap.Error(err))
		return nil, false
	}
	metrics.PDFConversions.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return pdf, true
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DeckFilename Best_Apps_for_<industry>.<ext>，行业名中ASCII字母数字以外的字符替换为下划线，
// Content-Disposition 保持普通的 filename 参数
func DeckFilename(industry string, format model.Format) string {
	name := strings.Trim(unsafeFilenameChars.ReplaceAllString(industry, "_"), "_")
	if name == "" {
		name = "Salesforce"
	}
	return fmt.Sprintf("Best_Apps_for_%s.%s", name, format)
}
