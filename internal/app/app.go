package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sfapps-deck-go/config"
	"sfapps-deck-go/internal/cache"
	"sfapps-deck-go/internal/convert"
	"sfapps-deck-go/internal/deck"
	"sfapps-deck-go/internal/fetcher"
	"sfapps-deck-go/internal/service"
)

// App 组装好的运行时依赖
type App struct {
	Config    *config.Config
	Extractor *fetcher.Extractor
	Builder   *deck.Builder
	Converter *convert.LibreOffice
	Service   *service.DeckService

	closers []func() error
}

// New 按配置创建缓存、抓取策略、模板生成器和转换器
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg}

	// 缓存连接失败时退回内存缓存，不影响服务启动
	c, closeCache, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		logger.Warn("cache backend unavailable, using memory cache",
			zap.String("backend", cfg.Cache.Backend),
			zap.Error(err))
		c, closeCache = cache.NewMemoryCache(), func() error { return nil }
	} else {
		logger.Info("using cache backend", zap.String("backend", cfg.Cache.Backend))
	}
	a.closers = append(a.closers, closeCache)

	style, err := deck.LoadStyle(cfg.StylePath)
	if err != nil {
		a.Close()
		return nil, err
	}
	builder, err := deck.NewBuilder(cfg.TemplatePath, style, logger.Named("deck"))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Builder = builder

	httpClient := fetcher.NewHTTPClient(cfg.UserAgent, cfg.FetchTimeout, cfg.LogoTimeout)
	// 启用浏览器时优先渲染页面，静态解析补齐缺失字段
	var strategies []fetcher.Strategy
	if cfg.Browser.Enabled {
		browser := fetcher.NewBrowserStrategy(cfg.Browser.Bin, cfg.Browser.Timeout, logger.Named("browser"))
		strategies = append(strategies, browser)
		a.closers = append(a.closers, browser.Close)
	}
	strategies = append(strategies, fetcher.NewStaticStrategy(httpClient))
	a.Extractor = fetcher.NewExtractor(httpClient, logger.Named("fetcher"), strategies...)

	a.Converter = convert.NewLibreOffice(cfg.Converter.Binary, cfg.Converter.Timeout, logger.Named("convert"))
	var converter service.PDFConverter
	if a.Converter.Available() {
		converter = a.Converter
	} else {
		logger.Warn("pdf converter not found, pdf requests will return pptx", zap.String("binary", cfg.Converter.Binary))
	}

	a.Service = service.NewDeckService(service.Options{
		Extractor:   a.Extractor,
		Cache:       c,
		CacheTTL:    cfg.Cache.TTL,
		Builder:     builder,
		Converter:   converter,
		Concurrency: cfg.Concurrency,
		MaxListings: cfg.MaxListings,
		Logger:      logger.Named("service"),
	})

	logger.Info("deck service ready",
		zap.String("template", cfg.TemplatePath),
		zap.Int("programme_slides", builder.ProgrammeSlides()),
		zap.Strings("strategies", a.Extractor.Strategies()))
	return a, nil
}

// Close 释放浏览器和缓存连接
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close: %w", errors.Join(errs...))
	}
	return nil
}
