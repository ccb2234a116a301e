package fetcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sfapps-deck-go/internal/metrics"
	"sfapps-deck-go/internal/model"
)

// Extractor 依次运行抓取策略并按字段合并结果
type Extractor struct {
	strategies []Strategy
	logos      LogoFetcher
	logger     *zap.Logger
}

// NewExtractor 创建提取器，strategies 按优先级排列
func NewExtractor(logos LogoFetcher, logger *zap.Logger, strategies ...Strategy) *Extractor {
	return &Extractor{
		strategies: strategies,
		logos:      logos,
		logger:     logger,
	}
}

// Strategies 返回策略名，用于日志
func (e *Extractor) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract 提取单个列表页，抓取失败不返回错误，未找到的字段保持为空
func (e *Extractor) Extract(ctx context.Context, listingURL string) *model.Listing {
	merged := &Extraction{}
	listing := &model.Listing{URL: listingURL}

	for _, strategy := range e.strategies {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		result, err := strategy.Extract(ctx, listingURL)
		metrics.ExtractionDuration.WithLabelValues(strategy.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.ExtractionAttempts.WithLabelValues(strategy.Name(), metrics.OutcomeError).Inc()
			e.logger.Warn("strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.String("url", listingURL),
				zap.Error(err))
			continue
		}

		switch {
		case result.Complete():
			metrics.ExtractionAttempts.WithLabelValues(strategy.Name(), metrics.OutcomeSuccess).Inc()
		case result.Empty():
			metrics.ExtractionAttempts.WithLabelValues(strategy.Name(), metrics.OutcomeEmpty).Inc()
			continue
		default:
			metrics.ExtractionAttempts.WithLabelValues(strategy.Name(), metrics.OutcomePartial).Inc()
		}

		before := *merged
		merged.fill(result.Name, result.Developer, result.LogoURL)
		if before != *merged {
			listing.AddSource(strategy.Name())
		}
		if merged.Complete() {
			break
		}
	}

	listing.Name = merged.Name
	listing.Developer = merged.Developer
	listing.LogoURL = merged.LogoURL
	listing.NameFound = merged.Name != ""
	listing.DeveloperFound = merged.Developer != ""

	if merged.LogoURL != "" && e.logos != nil {
		data, mime, err := e.logos.FetchLogo(ctx, merged.LogoURL)
		if err != nil {
			e.logger.Warn("logo download failed",
				zap.String("url", listingURL),
				zap.String("logo_url", merged.LogoURL),
				zap.Error(err))
		} else {
			listing.Logo = data
			listing.LogoMIME = mime
			listing.LogoFound = true
		}
	}

	e.logger.Info("listing extracted",
		zap.String("url", listingURL),
		zap.Bool("name", listing.NameFound),
		zap.Bool("developer", listing.DeveloperFound),
		zap.Bool("logo", listing.LogoFound),
		zap.Strings("sources", listing.Sources))

	return listing
}
