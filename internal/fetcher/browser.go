package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"sfapps-deck-go/internal/utils"
)

// 列表页由 Lightning Web Components 渲染，字段在多层 shadow root 中
const deepQueryJS = `() => {
	const deepQuery = (root, selector) => {
		const found = root.querySelector(selector);
		if (found) return found;
		for (const el of root.querySelectorAll('*')) {
			if (el.shadowRoot) {
				const inner = deepQuery(el.shadowRoot, selector);
				if (inner) return inner;
			}
		}
		return null;
	};
	const text = (sel) => {
		const el = deepQuery(document, sel);
		return el ? (el.textContent || '').trim() : '';
	};
	const logo = deepQuery(document, '.listing-logo img');
	const og = document.querySelector('meta[property="og:image"]');
	return {
		name: text('.listing-title h1'),
		developer: text('.listing-title p'),
		logo: logo ? (logo.currentSrc || logo.src || '') : '',
		title: document.title || '',
		ogImage: og ? (og.content || '') : '',
	};
}`

const browserPollInterval = 500 * time.Millisecond

// BrowserStrategy 使用无头Chrome渲染页面后提取字段
type BrowserStrategy struct {
	bin     string
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowserStrategy 创建浏览器抓取策略，浏览器在第一次使用时启动
func NewBrowserStrategy(bin string, timeout time.Duration, logger *zap.Logger) *BrowserStrategy {
	return &BrowserStrategy{
		bin:     bin,
		timeout: timeout,
		logger:  logger,
	}
}

// Name 策略名
func (b *BrowserStrategy) Name() string {
	return "browser"
}

func (b *BrowserStrategy) ensureBrowser() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().Headless(true).Set(flags.Flag("no-sandbox"))
	if b.bin != "" {
		l = l.Bin(b.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	b.launcher = l
	b.browser = browser
	b.logger.Info("headless browser started")
	return browser, nil
}

// Extract 渲染列表页并轮询直到应用名出现或超时
func (b *BrowserStrategy) Extract(ctx context.Context, listingURL string) (*Extraction, error) {
	browser, err := b.ensureBrowser()
	if err != nil {
		return nil, err
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create incognito context: %w", err)
	}
	defer incognito.Close()

	page, err := incognito.Context(ctx).Page(proto.TargetCreateTarget{URL: listingURL})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	_ = page.WaitLoad()

	var last rawBrowserResult
	for {
		res, err := page.Evaluate(rod.Eval(deepQueryJS))
		if err == nil {
			last = rawBrowserResult{
				Name:      res.Value.Get("name").Str(),
				Developer: res.Value.Get("developer").Str(),
				Logo:      res.Value.Get("logo").Str(),
				Title:     res.Value.Get("title").Str(),
				OGImage:   res.Value.Get("ogImage").Str(),
			}
			if last.Name != "" {
				break
			}
		}

		select {
		case <-ctx.Done():
			b.logger.Debug("browser poll timed out", zap.String("url", listingURL))
			return last.toExtraction(listingURL), nil
		case <-time.After(browserPollInterval):
		}
	}

	return last.toExtraction(listingURL), nil
}

// Close 关闭浏览器
func (b *BrowserStrategy) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.launcher.Cleanup()
	b.browser = nil
	b.launcher = nil
	return err
}

type rawBrowserResult struct {
	Name      string
	Developer string
	Logo      string
	Title     string
	OGImage   string
}

// toExtraction 渲染结果转换为抓取结果，缺失字段回退到文档标题和 og:image
func (r rawBrowserResult) toExtraction(pageURL string) *Extraction {
	result := &Extraction{
		Name:      validName(r.Name),
		Developer: utils.CleanDeveloper(r.Developer),
		LogoURL:   resolveLogoURL(pageURL, r.Logo),
	}
	if result.Name == "" {
		result.Name = validName(titleName(r.Title))
	}
	if result.LogoURL == "" {
		result.LogoURL = resolveLogoURL(pageURL, r.OGImage)
	}
	return result
}
