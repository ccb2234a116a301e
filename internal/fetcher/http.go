package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxLogoBytes logo图片大小上限
const MaxLogoBytes = 5 << 20

// ErrLogoTooLarge logo超过大小上限
var ErrLogoTooLarge = errors.New("logo exceeds size limit")

// HTTPClient 以浏览器请求头获取列表页和logo
type HTTPClient struct {
	httpClient  *http.Client
	userAgent   string
	logoTimeout time.Duration
}

// NewHTTPClient 创建HTTP获取器
func NewHTTPClient(userAgent string, pageTimeout, logoTimeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{
			Timeout: pageTimeout,
		},
		userAgent:   userAgent,
		logoTimeout: logoTimeout,
	}
}

func (c *HTTPClient) setHeaders(req *http.Request, accept string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
}

// FetchPage 获取页面HTML，非2xx视为错误
func (c *HTTPClient) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// FetchLogo 下载logo图片
func (c *HTTPClient) FetchLogo(ctx context.Context, logoURL string) ([]byte, string, error) {
	if c.logoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.logoTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, "image/avif,image/webp,image/png,image/*,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("logo returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxLogoBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read logo: %w", err)
	}
	if len(data) > MaxLogoBytes {
		return nil, "", ErrLogoTooLarge
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty logo response")
	}

	return data, DetectMIME(resp.Header.Get("Content-Type"), data), nil
}

// DetectMIME 优先使用响应头中的图片类型，否则按内容嗅探
func DetectMIME(contentType string, data []byte) string {
	ct := strings.TrimSpace(strings.Split(contentType, ";")[0])
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return http.DetectContentType(data)
}
