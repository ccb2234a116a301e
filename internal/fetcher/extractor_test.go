package fetcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeStrategy struct {
	name   string
	result *Extraction
	err    error
	calls  int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Extract(ctx context.Context, listingURL string) (*Extraction, error) {
	f.calls++
	return f.result, f.err
}

type fakeLogos struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeLogos) FetchLogo(ctx context.Context, logoURL string) ([]byte, string, error) {
	f.urls = append(f.urls, logoURL)
	if f.err != nil {
		return nil, "", f.err
	}
	return f.data, "image/png", nil
}

func TestExtractorMergesFieldByField(t *testing.T) {
	first := &fakeStrategy{name: "browser", result: &Extraction{Name: "TaskRay"}}
	broken := &fakeStrategy{name: "broken", err: errors.New("boom")}
	second := &fakeStrategy{name: "static", result: &Extraction{Name: "Other", Developer: "TaskRay Inc", LogoURL: "https://cdn/logo.png"}}
	logos := &fakeLogos{data: pngHeader}

	listing := NewExtractor(logos, zap.NewNop(), first, broken, second).Extract(context.Background(), listingURL)

	assert.Equal(t, "TaskRay", listing.Name)
	assert.Equal(t, "TaskRay Inc", listing.Developer)
	assert.True(t, listing.NameFound)
	assert.True(t, listing.DeveloperFound)
	assert.True(t, listing.LogoFound)
	assert.Equal(t, pngHeader, listing.Logo)
	assert.Equal(t, []string{"browser", "static"}, listing.Sources)
	assert.Equal(t, []string{"https://cdn/logo.png"}, logos.urls)
}

func TestExtractorStopsWhenComplete(t *testing.T) {
	first := &fakeStrategy{name: "static", result: &Extraction{Name: "A", Developer: "B", LogoURL: "https://cdn/a.png"}}
	second := &fakeStrategy{name: "browser", result: &Extraction{Name: "C"}}

	listing := NewExtractor(&fakeLogos{data: pngHeader}, zap.NewNop(), first, second).Extract(context.Background(), listingURL)

	assert.Equal(t, "A", listing.Name)
	assert.Equal(t, 0, second.calls)
}

func TestExtractorNeverFails(t *testing.T) {
	broken := &fakeStrategy{name: "static", err: errors.New("status 503")}
	empty := &fakeStrategy{name: "browser", result: &Extraction{}}

	listing := NewExtractor(&fakeLogos{}, zap.NewNop(), broken, empty).Extract(context.Background(), listingURL)

	assert.Equal(t, listingURL, listing.URL)
	assert.False(t, listing.NameFound)
	assert.False(t, listing.DeveloperFound)
	assert.False(t, listing.LogoFound)
	assert.Empty(t, listing.Sources)
}

func TestExtractorLogoDownloadFailure(t *testing.T) {
	s := &fakeStrategy{name: "static", result: &Extraction{Name: "A", LogoURL: "https://cdn/a.png"}}

	listing := NewExtractor(&fakeLogos{err: errors.New("timeout")}, zap.NewNop(), s).Extract(context.Background(), listingURL)

	assert.True(t, listing.NameFound)
	assert.Equal(t, "https://cdn/a.png", listing.LogoURL)
	assert.False(t, listing.LogoFound)
	assert.Nil(t, listing.Logo)
}

func TestExtractorStrategies(t *testing.T) {
	e := NewExtractor(nil, zap.NewNop(), &fakeStrategy{name: "browser"}, NewStaticStrategy(nil))
	assert.Equal(t, []string{"browser", "static"}, e.Strategies())
}
