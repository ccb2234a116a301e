package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sfapps-deck-go/config"
	"sfapps-deck-go/internal/deck"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	tmpl, err := deck.StarterTemplate(2)
	require.NoError(t, err)
	path := filepath.Join(dir, "template.pptx")
	require.NoError(t, os.WriteFile(path, tmpl, 0644))

	return &config.Config{
		TemplatePath: path,
		MaxListings:  20,
		Concurrency:  2,
		Cache:        config.CacheConfig{Backend: "memory"},
		Converter:    config.ConverterConfig{Binary: "sfapps-no-such-binary"},
	}
}

func TestNew(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 2, a.Builder.ProgrammeSlides())
	assert.Equal(t, []string{"static"}, a.Extractor.Strategies())
	assert.False(t, a.Converter.Available())
	assert.Equal(t, 20, a.Service.MaxListings())
}

func TestNewBrowserEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Browser.Enabled = true

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"browser", "static"}, a.Extractor.Strategies())
	// 浏览器未启动时关闭不报错
	assert.NoError(t, a.Close())
}

func TestNewCacheFallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache = config.CacheConfig{Backend: "mongo"}

	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}

func TestNewMissingTemplate(t *testing.T) {
	cfg := testConfig(t)
	cfg.TemplatePath = filepath.Join(t.TempDir(), "missing.pptx")

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, deck.ErrTemplateNotFound)
}
