package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBrowserStrategyCloseWithoutLaunch(t *testing.T) {
	b := NewBrowserStrategy("", time.Second, zap.NewNop())
	assert.Equal(t, "browser", b.Name())
	assert.NoError(t, b.Close())
}

func TestBrowserResultFallbacks(t *testing.T) {
	raw := rawBrowserResult{
		Developer: "By Roambee",
		Title:     "Roambee | Salesforce AppExchange",
		OGImage:   "//cdn.example.com/roambee.png",
	}

	result := raw.toExtraction(listingURL)

	assert.Equal(t, "Roambee", result.Name)
	assert.Equal(t, "Roambee", result.Developer)
	assert.Equal(t, "https://cdn.example.com/roambee.png", result.LogoURL)
}

func TestBrowserResultPrefersRenderedFields(t *testing.T) {
	raw := rawBrowserResult{
		Name:    "TaskRay",
		Logo:    "https://cdn.example.com/taskray.png",
		Title:   "Something else",
		OGImage: "https://cdn.example.com/og.png",
	}

	result := raw.toExtraction(listingURL)

	assert.Equal(t, "TaskRay", result.Name)
	assert.Empty(t, result.Developer)
	assert.Equal(t, "https://cdn.example.com/taskray.png", result.LogoURL)
}
