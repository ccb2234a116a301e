package deck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStyleDefaults(t *testing.T) {
	style, err := LoadStyle("")
	require.NoError(t, err)
	assert.Equal(t, DefaultStyle(), style)
	assert.Equal(t, 276, style.logoWidthPx())
	assert.Equal(t, 214, style.logoHeightPx())
}

func TestLoadStyleOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	require.NoError(t, os.WriteFile(path, []byte("font: Arial\naccent_color: FF6600\ncover_prefix: \"Top Apps for \"\n"), 0644))

	style, err := LoadStyle(path)
	require.NoError(t, err)
	assert.Equal(t, "Arial", style.Font)
	assert.Equal(t, "FF6600", style.AccentColor)
	assert.Equal(t, "Top Apps for ", style.CoverPrefix)
	// 未设置的字段保持默认
	assert.Equal(t, "163560", style.DarkColor)
	assert.Equal(t, 59.0, style.TitleSize)
}

func TestLoadStyleInvalid(t *testing.T) {
	dir := t.TempDir()

	badColor := filepath.Join(dir, "bad-color.yaml")
	require.NoError(t, os.WriteFile(badColor, []byte("dark_color: navy\n"), 0644))
	_, err := LoadStyle(badColor)
	assert.Error(t, err)

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("font: [unclosed\n"), 0644))
	_, err = LoadStyle(badYAML)
	assert.Error(t, err)

	_, err = LoadStyle(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestStyleValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Style)
	}{
		{"zero size", func(s *Style) { s.NameSize = 0 }},
		{"width range", func(s *Style) { s.DeveloperMaxWidth = 100 }},
		{"logo box", func(s *Style) { s.LogoWidth = 0 }},
		{"placeholder", func(s *Style) { s.Placeholder = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultStyle()
			tc.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
	assert.NoError(t, DefaultStyle().Validate())
}
