package deck

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitLogo(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"wide", 100, 50, 276, 138},
		{"tall", 50, 100, 107, 214},
		{"large square", 1000, 1000, 214, 214},
		{"exact", 276, 214, 276, 214},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fitted, err := fitLogo(testPNG(t, tc.w, tc.h), 276, 214)
			require.NoError(t, err)
			assert.Equal(t, tc.wantW, fitted.width)
			assert.Equal(t, tc.wantH, fitted.height)
			assert.Equal(t, "png", fitted.ext)

			img, _, err := image.Decode(bytes.NewReader(fitted.data))
			require.NoError(t, err)
			assert.Equal(t, tc.wantW, img.Bounds().Dx())
		})
	}
}

func TestFitLogoJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	fitted, err := fitLogo(buf.Bytes(), 276, 214)
	require.NoError(t, err)
	assert.Equal(t, "image/png", fitted.mime)
	assert.Equal(t, 214, fitted.height)
}

func TestFitLogoUndecodable(t *testing.T) {
	_, err := fitLogo([]byte("<svg/>"), 276, 214)
	assert.Error(t, err)
}

func TestImageExt(t *testing.T) {
	ext, mime := imageExt("image/jpeg", nil)
	assert.Equal(t, "jpeg", ext)
	assert.Equal(t, "image/jpeg", mime)

	ext, _ = imageExt("image/svg+xml", nil)
	assert.Equal(t, "svg", ext)

	ext, mime = imageExt("", []byte("GIF89a...."))
	assert.Equal(t, "gif", ext)
	assert.Equal(t, "image/gif", mime)

	ext, _ = imageExt("application/x-unknown", nil)
	assert.Equal(t, "png", ext)
}
