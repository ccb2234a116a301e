package deck

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// fittedImage 缩放后的图片
type fittedImage struct {
	data   []byte
	ext    string
	mime   string
	width  int // px
	height int // px
}

// fitLogo 按比例缩放到 maxW x maxH 以内并转为PNG，小图也会放大到框内
func fitLogo(data []byte, maxW, maxH int) (*fittedImage, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, image.ErrFormat
	}

	// 整数运算，避免浮点误差少一个像素
	var nw, nh int
	if maxW*h <= maxH*w {
		nw, nh = maxW, h*maxW/w
	} else {
		nw, nh = w*maxH/h, maxH
	}
	nw, nh = max(1, nw), max(1, nh)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return &fittedImage{data: buf.Bytes(), ext: "png", mime: "image/png", width: nw, height: nh}, nil
}

// imageExt 无法解码的图片按原格式嵌入时使用的扩展名
func imageExt(mime string, data []byte) (string, string) {
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpeg", "image/jpeg"
	case "image/gif":
		return "gif", "image/gif"
	case "image/bmp", "image/x-ms-bmp":
		return "bmp", "image/bmp"
	case "image/svg+xml":
		return "svg", "image/svg+xml"
	case "image/webp":
		return "webp", "image/webp"
	case "image/tiff":
		return "tiff", "image/tiff"
	default:
		return "png", "image/png"
	}
}
