package chromakey

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
)

// FromImage 把任意 image.Image 转成紧凑的非预乘 RGBA 缓冲，原点移到 (0,0)
func FromImage(img image.Image) *RasterImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if src, ok := img.(*image.NRGBA); ok {
		// NRGBA 直接按行拷贝，避免 draw 的预乘往返
		for y := 0; y < h; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[off:off+w*4])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	return &RasterImage{Width: w, Height: h, Pix: dst.Pix}
}

// NRGBA 转回 *image.NRGBA，像素缓冲为拷贝
func (r *RasterImage) NRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	copy(dst.Pix, r.Pix)
	return dst
}

// SampleColor 取 (x, y) 处像素的 R/G/B 作为色键，忽略该像素自身的 alpha
func SampleColor(img image.Image, x, y int) (Color, error) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return Color{}, errors.Errorf("chromakey: sample point (%d,%d) outside %v", x, y, img.Bounds())
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return Color{R: c.R, G: c.G, B: c.B}, nil
}
