package chromakey

import (
	"math"

	"github.com/pkg/errors"
)

// RasterImage 行优先、RGBA 顺序、非预乘 alpha 的像素缓冲。
type RasterImage struct {
	Width  int
	Height int
	Pix    []byte
}

// NewRasterImage 校验宽高与缓冲长度后包装 pix（不拷贝）。
func NewRasterImage(width, height int, pix []byte) (*RasterImage, error) {
	img := &RasterImage{Width: width, Height: height, Pix: pix}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate 要求 width*height*4 == len(Pix)，零像素图像合法。
func (r *RasterImage) Validate() error {
	if r == nil {
		return errors.Wrap(ErrInvalidDimensions, "image is nil")
	}
	if r.Width < 0 || r.Height < 0 {
		return errors.Wrapf(ErrInvalidDimensions, "negative size %dx%d", r.Width, r.Height)
	}
	if r.Width > 0 && r.Height > math.MaxInt/4/r.Width {
		return errors.Wrapf(ErrInvalidDimensions, "size %dx%d overflows", r.Width, r.Height)
	}
	if want := r.Width * r.Height * 4; want != len(r.Pix) {
		return errors.Wrapf(ErrInvalidDimensions, "%dx%d needs %d bytes, got %d", r.Width, r.Height, want, len(r.Pix))
	}
	return nil
}

// Clone 深拷贝
func (r *RasterImage) Clone() *RasterImage {
	pix := make([]byte, len(r.Pix))
	copy(pix, r.Pix)
	return &RasterImage{Width: r.Width, Height: r.Height, Pix: pix}
}

// At 返回 (x, y) 处的 RGBA 四个字节
func (r *RasterImage) At(x, y int) (red, green, blue, alpha uint8) {
	i := (y*r.Width + x) * 4
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2], r.Pix[i+3]
}
