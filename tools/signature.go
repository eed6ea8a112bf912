package tools

import (
	"context"
	"image"
	"image/draw"

	"github.com/nfnt/resize"

	"github.com/chaos-io/toolbox/chromakey"
)

// SignatureStripper 去掉签名照片的纸张底色，输出可以直接盖到文档上的透明 PNG。
//
// TolerancePercent 是 0–100 的百分比，换算到 0–255。
// Trim 为 true 时裁掉四周的透明区域并保留 Padding 像素的边距，
// MaxWidth > 0 时按比例缩小到不超过该宽度。
type SignatureStripper struct {
	Key              chromakey.Color
	TolerancePercent float64
	Trim             bool
	Padding          int
	MaxWidth         int
}

func NewSignatureStripper() *SignatureStripper {
	return &SignatureStripper{
		Key:              chromakey.White,
		TolerancePercent: 20,
		Trim:             true,
		Padding:          4,
		MaxWidth:         600,
	}
}

func (s *SignatureStripper) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	out, err := keyImage(ctx, img, s.Key, chromakey.ToleranceFromPercent(s.TolerancePercent))
	if err != nil {
		return nil, err
	}

	bbox, ok := alphaBBox(out, 0)
	if !ok {
		return nil, ErrEmptySignature
	}
	if s.Trim {
		out = crop(out, bbox.Inset(-s.Padding))
	}
	return resizeWithinWidth(out, s.MaxWidth), nil
}

// crop 裁剪，超出原图的部分保持透明
func crop(img *image.NRGBA, rect image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

// resizeWithinWidth 缩放（宽度 <= maxWidth），maxWidth <= 0 不缩放
func resizeWithinWidth(img *image.NRGBA, maxWidth int) *image.NRGBA {
	w := img.Bounds().Dx()
	if maxWidth <= 0 || w <= maxWidth {
		return img
	}

	// 高度传 0，nfnt/resize 按比例计算
	resized := resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)
	return toNRGBA(resized)
}
