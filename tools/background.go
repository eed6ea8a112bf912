package tools

import (
	"context"
	"image"

	"github.com/chaos-io/toolbox/chromakey"
)

// BackgroundRemover 背景去除工具，Tolerance 直接使用 0–255 刻度。
// Key 为 nil 时取左上角像素的颜色作为背景色。
type BackgroundRemover struct {
	Key       *chromakey.Color
	Tolerance float64
}

func NewBackgroundRemover(key *chromakey.Color, tolerance float64) *BackgroundRemover {
	return &BackgroundRemover{Key: key, Tolerance: tolerance}
}

func (b *BackgroundRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	key, err := b.key(img)
	if err != nil {
		return nil, err
	}
	return keyImage(ctx, img, key, b.Tolerance)
}

func (b *BackgroundRemover) key(img image.Image) (chromakey.Color, error) {
	if b.Key != nil {
		return *b.Key, nil
	}
	if img.Bounds().Empty() {
		return chromakey.White, nil
	}
	corner := img.Bounds().Min
	return chromakey.SampleColor(img, corner.X, corner.Y)
}
