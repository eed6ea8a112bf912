// Package tools 是色键算法的三个调用方：背景去除、签名去底、实时预览。
// 各自负责容差的刻度换算和前后处理，像素判断统一交给 chromakey。
package tools

import (
	"context"
	"errors"
	"image"
	"image/draw"

	"github.com/chaos-io/toolbox/chromakey"
	"github.com/chaos-io/toolbox/rembg"
)

var (
	_ rembg.Remover = (*BackgroundRemover)(nil)
	_ rembg.Remover = (*SignatureStripper)(nil)
	_ rembg.Remover = (*Previewer)(nil)
)

// ErrEmptySignature 去底后没有任何可见像素
var ErrEmptySignature = errors.New("no visible pixels left after keying")

// keyImage 解码结果 -> RasterImage -> 色键 -> *image.NRGBA
func keyImage(ctx context.Context, img image.Image, key chromakey.Color, tolerance float64) (*image.NRGBA, error) {
	raster, err := chromakey.ApplyContext(ctx, chromakey.FromImage(img), key, tolerance)
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{
		Pix:    raster.Pix,
		Stride: raster.Width * 4,
		Rect:   image.Rect(0, 0, raster.Width, raster.Height),
	}, nil
}

// alphaBBox 从 alpha 通道计算主体 bounding box
// 把 alpha > threshold 的像素当作“主体”，找所有主体像素的坐标
func alphaBBox(img *image.NRGBA, threshold uint8) (image.Rectangle, bool) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	minX, minY := w, h
	maxX, maxY := 0, 0
	found := false

	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			if img.Pix[row+x*4+3] <= threshold {
				continue
			}
			found = true
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if !found {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
