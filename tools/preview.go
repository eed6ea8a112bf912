package tools

import (
	"context"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/chaos-io/toolbox/chromakey"
)

// DefaultCheckerCell 棋盘格默认边长
const DefaultCheckerCell = 8

// Previewer 生成色键效果的缩略图，DistancePercent 是最大 RGB 距离的百分比。
// Checker > 0 时把结果叠加到边长为 Checker 的棋盘格上，输出不透明的展示图。
type Previewer struct {
	Key             chromakey.Color
	DistancePercent float64
	MaxSize         int
	Checker         int
}

func NewPreviewer(key chromakey.Color, distancePercent float64) *Previewer {
	return &Previewer{Key: key, DistancePercent: distancePercent, MaxSize: 320}
}

func (p *Previewer) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	out, err := keyImage(ctx, thumbnail(img, p.MaxSize), p.Key, chromakey.ToleranceFromDistancePercent(p.DistancePercent))
	if err != nil {
		return nil, err
	}
	if p.Checker > 0 {
		return Checkerboard(out, p.Checker), nil
	}
	return out, nil
}

// thumbnail 最长边缩到 maxSize 以内，先缩放再抠图，预览只处理少量像素
func thumbnail(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := max(w, h)
	if maxSize <= 0 || longest <= maxSize {
		return img
	}

	ratio := float64(maxSize) / float64(longest)
	nw, nh := max(1, int(float64(w)*ratio)), max(1, int(float64(h)*ratio))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

var (
	checkerLight = image.NewUniform(color.Gray{Y: 0xee})
	checkerDark  = image.NewUniform(color.Gray{Y: 0xbb})
)

// Checkerboard 把透明图叠加到灰白棋盘格上，便于展示透明区域
func Checkerboard(img image.Image, cell int) *image.RGBA {
	if cell <= 0 {
		cell = 8
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y += cell {
		for x := 0; x < b.Dx(); x += cell {
			src := checkerLight
			if (x/cell+y/cell)%2 == 1 {
				src = checkerDark
			}
			draw.Draw(dst, image.Rect(x, y, x+cell, y+cell), src, image.Point{}, draw.Src)
		}
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
