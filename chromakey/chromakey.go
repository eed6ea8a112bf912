// Package chromakey 按色键（chroma key）把接近指定颜色的像素变为全透明。
//
// 匹配规则是 RGB 空间的欧氏距离：distance < tolerance 即命中（严格小于），
// tolerance 为 0 时只命中与色键完全相同的颜色，tolerance >= MaxDistance 时全部命中。
// 命中像素只把 alpha 置 0，R/G/B 原样保留；未命中像素逐字节不变。
package chromakey

import (
	"context"
	"math"
	"runtime"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidDimensions 像素缓冲长度与宽高不一致
	ErrInvalidDimensions = errors.New("chromakey: invalid dimensions")
	// ErrInvalidColorChannel 颜色通道超出 [0,255]
	ErrInvalidColorChannel = errors.New("chromakey: invalid color channel")
)

// rowsPerChunk ApplyContext 每处理这么多行检查一次 ctx
const rowsPerChunk = 64

// Processor 色键处理器，无内部状态，可并发使用。
type Processor struct {
	Key       Color
	Tolerance float64
	// Workers 并行的 goroutine 数，<= 0 时使用 runtime.NumCPU()
	Workers int
}

func NewProcessor(key Color, tolerance float64) *Processor {
	return &Processor{Key: key, Tolerance: tolerance}
}

// Apply 返回新的图像，不修改输入。
func Apply(img *RasterImage, key Color, tolerance float64) (*RasterImage, error) {
	return NewProcessor(key, tolerance).Apply(img)
}

// ApplyInPlace 直接修改 img 的像素缓冲。
func ApplyInPlace(img *RasterImage, key Color, tolerance float64) error {
	return NewProcessor(key, tolerance).ApplyInPlace(img)
}

// ApplyContext 与 Apply 相同，但按行分块处理，块之间检查 ctx 是否已取消。
func ApplyContext(ctx context.Context, img *RasterImage, key Color, tolerance float64) (*RasterImage, error) {
	return NewProcessor(key, tolerance).ApplyContext(ctx, img)
}

func (p *Processor) Apply(img *RasterImage) (*RasterImage, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	out := img.Clone()
	p.run(out.Pix, out.Width, out.Height)
	return out, nil
}

func (p *Processor) ApplyInPlace(img *RasterImage) error {
	if err := img.Validate(); err != nil {
		return err
	}
	p.run(img.Pix, img.Width, img.Height)
	return nil
}

func (p *Processor) ApplyContext(ctx context.Context, img *RasterImage) (*RasterImage, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	out := img.Clone()
	stride := out.Width * 4
	for y := 0; y < out.Height; y += rowsPerChunk {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "chromakey: canceled at row %d", y)
		}
		end := min(y+rowsPerChunk, out.Height)
		p.run(out.Pix[y*stride:end*stride], out.Width, end-y)
	}
	return out, nil
}

func (p *Processor) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

// run 对一段连续的行做色键，行之间互不依赖
func (p *Processor) run(pix []byte, width, height int) {
	stride := width * 4
	parallel(height, p.workers(), func(start, end int) {
		keyRows(pix[start*stride:end*stride], p.Key, p.Tolerance)
	})
}

// matches 命中规则：distance < tolerance；tolerance 为 0 时只命中完全相同的颜色，
// tolerance >= MaxDistance 时命中所有像素
func matches(d2 int, tolerance float64) bool {
	if tolerance >= MaxDistance {
		return true
	}
	if tolerance == 0 {
		return d2 == 0
	}
	return math.Sqrt(float64(d2)) < tolerance
}

// keyRows 逐像素比较距离，命中则 alpha = 0
func keyRows(pix []byte, key Color, tolerance float64) {
	kr, kg, kb := int(key.R), int(key.G), int(key.B)
	for i := 0; i+3 < len(pix); i += 4 {
		dr := int(pix[i]) - kr
		dg := int(pix[i+1]) - kg
		db := int(pix[i+2]) - kb
		if matches(dr*dr+dg*dg+db*db, tolerance) {
			pix[i+3] = 0
		}
	}
}
