package chromakey

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Color 色键参考色，不含 alpha
type Color struct {
	R, G, B uint8
}

// White 默认的色键颜色
var White = Color{R: 255, G: 255, B: 255}

// NewColor 从 int 构造颜色，任一通道超出 [0,255] 时返回 ErrInvalidColorChannel。
func NewColor(r, g, b int) (Color, error) {
	for _, v := range []int{r, g, b} {
		if v < 0 || v > 255 {
			return Color{}, errors.Wrapf(ErrInvalidColorChannel, "channel value %d", v)
		}
	}
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// ParseColor 支持 "#rrggbb"、"rrggbb"、"#rgb"、"r,g,b" 四种写法
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return Color{}, errors.Errorf("chromakey: parse color %q: want r,g,b", s)
		}
		var v [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return Color{}, errors.Wrapf(err, "chromakey: parse color %q", s)
			}
			v[i] = n
		}
		return NewColor(v[0], v[1], v[2])
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, errors.Errorf("chromakey: parse color %q: want #rrggbb", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, errors.Wrapf(err, "chromakey: parse color %q", s)
	}
	return Color{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// String 返回 "#rrggbb"
func (c Color) String() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0f]
	}
	return string(b)
}

// Distance RGB 空间欧氏距离
func (c Color) Distance(o Color) float64 {
	dr := float64(c.R) - float64(o.R)
	dg := float64(c.G) - float64(o.G)
	db := float64(c.B) - float64(o.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
