package chromakey

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raster(t *testing.T, w, h int, pixels ...[4]uint8) *RasterImage {
	t.Helper()
	pix := make([]byte, 0, len(pixels)*4)
	for _, p := range pixels {
		pix = append(pix, p[:]...)
	}
	img, err := NewRasterImage(w, h, pix)
	require.NoError(t, err)
	return img
}

func randomRaster(w, h int, seed int64) *RasterImage {
	r := rand.New(rand.NewSource(seed))
	pix := make([]byte, w*h*4)
	_, _ = r.Read(pix)
	return &RasterImage{Width: w, Height: h, Pix: pix}
}

func TestApply_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		w, h      int
		in        [][4]uint8
		key       Color
		tolerance float64
		want      [][4]uint8
	}{
		{
			name:      "白色像素命中",
			w:         1, h: 1,
			in:        [][4]uint8{{255, 255, 255, 255}},
			key:       White,
			tolerance: 10,
			want:      [][4]uint8{{255, 255, 255, 0}},
		},
		{
			name:      "黑色像素距离最大不命中",
			w:         1, h: 1,
			in:        [][4]uint8{{0, 0, 0, 255}},
			key:       White,
			tolerance: 10,
			want:      [][4]uint8{{0, 0, 0, 255}},
		},
		{
			name:      "混合像素",
			w:         2, h: 1,
			in:        [][4]uint8{{250, 250, 250, 255}, {0, 0, 0, 255}},
			key:       White,
			tolerance: 20,
			want:      [][4]uint8{{250, 250, 250, 0}, {0, 0, 0, 255}},
		},
		{
			name:      "距离恰好等于容差不命中",
			w:         1, h: 1,
			in:        [][4]uint8{{245, 255, 255, 255}},
			key:       White,
			tolerance: 10,
			want:      [][4]uint8{{245, 255, 255, 255}},
		},
		{
			name:      "容差略大于距离命中",
			w:         1, h: 1,
			in:        [][4]uint8{{245, 255, 255, 255}},
			key:       White,
			tolerance: 10.000001,
			want:      [][4]uint8{{245, 255, 255, 0}},
		},
		{
			name:      "半透明像素命中后 alpha 归零",
			w:         1, h: 1,
			in:        [][4]uint8{{10, 200, 10, 128}},
			key:       Color{R: 0, G: 255, B: 0},
			tolerance: 100,
			want:      [][4]uint8{{10, 200, 10, 0}},
		},
		{
			name:      "未命中的半透明像素保持原 alpha",
			w:         1, h: 1,
			in:        [][4]uint8{{200, 10, 10, 77}},
			key:       Color{R: 0, G: 255, B: 0},
			tolerance: 100,
			want:      [][4]uint8{{200, 10, 10, 77}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := raster(t, tt.w, tt.h, tt.in...)
			got, err := Apply(in, tt.key, tt.tolerance)
			require.NoError(t, err)
			assert.Equal(t, raster(t, tt.w, tt.h, tt.want...), got)
			// 输入不被修改
			assert.Equal(t, raster(t, tt.w, tt.h, tt.in...), in)
		})
	}
}

func TestApply_ToleranceZeroMatchesExactColorOnly(t *testing.T) {
	t.Parallel()

	key := Color{R: 12, G: 34, B: 56}
	in := raster(t, 3, 1,
		[4]uint8{12, 34, 56, 255},
		[4]uint8{12, 34, 57, 255},
		[4]uint8{0, 0, 0, 255},
	)

	got, err := Apply(in, key, 0)
	require.NoError(t, err)

	assert.Equal(t, []byte{12, 34, 56, 0, 12, 34, 57, 255, 0, 0, 0, 255}, got.Pix)
}

func TestApply_ToleranceAtOrAboveMaxDistanceMatchesAll(t *testing.T) {
	t.Parallel()

	for _, tolerance := range []float64{MaxDistance, MaxDistance + 0.01, 1000} {
		in := randomRaster(17, 9, 1)
		// 黑白两个极端像素，距离恰好等于 MaxDistance
		copy(in.Pix[0:4], []byte{255, 255, 255, 255})
		copy(in.Pix[4:8], []byte{0, 0, 0, 255})

		got, err := Apply(in, Color{R: 0, G: 0, B: 0}, tolerance)
		require.NoError(t, err)

		for i := 0; i < len(in.Pix); i += 4 {
			assert.Equal(t, in.Pix[i:i+3], got.Pix[i:i+3])
			assert.Zero(t, got.Pix[i+3], "tolerance %v pixel %d", tolerance, i/4)
		}
	}
}

func TestApply_MaxDistanceBoundary(t *testing.T) {
	t.Parallel()

	in := raster(t, 1, 1, [4]uint8{0, 0, 0, 255})

	got, err := Apply(in, White, MaxDistance)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, got.Pix)

	// 略小于 MaxDistance 时仍按严格小于判断
	got, err = Apply(in, White, MaxDistance-0.001)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 255}, got.Pix)
}

func TestApply_Properties(t *testing.T) {
	t.Parallel()

	key := Color{R: 128, G: 128, B: 128}
	tolerance := 120.0
	in := randomRaster(64, 33, 42)
	// 保证至少有一个精确命中的像素
	copy(in.Pix[0:3], []byte{128, 128, 128})

	once, err := Apply(in, key, tolerance)
	require.NoError(t, err)
	twice, err := Apply(once, key, tolerance)
	require.NoError(t, err)

	assert.Equal(t, once, twice, "applying twice must equal applying once")
	assert.Equal(t, in.Width, once.Width)
	assert.Equal(t, in.Height, once.Height)

	for i := 0; i < len(in.Pix); i += 4 {
		c := Color{R: in.Pix[i], G: in.Pix[i+1], B: in.Pix[i+2]}
		if c.Distance(key) < tolerance {
			assert.Equal(t, in.Pix[i:i+3], once.Pix[i:i+3])
			assert.Zero(t, once.Pix[i+3])
		} else {
			assert.Equal(t, in.Pix[i:i+4], once.Pix[i:i+4])
		}
	}
}

func TestApply_EmptyImage(t *testing.T) {
	t.Parallel()

	for _, size := range [][2]int{{0, 0}, {0, 5}, {5, 0}} {
		got, err := Apply(&RasterImage{Width: size[0], Height: size[1], Pix: []byte{}}, White, 10)
		require.NoError(t, err)
		assert.Equal(t, size[0], got.Width)
		assert.Equal(t, size[1], got.Height)
		assert.Empty(t, got.Pix)
	}
}

func TestApply_InvalidDimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		img  *RasterImage
	}{
		{"nil image", nil},
		{"缓冲太短", &RasterImage{Width: 2, Height: 2, Pix: make([]byte, 15)}},
		{"缓冲太长", &RasterImage{Width: 1, Height: 1, Pix: make([]byte, 5)}},
		{"负宽度", &RasterImage{Width: -1, Height: 1, Pix: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Apply(tt.img, White, 10)
			assert.True(t, errors.Is(err, ErrInvalidDimensions), "got %v", err)

			err = ApplyInPlace(tt.img, White, 10)
			assert.True(t, errors.Is(err, ErrInvalidDimensions), "got %v", err)
		})
	}
}

func TestApplyInPlace(t *testing.T) {
	t.Parallel()

	in := raster(t, 2, 1, [4]uint8{250, 250, 250, 255}, [4]uint8{0, 0, 0, 255})
	require.NoError(t, ApplyInPlace(in, White, 20))
	assert.Equal(t, []byte{250, 250, 250, 0, 0, 0, 0, 255}, in.Pix)
}

func TestProcessor_ParallelMatchesSerial(t *testing.T) {
	t.Parallel()

	in := randomRaster(301, 257, 7)
	key := Color{R: 40, G: 200, B: 90}

	serial := &Processor{Key: key, Tolerance: 150, Workers: 1}
	wide := &Processor{Key: key, Tolerance: 150, Workers: 16}

	a, err := serial.Apply(in)
	require.NoError(t, err)
	b, err := wide.Apply(in)
	require.NoError(t, err)
	c, err := wide.ApplyContext(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestApplyContext_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := ApplyContext(ctx, randomRaster(4, 4, 3), White, 10)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestParallel_CoversRange(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int, n)
		parallel(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				seen[i]++
			}
		})
		for i, v := range seen {
			assert.Equal(t, 1, v, "n=%d index %d", n, i)
		}
	}
}
