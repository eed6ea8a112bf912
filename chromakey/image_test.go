package chromakey

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImage_RoundTrip(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 10)
	}

	r := FromImage(src)
	assert.Equal(t, 3, r.Width)
	assert.Equal(t, 2, r.Height)
	assert.Equal(t, src.Pix, r.Pix)
	require.NoError(t, r.Validate())

	back := r.NRGBA()
	assert.Equal(t, src.Pix, back.Pix)

	// 不共享内存
	r.Pix[0] = 99
	assert.NotEqual(t, r.Pix[0], back.Pix[0])
}

func TestFromImage_SubImageAndGray(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(2, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 4})
	sub := src.SubImage(image.Rect(2, 2, 4, 4))

	r := FromImage(sub)
	assert.Equal(t, 2, r.Width)
	red, green, blue, alpha := r.At(0, 0)
	assert.Equal(t, []uint8{1, 2, 3, 4}, []uint8{red, green, blue, alpha})

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.SetGray(0, 0, color.Gray{Y: 77})
	g := FromImage(gray)
	assert.Equal(t, []byte{77, 77, 77, 255}, g.Pix)
}

func TestSampleColor(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 128})

	c, err := SampleColor(img, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, Color{R: 200, G: 100, B: 50}, c)

	_, err = SampleColor(img, 2, 0)
	assert.Error(t, err)
}
