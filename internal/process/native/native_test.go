package native

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func solid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encode(t *testing.T, format string, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case models.FormatJPEG:
		err = jpeg.Encode(&buf, img, nil)
	case models.FormatPNG:
		err = png.Encode(&buf, img)
	case models.FormatGIF:
		err = gif.Encode(&buf, img, nil)
	case models.FormatBMP:
		err = bmp.Encode(&buf, img)
	case models.FormatTIFF:
		err = tiff.Encode(&buf, img, nil)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecode_Formats(t *testing.T) {
	p := New(0)
	for _, format := range []string{models.FormatJPEG, models.FormatPNG, models.FormatGIF, models.FormatBMP, models.FormatTIFF} {
		t.Run(format, func(t *testing.T) {
			info, err := p.Decode(encode(t, format, solid(40, 30)))
			require.NoError(t, err)
			assert.Equal(t, process.ImageInfo{Width: 40, Height: 30, Format: format}, info)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := New(90).Decode([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestResize_KeepsFormat(t *testing.T) {
	p := New(85)
	for _, format := range []string{models.FormatJPEG, models.FormatPNG, models.FormatGIF, models.FormatBMP, models.FormatTIFF} {
		t.Run(format, func(t *testing.T) {
			out, err := p.Resize(encode(t, format, solid(200, 100)), 50, 25)
			require.NoError(t, err)

			info, err := p.Decode(out)
			require.NoError(t, err)
			assert.Equal(t, process.ImageInfo{Width: 50, Height: 25, Format: format}, info)
		})
	}
}

func TestCrop_PalettedKeepsPalette(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 60, 60), palette.WebSafe)
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			src.SetColorIndex(x, y, uint8((x*y)%len(palette.WebSafe)))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, src, nil))

	out, err := New(90).Crop(buf.Bytes(), process.Rect{Left: 10, Top: 5, Right: 40, Bottom: 25})
	require.NoError(t, err)

	img, err := gif.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	paletted, ok := img.(*image.Paletted)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 30, 20), paletted.Bounds())
	assert.Equal(t, src.ColorIndexAt(10, 5), paletted.ColorIndexAt(0, 0))
	assert.Equal(t, src.ColorIndexAt(39, 24), paletted.ColorIndexAt(29, 19))
}

func TestCrop_OutOfBounds(t *testing.T) {
	_, err := New(90).Crop(encode(t, models.FormatPNG, solid(20, 20)), process.Rect{Left: 0, Top: 0, Right: 21, Bottom: 20})
	assert.ErrorIs(t, err, process.ErrInvalidRectangle)
}

func TestName(t *testing.T) {
	assert.Equal(t, "native", New(90).Name())
}
