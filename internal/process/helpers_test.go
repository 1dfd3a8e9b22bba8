package process_test

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/anoixa/imagebank/database/repo/files"
	"github.com/anoixa/imagebank/database/testdb"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/anoixa/imagebank/internal/process/native"
	"github.com/anoixa/imagebank/storage"
	"github.com/stretchr/testify/require"
)

// countingProcessor 统计解码和变换次数
type countingProcessor struct {
	process.Processor
	decodes    atomic.Int64
	transforms atomic.Int64
}

func (p *countingProcessor) Decode(data []byte) (process.ImageInfo, error) {
	p.decodes.Add(1)
	return p.Processor.Decode(data)
}

func (p *countingProcessor) Resize(data []byte, width, height int) ([]byte, error) {
	p.transforms.Add(1)
	return p.Processor.Resize(data, width, height)
}

func (p *countingProcessor) Crop(data []byte, rect process.Rect) ([]byte, error) {
	p.transforms.Add(1)
	return p.Processor.Crop(data, rect)
}

type harness struct {
	files     *files.Repository
	storage   *storage.LocalStorage
	processor *countingProcessor
	store     *process.Store
	generator *process.Generator
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	provider := testdb.New(t)
	repo := files.NewRepository(provider)

	local, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)

	proc := &countingProcessor{Processor: native.New(90)}
	store := process.NewStore(repo, local, proc, nil)
	gen := process.NewGenerator(store, proc, process.GeneratorConfig{MaxConcurrency: 2}, nil)

	return &harness{
		files:     repo,
		storage:   local,
		processor: proc,
		store:     store,
		generator: gen,
	}
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: uint8((x + y) % 256), A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(w, h)))
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetColorIndex(x, y, uint8((x+y)%len(palette.Plan9)))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}
