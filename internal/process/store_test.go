package process_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/database/repo/files"
	"github.com/anoixa/imagebank/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readStored(t *testing.T, h *harness, file *models.StoredFile) []byte {
	t.Helper()
	r, err := h.storage.GetWithContext(context.Background(), file.StoragePath)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func TestIngest_NewFile(t *testing.T) {
	h := newHarness(t)
	data := pngBytes(t, 64, 48)

	file, err := h.store.Ingest(context.Background(), process.NewBytesSource(data, "cat.png", ""))
	require.NoError(t, err)

	fp := process.Fingerprint(data)
	assert.Equal(t, fp, file.Fingerprint)
	assert.Equal(t, fp[0:2]+"/"+fp[2:4]+"/"+fp[4:]+".png", file.StoragePath)
	assert.Equal(t, 64, file.Width)
	assert.Equal(t, 48, file.Height)
	assert.Equal(t, int64(len(data)), file.FileSize)
	assert.Equal(t, "cat.png", file.OriginFilename)
	assert.Equal(t, models.FormatPNG, file.FormatName())
	assert.Nil(t, file.SourceURL)

	assert.Equal(t, data, readStored(t, h, file))
}

func TestIngest_DedupIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	data := jpegBytes(t, 40, 30)

	first, err := h.store.Ingest(ctx, process.NewBytesSource(data, "a.jpg", ""))
	require.NoError(t, err)
	second, err := h.store.Ingest(ctx, process.NewBytesSource(data, "b.jpg", ""))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "a.jpg", second.OriginFilename)

	count, err := h.files.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIngest_ConcurrentSameBytes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	data := pngBytes(t, 32, 32)

	const n = 8
	ids := make([]uint, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			file, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", ""))
			if assert.NoError(t, err) {
				ids[i] = file.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	count, err := h.files.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIngest_HitSkipsDecode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	data := pngBytes(t, 20, 20)

	_, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", ""))
	require.NoError(t, err)
	require.Equal(t, int64(1), h.processor.decodes.Load())

	_, err = h.store.Ingest(ctx, process.NewBytesSource(data, "", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.processor.decodes.Load())
}

func TestIngest_HitTrustsExistingRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// 记录已存在时即使字节不是合法图片也直接返回
	data := []byte("not really an image")
	fp := process.Fingerprint(data)
	seeded, err := h.files.CreateOrGet(ctx, &models.StoredFile{
		Fingerprint: fp,
		StoragePath: process.StoragePath(fp, ""),
		Width:       1,
		Height:      1,
		FileSize:    int64(len(data)),
	})
	require.NoError(t, err)

	file, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", ""))
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, file.ID)
	assert.Zero(t, h.processor.decodes.Load())
}

func TestIngest_SelfHealsMissingBlob(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	data := pngBytes(t, 30, 10)

	file, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", ""))
	require.NoError(t, err)
	require.NoError(t, h.storage.DeleteWithContext(ctx, file.StoragePath))

	exists, err := h.storage.Exists(ctx, file.StoragePath)
	require.NoError(t, err)
	require.False(t, exists)

	again, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", ""))
	require.NoError(t, err)
	assert.Equal(t, file.ID, again.ID)
	assert.Equal(t, data, readStored(t, h, again))
	assert.Equal(t, int64(1), h.processor.decodes.Load())
}

func TestIngest_InvalidImage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.store.Ingest(ctx, process.NewReaderSource(strings.NewReader("plain text"), "note.txt", ""))
	assert.ErrorIs(t, err, process.ErrInvalidImageFile)

	count, err := h.files.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngest_OverwritesCorruptOccupant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	data := pngBytes(t, 12, 12)
	fp := process.Fingerprint(data)
	path := process.StoragePath(fp, models.FormatPNG)

	// 模拟上次写入中断留下的残缺文件
	require.NoError(t, h.storage.SaveWithContext(ctx, path, bytes.NewReader(data[:len(data)/2])))

	file, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", ""))
	require.NoError(t, err)
	assert.Equal(t, path, file.StoragePath)
	assert.Equal(t, data, readStored(t, h, file))
}

func TestIngest_KeepsMatchingOccupant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	data := pngBytes(t, 14, 14)
	path := process.StoragePath(process.Fingerprint(data), models.FormatPNG)

	require.NoError(t, h.storage.SaveWithContext(ctx, path, bytes.NewReader(data)))

	file, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", ""))
	require.NoError(t, err)
	assert.Equal(t, data, readStored(t, h, file))
}

func TestIngest_BackfillsSourceURL(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	data := pngBytes(t, 16, 16)

	_, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", ""))
	require.NoError(t, err)

	first, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", "https://example.com/a.png"))
	require.NoError(t, err)
	require.NotNil(t, first.SourceURL)
	assert.Equal(t, "https://example.com/a.png", *first.SourceURL)

	// 已有来源地址时不覆盖
	second, err := h.store.Ingest(ctx, process.NewBytesSource(data, "", "https://example.com/b.png"))
	require.NoError(t, err)
	require.NotNil(t, second.SourceURL)
	assert.Equal(t, "https://example.com/a.png", *second.SourceURL)

	stored, err := h.files.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SourceURL)
	assert.Equal(t, "https://example.com/a.png", *stored.SourceURL)
}

// blockingRepository 第一次按指纹查询时阻塞，直到 release 关闭
type blockingRepository struct {
	*files.Repository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*models.StoredFile, error) {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
	}
	return r.Repository.GetByFingerprint(ctx, fingerprint)
}

func TestIngest_CanceledCallerDoesNotFailOthers(t *testing.T) {
	h := newHarness(t)
	repo := &blockingRepository{
		Repository: h.files,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	store := process.NewStore(repo, h.storage, h.processor, nil)
	data := pngBytes(t, 24, 24)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := store.Ingest(ctxA, process.NewBytesSource(data, "a.png", ""))
		errA <- err
	}()
	<-repo.entered

	cancelA()
	require.ErrorIs(t, <-errA, context.Canceled)

	type result struct {
		file *models.StoredFile
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		file, err := store.Ingest(context.Background(), process.NewBytesSource(data, "b.png", ""))
		resB <- result{file, err}
	}()
	close(repo.release)

	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, process.Fingerprint(data), b.file.Fingerprint)
	assert.Equal(t, data, readStored(t, h, b.file))

	count, err := h.files.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
