package process_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anoixa/imagebank/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type imageServer struct {
	*httptest.Server
	hits atomic.Int64
}

func newImageServer(t *testing.T, body []byte) *imageServer {
	t.Helper()
	s := &imageServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/img/cat.png", func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		http.NotFound(w, r)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newFetcher(h *harness, maxBytes int64) *process.Fetcher {
	return process.NewFetcher(h.files, h.storage, process.FetcherConfig{
		Timeout:  5 * time.Second,
		MaxBytes: maxBytes,
	}, nil, nil)
}

func TestFetch_Download(t *testing.T) {
	h := newHarness(t)
	body := pngBytes(t, 20, 20)
	srv := newImageServer(t, body)
	url := srv.URL + "/img/cat.png"

	src, err := newFetcher(h, 0).Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "cat.png", src.Name())
	assert.Equal(t, url, src.SourceURL())

	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestFetch_ShortCircuitsKnownSource(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	body := pngBytes(t, 24, 24)
	srv := newImageServer(t, body)
	url := srv.URL + "/img/cat.png"
	fetcher := newFetcher(h, 0)

	src, err := fetcher.Fetch(ctx, url)
	require.NoError(t, err)
	file, err := h.store.Ingest(ctx, src)
	require.NoError(t, err)
	require.NotNil(t, file.SourceURL)
	require.Equal(t, int64(1), srv.hits.Load())

	src, err = fetcher.Fetch(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, int64(1), srv.hits.Load())
	assert.Equal(t, url, src.SourceURL())
	again, err := h.store.Ingest(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, file.ID, again.ID)

	// 文件丢失后重新下载
	require.NoError(t, h.storage.DeleteWithContext(ctx, file.StoragePath))
	src, err = fetcher.Fetch(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, int64(2), srv.hits.Load())
	_, err = h.store.Ingest(ctx, src)
	require.NoError(t, err)

	exists, err := h.storage.Exists(ctx, file.StoragePath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	h := newHarness(t)
	srv := newImageServer(t, nil)

	_, err := newFetcher(h, 0).Fetch(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, process.ErrFetchStatus)
	assert.ErrorIs(t, err, process.ErrFetch)

	var statusErr *process.FetchStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestFetch_TooLarge(t *testing.T) {
	h := newHarness(t)
	srv := newImageServer(t, pngBytes(t, 64, 64))

	_, err := newFetcher(h, 16).Fetch(context.Background(), srv.URL+"/img/cat.png")
	assert.ErrorIs(t, err, process.ErrFetchTooLarge)
}

func TestFetch_InvalidURL(t *testing.T) {
	h := newHarness(t)
	fetcher := newFetcher(h, 0)

	for _, raw := range []string{"", "ftp://example.com/a.png", "not a url", "http://"} {
		_, err := fetcher.Fetch(context.Background(), raw)
		assert.ErrorIs(t, err, process.ErrInvalidSourceURL, raw)
	}
}

func TestFetch_TransportError(t *testing.T) {
	h := newHarness(t)
	srv := newImageServer(t, nil)
	url := srv.URL + "/img/cat.png"
	srv.Close()

	_, err := newFetcher(h, 0).Fetch(context.Background(), url)
	assert.ErrorIs(t, err, process.ErrFetch)
	assert.NotErrorIs(t, err, process.ErrFetchStatus)
}
