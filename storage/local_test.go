package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)
	return s
}

// TestLocalStorage_PathTraversal_Prevention 测试路径遍历防护
func TestLocalStorage_PathTraversal_Prevention(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	traversalAttempts := []string{
		"../../../etc/passwd",
		"..\\..\\..\\windows\\system32\\config\\sam",
		"../../.env",
		"..",
		".",
		"",
		"/etc/passwd",
		"ab/../../../etc/passwd",
	}

	for _, attempt := range traversalAttempts {
		t.Run("save_"+attempt, func(t *testing.T) {
			err := s.SaveWithContext(ctx, attempt, strings.NewReader("x"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid")

			_, err = s.GetWithContext(ctx, attempt)
			assert.Error(t, err)

			err = s.DeleteWithContext(ctx, attempt)
			assert.Error(t, err)
		})
	}
}

// TestLocalStorage_FingerprintLayout 测试分级目录写入与读取
func TestLocalStorage_FingerprintLayout(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	storagePath := "aa/f4/c61ddcc5e8a2dabede0f3b482cd9aea9434d.jpg"
	require.NoError(t, s.SaveWithContext(ctx, storagePath, strings.NewReader("content")))

	_, err := os.Stat(filepath.Join(s.BasePath(), "aa", "f4"))
	require.NoError(t, err, "intermediate directories should be created")

	exists, err := s.Exists(ctx, storagePath)
	require.NoError(t, err)
	assert.True(t, exists)

	r, err := s.GetWithContext(ctx, storagePath)
	require.NoError(t, err)
	defer CloseIfCloser(r)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	assert.Equal(t, "http://localhost:8080/files/"+storagePath, s.URL(storagePath))
}

// TestLocalStorage_Overwrite 测试同路径覆盖写入
func TestLocalStorage_Overwrite(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWithContext(ctx, "ab/cd/ef.png", strings.NewReader("partial")))
	require.NoError(t, s.SaveWithContext(ctx, "ab/cd/ef.png", strings.NewReader("complete-content")))

	r, err := s.GetWithContext(ctx, "ab/cd/ef.png")
	require.NoError(t, err)
	defer CloseIfCloser(r)
	data, _ := io.ReadAll(r)
	assert.Equal(t, "complete-content", string(data))
}

// TestLocalStorage_NotFound 测试不存在的对象
func TestLocalStorage_NotFound(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "00/00/missing.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.GetWithContext(ctx, "00/00/missing.jpg")
	assert.True(t, IsNotFound(err))

	err = s.DeleteWithContext(ctx, "00/00/missing.jpg")
	assert.True(t, IsNotFound(err))
}

// TestLocalStorage_DeleteThenExists 测试删除后不可见
func TestLocalStorage_DeleteThenExists(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWithContext(ctx, "12/34/5678.gif", strings.NewReader("gif")))
	require.NoError(t, s.DeleteWithContext(ctx, "12/34/5678.gif"))

	exists, err := s.Exists(ctx, "12/34/5678.gif")
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestLocalStorage_CanceledContext 测试取消的上下文
func TestLocalStorage_CanceledContext(t *testing.T) {
	s := newTestLocalStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SaveWithContext(ctx, "ab/cd/ef.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsValidStoragePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"ab/cd/ef0123.jpg", true},
		{"ab/cd/ef0123", true},
		{"UPPER/case.PNG", true},
		{"", false},
		{"/abs/path.jpg", false},
		{"ab/../cd.jpg", false},
		{"ab/c d.jpg", false},
		{"ab/cd\x00.jpg", false},
		{"ab\\cd.jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidStoragePath(tt.path))
		})
	}
}
