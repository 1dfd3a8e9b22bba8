package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{50 << 20, "50.00 MB"},
		{3 << 30, "3.00 GB"},
		{5 << 50, "5120.00 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}

func TestIsContextCanceled(t *testing.T) {
	assert.False(t, IsContextCanceled(nil))
	assert.True(t, IsContextCanceled(context.Canceled))
	assert.True(t, IsContextCanceled(fmt.Errorf("read blob: %w", context.Canceled)))
	assert.True(t, IsContextCanceled(errors.New(`Get "http://minio:9000/bucket/ab/cd/ef.jpg": context canceled`)))
	assert.False(t, IsContextCanceled(context.DeadlineExceeded))
	assert.False(t, IsContextCanceled(errors.New("disk full")))
}

func TestHashKey(t *testing.T) {
	a := HashKey("https://example.com/a.jpg")
	assert.Len(t, a, 32)
	assert.Equal(t, a, HashKey("https://example.com/a.jpg"))
	assert.NotEqual(t, a, HashKey("https://example.com/b.jpg"))
}

func TestSanitizeLogURL(t *testing.T) {
	assert.Equal(t, "http://x/ab", SanitizeLogURL("http://x/a\x00b"))

	long := SanitizeLogURL("http://example.com/" + string(make([]byte, 300)))
	assert.LessOrEqual(t, len(long), 203)
}
