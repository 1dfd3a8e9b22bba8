package process

import (
	"bytes"
	"io"
)

// Source 待入库的字节来源
// 上传文件、内存缓冲和远程下载都通过它进入存储
type Source interface {
	io.Reader

	// Name 声明的文件名，可为空
	Name() string

	// SourceURL 远程来源地址，本地来源为空
	SourceURL() string
}

type readerSource struct {
	io.Reader
	name      string
	sourceURL string
}

func (s *readerSource) Name() string      { return s.name }
func (s *readerSource) SourceURL() string { return s.sourceURL }

// NewReaderSource 包装任意 io.Reader
func NewReaderSource(r io.Reader, name, sourceURL string) Source {
	return &readerSource{Reader: r, name: name, sourceURL: sourceURL}
}

// NewBytesSource 包装内存中的字节
func NewBytesSource(data []byte, name, sourceURL string) Source {
	return &readerSource{Reader: bytes.NewReader(data), name: name, sourceURL: sourceURL}
}
