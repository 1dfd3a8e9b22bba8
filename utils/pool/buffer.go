package pool

import (
	"bytes"
	"sync"
)

// BufferSize 拷贝缓冲区大小（256KB）
const BufferSize = 256 * 1024

// SharedBufferPool 共享拷贝缓冲区池
// 存储 *([]byte) 以避免 SA6002 警告
var SharedBufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, BufferSize)
		return &buf
	},
}

// encodeBufferPool 编码输出缓冲区池
var encodeBufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuffer 获取一个已清空的 bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := encodeBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer 归还缓冲区，超大缓冲区直接丢弃
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > 16<<20 {
		return
	}
	encodeBufferPool.Put(buf)
}
