package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey 将任意长度字符串压缩为定长缓存键
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
