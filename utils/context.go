package utils

import (
	"context"
	"errors"
	"strings"
)

// IsContextCanceled 判断错误是否由请求取消引起
// 部分存储 SDK 只在消息中保留 "context canceled"，因此同时匹配字符串
func IsContextCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return strings.Contains(err.Error(), "context canceled")
}
