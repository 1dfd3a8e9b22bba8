package utils

import (
	"log"
	"strings"
	"unicode"

	"github.com/anoixa/imagebank/config"
)

// LogIfDev 仅在开发环境输出日志
func LogIfDev(v ...interface{}) {
	if config.IsDevelopment() {
		log.Println(v...)
	}
}

// LogIfDevf 仅在开发环境输出格式化日志
func LogIfDevf(format string, v ...interface{}) {
	if config.IsDevelopment() {
		log.Printf(format, v...)
	}
}

func SanitizeLogMessage(msg string) string {
	var sb strings.Builder
	for _, r := range msg {
		if r == 10 || r == 9 {
			sb.WriteRune(r)
		} else if unicode.IsPrint(r) || unicode.IsGraphic(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeLogURL 截断并清理用户提交的 URL
func SanitizeLogURL(raw string) string {
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return SanitizeLogMessage(raw)
}
