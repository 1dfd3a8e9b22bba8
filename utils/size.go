package utils

import "fmt"

var sizeUnits = []string{"KB", "MB", "GB", "TB"}

// FormatBytes 以 1024 为进制格式化字节数，如 "1.50 MB"
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	value := float64(n) / 1024
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", value, sizeUnits[unit])
}
