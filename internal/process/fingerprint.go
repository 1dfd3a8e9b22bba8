package process

import (
	"crypto/sha1"
	"encoding/hex"
	"io"

	"github.com/anoixa/imagebank/database/models"
)

// FingerprintLength 指纹长度（十六进制字符）
const FingerprintLength = 40

var formatExtensions = map[string]string{
	models.FormatJPEG: ".jpg",
	models.FormatPNG:  ".png",
	models.FormatGIF:  ".gif",
	models.FormatBMP:  ".bmp",
	models.FormatTIFF: ".tif",
	models.FormatWEBP: ".webp",
}

// Fingerprint 计算字节的 SHA-1 指纹，40 位小写十六进制
func Fingerprint(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FingerprintReader 流式计算指纹
func FingerprintReader(r io.Reader) (string, int64, error) {
	h := sha1.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Extension 返回格式对应的扩展名，未知格式返回空串
func Extension(format string) string {
	return formatExtensions[format]
}

// StoragePath 由指纹和格式推导存储路径: ab/cd/<rest>.ext
func StoragePath(fingerprint, format string) string {
	return fingerprint[0:2] + "/" + fingerprint[2:4] + "/" + fingerprint[4:] + Extension(format)
}
