package models

import "time"

// 存储文件格式常量
const (
	FormatJPEG = "JPEG"
	FormatPNG  = "PNG"
	FormatGIF  = "GIF"
	FormatBMP  = "BMP"
	FormatTIFF = "TIFF"
	FormatWEBP = "WEBP"
)

// StoredFile 内容寻址的物理文件记录，按指纹去重
// 除回填 SourceURL 外创建后不再修改
type StoredFile struct {
	ID             uint    `gorm:"primarykey"`
	Fingerprint    string  `gorm:"type:varchar(40);uniqueIndex:idx_stored_files_fingerprint;not null"`
	StoragePath    string  `gorm:"type:varchar(255);not null"`
	Width          int     `gorm:"not null"`
	Height         int     `gorm:"not null"`
	FileSize       int64   `gorm:"not null"`
	OriginFilename string  `gorm:"type:varchar(255)"`
	Format         *string `gorm:"type:varchar(10)"`
	SourceURL      *string `gorm:"type:varchar(2048);index:idx_stored_files_source_url"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FormatName 返回格式名，未知时为空串
func (f *StoredFile) FormatName() string {
	if f.Format == nil {
		return ""
	}
	return *f.Format
}

// Fits 判断文件是否已在给定尺寸框内
func (f *StoredFile) Fits(width, height int) bool {
	return f.Width <= width && f.Height <= height
}
