package models

import "gorm.io/gorm"

// Image 相册中的逻辑图片
type Image struct {
	gorm.Model
	AlbumID uint   `gorm:"not null;index:idx_images_album_origin,priority:1"`
	Title   string `gorm:"type:varchar(255);not null"`

	// 便捷字段，变体生成后显式更新
	OriginFileID *uint `gorm:"index:idx_images_album_origin,priority:2"`
	MdFileID     *uint
	SmFileID     *uint

	Album *Album       `gorm:"foreignKey:AlbumID"`
	Files []*ImageFile `gorm:"foreignKey:ImageID"`
}
