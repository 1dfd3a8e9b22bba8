package models

import "gorm.io/gorm"

// DefaultAlbumTitle 未指定相册时使用的相册名
const DefaultAlbumTitle = "default"

type Album struct {
	gorm.Model
	UserID   uint   `gorm:"not null;uniqueIndex:idx_albums_user_title,priority:1"`
	Title    string `gorm:"type:varchar(100);not null;uniqueIndex:idx_albums_user_title,priority:2"`
	IsPublic bool   `gorm:"default:false;not null"`

	Images []*Image `gorm:"foreignKey:AlbumID"`
}
