package models

import "time"

// 保留的形状名
const (
	ShapeOrigin = "origin"
	ShapeMedium = "md"
	ShapeSmall  = "sm"
)

// MaxShapeLength 形状名最大长度
const MaxShapeLength = 10

// ImageFile 图片与物理文件在某一形状下的关联
// (image_id, shape) 唯一；同一文件可在多个形状下出现
type ImageFile struct {
	ID        uint   `gorm:"primarykey"`
	ImageID   uint   `gorm:"not null;uniqueIndex:idx_image_files_image_shape,priority:1"`
	FileID    uint   `gorm:"not null;index:idx_image_files_file"`
	Shape     string `gorm:"type:varchar(10);not null;uniqueIndex:idx_image_files_image_shape,priority:2"`
	CreatedAt time.Time
	UpdatedAt time.Time

	File *StoredFile `gorm:"foreignKey:FileID"`
}

// IsReservedShape 判断形状名是否为系统保留
func IsReservedShape(shape string) bool {
	switch shape {
	case ShapeOrigin, ShapeMedium, ShapeSmall:
		return true
	}
	return false
}
