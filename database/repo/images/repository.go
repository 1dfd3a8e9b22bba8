package images

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/imagebank/database"
	"github.com/anoixa/imagebank/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 图片与形状关联仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建图片仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// Create 创建图片
func (r *Repository) Create(ctx context.Context, image *models.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

// GetByID 按主键获取图片
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.Image, error) {
	var image models.Image
	if err := r.db.WithContext(ctx).First(&image, id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// GetByIDAndUser 获取属于指定用户相册的图片
func (r *Repository) GetByIDAndUser(ctx context.Context, id, userID uint) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).
		Joins("JOIN albums ON albums.id = images.album_id AND albums.deleted_at IS NULL").
		Where("images.id = ? AND albums.user_id = ?", id, userID).
		Preload("Album").
		First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// FindByAlbumAndOrigin 查找相册中以该文件为原图的图片
func (r *Repository) FindByAlbumAndOrigin(ctx context.Context, albumID, fileID uint) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).
		Joins("JOIN image_files ON image_files.image_id = images.id").
		Where("images.album_id = ? AND image_files.file_id = ? AND image_files.shape = ?",
			albumID, fileID, models.ShapeOrigin).
		Order("images.id asc").
		First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// upsertShape 写入或替换 (image_id, shape) 对应的文件
func upsertShape(tx *gorm.DB, imageID uint, shape string, fileID uint) error {
	now := time.Now()
	link := &models.ImageFile{
		ImageID:   imageID,
		Shape:     shape,
		FileID:    fileID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "image_id"}, {Name: "shape"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_id", "updated_at"}),
	}).Create(link).Error
	if err != nil {
		return fmt.Errorf("failed to upsert shape %s for image %d: %w", shape, imageID, err)
	}
	return nil
}

// UpsertShape 写入或替换某一形状的关联文件
func (r *Repository) UpsertShape(ctx context.Context, imageID uint, shape string, fileID uint) error {
	return upsertShape(r.db.WithContext(ctx), imageID, shape, fileID)
}

// AttachStandard 写入 origin/md/sm 三个关联并同步便捷字段
func (r *Repository) AttachStandard(ctx context.Context, image *models.Image, originID, mdID, smID uint) error {
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		shapes := []struct {
			shape string
			id    uint
		}{
			{models.ShapeOrigin, originID},
			{models.ShapeMedium, mdID},
			{models.ShapeSmall, smID},
		}
		for _, s := range shapes {
			if err := upsertShape(tx, image.ID, s.shape, s.id); err != nil {
				return err
			}
		}

		return tx.Model(&models.Image{}).
			Where("id = ?", image.ID).
			Updates(map[string]interface{}{
				"origin_file_id": originID,
				"md_file_id":     mdID,
				"sm_file_id":     smID,
			}).Error
	})
	if err != nil {
		return err
	}

	image.OriginFileID = &originID
	image.MdFileID = &mdID
	image.SmFileID = &smID
	return nil
}

// ListFiles 列出图片全部形状及其文件
func (r *Repository) ListFiles(ctx context.Context, imageID uint) ([]*models.ImageFile, error) {
	var links []*models.ImageFile
	err := r.db.WithContext(ctx).
		Preload("File").
		Where("image_id = ?", imageID).
		Order("id asc").
		Find(&links).Error
	return links, err
}

// ListImageIDsByFile 列出引用该文件的图片 ID
func (r *Repository) ListImageIDsByFile(ctx context.Context, fileID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.ImageFile{}).
		Distinct("image_id").
		Where("file_id = ?", fileID).
		Order("image_id asc").
		Pluck("image_id", &ids).Error
	return ids, err
}

// DeleteByFile 物理删除引用该文件的图片及其全部形状关联，返回被删除的图片 ID
func (r *Repository) DeleteByFile(ctx context.Context, fileID uint) ([]uint, error) {
	var ids []uint
	err := r.db.TransactionWithContext(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&models.ImageFile{}).
			Distinct("image_id").
			Where("file_id = ?", fileID).
			Pluck("image_id", &ids).Error; err != nil {
			return err
		}

		// 仍有便捷字段指向该文件的图片一并清理
		var extra []uint
		if err := tx.Unscoped().Model(&models.Image{}).
			Where("origin_file_id = ? OR md_file_id = ? OR sm_file_id = ?", fileID, fileID, fileID).
			Pluck("id", &extra).Error; err != nil {
			return err
		}
		ids = mergeIDs(ids, extra)
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("image_id IN ?", ids).Delete(&models.ImageFile{}).Error; err != nil {
			return fmt.Errorf("failed to delete image files: %w", err)
		}
		if err := tx.Unscoped().Where("id IN ?", ids).Delete(&models.Image{}).Error; err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func mergeIDs(a, b []uint) []uint {
	seen := make(map[uint]struct{}, len(a)+len(b))
	out := make([]uint, 0, len(a)+len(b))
	for _, list := range [][]uint{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
