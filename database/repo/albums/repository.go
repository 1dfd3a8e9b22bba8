package albums

import (
	"context"
	"fmt"

	"github.com/anoixa/imagebank/database"
	"github.com/anoixa/imagebank/database/models"
	"gorm.io/gorm/clause"
)

// Repository 相册仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建相册仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// GetByIDAndUser 获取属于指定用户的相册
func (r *Repository) GetByIDAndUser(ctx context.Context, id, userID uint) (*models.Album, error) {
	var album models.Album
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&album).Error
	if err != nil {
		return nil, err
	}
	return &album, nil
}

// GetByTitle 按名称获取用户相册
func (r *Repository) GetByTitle(ctx context.Context, userID uint, title string) (*models.Album, error) {
	var album models.Album
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND title = ?", userID, title).
		First(&album).Error
	if err != nil {
		return nil, err
	}
	return &album, nil
}

// GetOrCreate 获取或创建用户的同名相册，并发创建时返回同一条记录
func (r *Repository) GetOrCreate(ctx context.Context, userID uint, title string) (*models.Album, error) {
	if album, err := r.GetByTitle(ctx, userID, title); err == nil {
		return album, nil
	}

	album := &models.Album{UserID: userID, Title: title}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "title"}},
		DoNothing: true,
	}).Create(album).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create album %q: %w", title, err)
	}

	return r.GetByTitle(ctx, userID, title)
}

// GetOrCreateDefault 获取或创建用户的默认相册
func (r *Repository) GetOrCreateDefault(ctx context.Context, userID uint) (*models.Album, error) {
	return r.GetOrCreate(ctx, userID, models.DefaultAlbumTitle)
}

// ListByUser 列出用户的全部相册
func (r *Repository) ListByUser(ctx context.Context, userID uint) ([]*models.Album, error) {
	var albums []*models.Album
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&albums).Error
	return albums, err
}

// ImageCounts 统计每个相册中的图片数量，没有图片的相册不出现在结果中
func (r *Repository) ImageCounts(ctx context.Context, albumIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(albumIDs))
	if len(albumIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AlbumID uint
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Image{}).
		Select("album_id, COUNT(*) AS count").
		Where("album_id IN ?", albumIDs).
		Group("album_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.AlbumID] = row.Count
	}
	return counts, nil
}
