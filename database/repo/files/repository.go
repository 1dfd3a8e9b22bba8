package files

import (
	"context"
	"fmt"

	"github.com/anoixa/imagebank/database"
	"github.com/anoixa/imagebank/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 存储文件记录仓库
type Repository struct {
	db database.Provider
}

// NewRepository 创建存储文件仓库
func NewRepository(db database.Provider) *Repository {
	return &Repository{db: db}
}

// GetByID 按主键获取
func (r *Repository) GetByID(ctx context.Context, id uint) (*models.StoredFile, error) {
	var file models.StoredFile
	if err := r.db.WithContext(ctx).First(&file, id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// GetByFingerprint 按指纹获取
func (r *Repository) GetByFingerprint(ctx context.Context, fingerprint string) (*models.StoredFile, error) {
	var file models.StoredFile
	if err := r.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// GetBySourceURL 按来源地址获取最早的一条记录
func (r *Repository) GetBySourceURL(ctx context.Context, sourceURL string) (*models.StoredFile, error) {
	var file models.StoredFile
	err := r.db.WithContext(ctx).
		Where("source_url = ?", sourceURL).
		Order("id asc").
		First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// CreateOrGet 插入记录，指纹冲突时不报错并返回已存在的记录
func (r *Repository) CreateOrGet(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error) {
	db := r.db.WithContext(ctx)

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoNothing: true,
	}).Create(file).Error
	if err != nil {
		return nil, fmt.Errorf("failed to insert stored file %s: %w", file.Fingerprint, err)
	}

	// 冲突时 file.ID 未被填充，重新读取胜出者
	var saved models.StoredFile
	if err := db.Where("fingerprint = ?", file.Fingerprint).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// BackfillSourceURL 仅在来源地址为空时写入
func (r *Repository) BackfillSourceURL(ctx context.Context, file *models.StoredFile, sourceURL string) error {
	return r.db.WithContext(ctx).
		Model(&models.StoredFile{}).
		Where("id = ? AND source_url IS NULL", file.ID).
		Update("source_url", sourceURL).Error
}

// FindInBatches 分批遍历全部记录
func (r *Repository) FindInBatches(ctx context.Context, batchSize int, fn func(batch []*models.StoredFile) error) error {
	var batch []*models.StoredFile
	return r.db.WithContext(ctx).
		Order("id asc").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}

// Count 记录总数
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StoredFile{}).Count(&count).Error
	return count, err
}

// Delete 删除记录
func (r *Repository) Delete(ctx context.Context, file *models.StoredFile) error {
	return r.db.WithContext(ctx).Delete(&models.StoredFile{}, file.ID).Error
}
