package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/internal/metrics"
	"github.com/anoixa/imagebank/storage"
	"github.com/anoixa/imagebank/utils"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// FileRepository 存储文件记录的持久化
// 查询不到时返回 gorm.ErrRecordNotFound
type FileRepository interface {
	GetByFingerprint(ctx context.Context, fingerprint string) (*models.StoredFile, error)
	GetBySourceURL(ctx context.Context, sourceURL string) (*models.StoredFile, error)
	// CreateOrGet 插入记录，指纹冲突时返回已存在的记录
	CreateOrGet(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error)
	BackfillSourceURL(ctx context.Context, file *models.StoredFile, sourceURL string) error
}

// Store 内容寻址存储，按指纹去重
type Store struct {
	files     FileRepository
	storage   storage.Provider
	processor Processor
	metrics   *metrics.Metrics
	group     singleflight.Group
}

// NewStore 创建内容寻址存储
func NewStore(files FileRepository, provider storage.Provider, processor Processor, m *metrics.Metrics) *Store {
	return &Store{
		files:     files,
		storage:   provider,
		processor: processor,
		metrics:   m,
	}
}

// Storage 返回底层存储
func (s *Store) Storage() storage.Provider {
	return s.storage
}

// Ingest 读取来源全部字节并入库
// 指纹已存在时直接返回已有记录，不再解码；必要时回填来源地址并补写丢失的文件
func (s *Store) Ingest(ctx context.Context, src Source) (*models.StoredFile, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}

	fingerprint := Fingerprint(data)
	// 共享的入库不跟随任一调用方取消，每个调用方只等待自己的 ctx
	ch := s.group.DoChan(fingerprint, func() (interface{}, error) {
		return s.ingest(context.WithoutCancel(ctx), fingerprint, data, src.Name())
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	// singleflight 共享结果，复制后再交给调用方
	file := *res.Val.(*models.StoredFile)

	if sourceURL := src.SourceURL(); sourceURL != "" && file.SourceURL == nil {
		if err := s.files.BackfillSourceURL(ctx, &file, sourceURL); err != nil {
			return nil, fmt.Errorf("failed to backfill source url: %w", err)
		}
		file.SourceURL = &sourceURL
	}

	return &file, nil
}

func (s *Store) ingest(ctx context.Context, fingerprint string, data []byte, name string) (*models.StoredFile, error) {
	existing, err := s.files.GetByFingerprint(ctx, fingerprint)
	if err == nil {
		healed, err := s.heal(ctx, existing, data)
		if err != nil {
			return nil, err
		}
		if healed {
			s.metrics.RecordIngest(metrics.IngestHealed, int64(len(data)))
		} else {
			s.metrics.RecordIngest(metrics.IngestHit, 0)
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up fingerprint %s: %w", fingerprint, err)
	}

	info, err := s.processor.Decode(data)
	if err != nil {
		s.metrics.RecordIngest(metrics.IngestInvalid, 0)
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageFile, err)
	}

	storagePath := StoragePath(fingerprint, info.Format)
	written, err := s.writeBlob(ctx, storagePath, fingerprint, data)
	if err != nil {
		return nil, err
	}

	file := &models.StoredFile{
		Fingerprint:    fingerprint,
		StoragePath:    storagePath,
		Width:          info.Width,
		Height:         info.Height,
		FileSize:       int64(len(data)),
		OriginFilename: name,
	}
	if info.Format != "" {
		format := info.Format
		file.Format = &format
	}

	saved, err := s.files.CreateOrGet(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save stored file record: %w", err)
	}

	s.metrics.RecordIngest(metrics.IngestMiss, written)
	utils.LogIfDevf("[Store] Ingested %s (%dx%d, %d bytes) -> %s",
		fingerprint, info.Width, info.Height, len(data), storagePath)
	return saved, nil
}

// heal 命中记录但存储中文件丢失时用当前字节补写
func (s *Store) heal(ctx context.Context, file *models.StoredFile, data []byte) (bool, error) {
	exists, err := s.storage.Exists(ctx, file.StoragePath)
	if err != nil {
		return false, fmt.Errorf("failed to check blob %s: %w", file.StoragePath, err)
	}
	if exists {
		return false, nil
	}

	log.Printf("[Store] Blob %s missing for %s, rewriting", file.StoragePath, file.Fingerprint)
	if err := s.storage.SaveWithContext(ctx, file.StoragePath, bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("failed to rewrite blob %s: %w", file.StoragePath, err)
	}
	return true, nil
}

// writeBlob 写入文件；路径已被占用时比较占用者指纹，一致则跳过，否则覆盖
func (s *Store) writeBlob(ctx context.Context, storagePath, fingerprint string, data []byte) (int64, error) {
	exists, err := s.storage.Exists(ctx, storagePath)
	if err != nil {
		return 0, fmt.Errorf("failed to check blob %s: %w", storagePath, err)
	}

	if exists {
		same, err := s.occupantMatches(ctx, storagePath, fingerprint)
		if err != nil {
			return 0, err
		}
		if same {
			utils.LogIfDevf("[Store] Blob %s already present, skipping write", storagePath)
			return 0, nil
		}
		log.Printf("[Store] Blob %s does not match fingerprint, overwriting", storagePath)
	}

	if err := s.storage.SaveWithContext(ctx, storagePath, bytes.NewReader(data)); err != nil {
		return 0, fmt.Errorf("failed to write blob %s: %w", storagePath, err)
	}
	return int64(len(data)), nil
}

func (s *Store) occupantMatches(ctx context.Context, storagePath, fingerprint string) (bool, error) {
	r, err := s.storage.GetWithContext(ctx, storagePath)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open blob %s: %w", storagePath, err)
	}
	defer storage.CloseIfCloser(r)

	occupant, _, err := FingerprintReader(r)
	if err != nil {
		return false, fmt.Errorf("failed to hash blob %s: %w", storagePath, err)
	}
	return occupant == fingerprint, nil
}

// ReadBlob 读取存储文件的全部字节
func (s *Store) ReadBlob(ctx context.Context, file *models.StoredFile) ([]byte, error) {
	r, err := s.storage.GetWithContext(ctx, file.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", file.StoragePath, err)
	}
	defer storage.CloseIfCloser(r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", file.StoragePath, err)
	}
	return data, nil
}
