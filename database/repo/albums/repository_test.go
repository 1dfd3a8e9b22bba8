package albums

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/database/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetOrCreateDefault_Idempotent(t *testing.T) {
	repo := NewRepository(testdb.New(t))
	ctx := context.Background()

	first, err := repo.GetOrCreateDefault(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAlbumTitle, first.Title)
	assert.Equal(t, uint(1), first.UserID)

	second, err := repo.GetOrCreateDefault(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := repo.GetOrCreateDefault(ctx, 2)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestGetOrCreate_Concurrent(t *testing.T) {
	repo := NewRepository(testdb.New(t))
	ctx := context.Background()

	const n = 8
	ids := make([]uint, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			album, err := repo.GetOrCreate(ctx, 7, "travel")
			if assert.NoError(t, err) {
				ids[i] = album.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	list, err := repo.ListByUser(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetByIDAndUser(t *testing.T) {
	repo := NewRepository(testdb.New(t))
	ctx := context.Background()

	album, err := repo.GetOrCreate(ctx, 3, "work")
	require.NoError(t, err)

	got, err := repo.GetByIDAndUser(ctx, album.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "work", got.Title)

	_, err = repo.GetByIDAndUser(ctx, album.ID, 4)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestImageCounts(t *testing.T) {
	db := testdb.New(t)
	repo := NewRepository(db)
	ctx := context.Background()

	travel, err := repo.GetOrCreate(ctx, 1, "travel")
	require.NoError(t, err)
	empty, err := repo.GetOrCreate(ctx, 1, "empty")
	require.NoError(t, err)

	for _, title := range []string{"a", "b"} {
		require.NoError(t, db.DB().Create(&models.Image{AlbumID: travel.ID, Title: title}).Error)
	}

	counts, err := repo.ImageCounts(ctx, []uint{travel.ID, empty.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[travel.ID])
	assert.Zero(t, counts[empty.ID])

	counts, err = repo.ImageCounts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
