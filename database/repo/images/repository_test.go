package images

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anoixa/imagebank/database"
	"github.com/anoixa/imagebank/database/models"
	"github.com/anoixa/imagebank/database/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    database.Provider
	repo  *Repository
	album *models.Album
	files []*models.StoredFile
}

func newFixture(t *testing.T, nFiles int) *fixture {
	t.Helper()
	db := testdb.New(t)
	ctx := context.Background()

	album := &models.Album{UserID: 1, Title: models.DefaultAlbumTitle}
	require.NoError(t, db.WithContext(ctx).Create(album).Error)

	files := make([]*models.StoredFile, 0, nFiles)
	for i := 0; i < nFiles; i++ {
		fp := fmt.Sprintf("%040x", i+1)
		f := &models.StoredFile{
			Fingerprint: fp,
			StoragePath: fp[0:2] + "/" + fp[2:4] + "/" + fp[4:] + ".png",
			Width:       10,
			Height:      10,
			FileSize:    100,
		}
		require.NoError(t, db.WithContext(ctx).Create(f).Error)
		files = append(files, f)
	}

	return &fixture{db: db, repo: NewRepository(db), album: album, files: files}
}

func (f *fixture) newImage(t *testing.T, title string) *models.Image {
	t.Helper()
	img := &models.Image{AlbumID: f.album.ID, Title: title}
	require.NoError(t, f.repo.Create(context.Background(), img))
	return img
}

func TestAttachStandard_AllowsAliasing(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	img := f.newImage(t, "tiny")

	id := f.files[0].ID
	require.NoError(t, f.repo.AttachStandard(ctx, img, id, id, id))

	links, err := f.repo.ListFiles(ctx, img.ID)
	require.NoError(t, err)
	require.Len(t, links, 3)
	shapes := map[string]uint{}
	for _, l := range links {
		shapes[l.Shape] = l.FileID
		require.NotNil(t, l.File)
		assert.Equal(t, f.files[0].Fingerprint, l.File.Fingerprint)
	}
	assert.Equal(t, map[string]uint{"origin": id, "md": id, "sm": id}, shapes)

	got, err := f.repo.GetByID(ctx, img.ID)
	require.NoError(t, err)
	require.NotNil(t, got.OriginFileID)
	assert.Equal(t, id, *got.OriginFileID)
	assert.Equal(t, id, *got.MdFileID)
	assert.Equal(t, id, *got.SmFileID)
}

func TestUpsertShape_ReplacesAssociation(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	img := f.newImage(t, "crop")

	require.NoError(t, f.repo.UpsertShape(ctx, img.ID, "avatar", f.files[0].ID))
	require.NoError(t, f.repo.UpsertShape(ctx, img.ID, "avatar", f.files[1].ID))

	links, err := f.repo.ListFiles(ctx, img.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, f.files[1].ID, links[0].FileID)
}

func TestFindByAlbumAndOrigin(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	img := f.newImage(t, "cat")
	require.NoError(t, f.repo.AttachStandard(ctx, img, f.files[0].ID, f.files[1].ID, f.files[1].ID))

	got, err := f.repo.FindByAlbumAndOrigin(ctx, f.album.ID, f.files[0].ID)
	require.NoError(t, err)
	assert.Equal(t, img.ID, got.ID)

	// md 形状不算原图
	_, err = f.repo.FindByAlbumAndOrigin(ctx, f.album.ID, f.files[1].ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestGetByIDAndUser(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	img := f.newImage(t, "mine")

	got, err := f.repo.GetByIDAndUser(ctx, img.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, got.Album)
	assert.Equal(t, f.album.ID, got.Album.ID)

	_, err = f.repo.GetByIDAndUser(ctx, img.ID, 2)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteByFile(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	a := f.newImage(t, "a")
	b := f.newImage(t, "b")
	keep := f.newImage(t, "keep")
	require.NoError(t, f.repo.AttachStandard(ctx, a, f.files[0].ID, f.files[0].ID, f.files[0].ID))
	require.NoError(t, f.repo.AttachStandard(ctx, b, f.files[1].ID, f.files[0].ID, f.files[0].ID))
	require.NoError(t, f.repo.AttachStandard(ctx, keep, f.files[1].ID, f.files[1].ID, f.files[1].ID))

	ids, err := f.repo.ListImageIDsByFile(ctx, f.files[0].ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, ids)

	deleted, err := f.repo.DeleteByFile(ctx, f.files[0].ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, deleted)

	_, err = f.repo.GetByID(ctx, a.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var count int64
	require.NoError(t, f.db.WithContext(ctx).Unscoped().Model(&models.Image{}).Where("id IN ?", deleted).Count(&count).Error)
	assert.Zero(t, count)

	links, err := f.repo.ListFiles(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, links, 3)
}
