package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"squadmatch/server/internal/apperrors"
	"squadmatch/server/internal/logger"
	"squadmatch/server/internal/repository/memory"
	"squadmatch/server/internal/storage"
	"squadmatch/server/internal/storage/mocks"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPhotoFixture(t *testing.T) (*fixture, *mocks.MockObjectStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	objects := mocks.NewMockObjectStore(ctrl)

	mem := memory.New()
	clock := &tickingClock{}
	svc := New(Deps{
		Store:   mem.Repositories(),
		Objects: objects,
		Logger:  logger.Discard(),
		Now:     clock.Now,
	})
	return &fixture{mem: mem, svc: svc, notifier: &recordingNotifier{}}, objects
}

func TestUploadGroupPhoto(t *testing.T) {
	f, objects := newPhotoFixture(t)
	ctx := context.Background()
	g := f.group(t, "Crew", "u1", "u2")

	objects.EXPECT().
		Put(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, path string, _ io.Reader) (string, error) {
			assert.True(t, strings.HasPrefix(path, "groups/"+g.ID+"/photo_"))
			assert.True(t, strings.HasSuffix(path, ".jpg"))
			return "http://cdn/" + path, nil
		})

	updated, err := f.svc.Photos.UploadGroupPhoto(ctx, identity("u1"), g.ID, strings.NewReader("img"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.PhotoURL, "http://cdn/groups/"+g.ID))

	_, err = f.svc.Photos.UploadGroupPhoto(ctx, identity("u2"), g.ID, strings.NewReader("img"))
	assert.ErrorIs(t, err, apperrors.ErrNotGroupCreator)
}

func TestUploadMemberPhoto(t *testing.T) {
	f, objects := newPhotoFixture(t)
	ctx := context.Background()
	g := f.group(t, "Crew", "u1", "u2")

	objects.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("http://cdn/members/u2/photo.jpg", nil)

	url, err := f.svc.Photos.UploadMemberPhoto(ctx, identity("u2"), strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "http://cdn/members/u2/photo.jpg", url)

	got, err := f.svc.Groups.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, url, got.Members[1].PhotoURL)
}

func TestUploadFailures(t *testing.T) {
	f, objects := newPhotoFixture(t)
	ctx := context.Background()

	objects.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("", storage.ErrTooLarge)
	_, err := f.svc.Photos.UploadMemberPhoto(ctx, identity("u2"), strings.NewReader("img"))
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))

	objects.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("disk full"))
	_, err = f.svc.Photos.UploadMemberPhoto(ctx, identity("u2"), strings.NewReader("img"))
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(err))
	assert.Equal(t, "Something went wrong", apperrors.MessageOf(err, "Something went wrong"))
}
