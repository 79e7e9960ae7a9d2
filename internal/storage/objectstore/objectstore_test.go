package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"pyeongsan_church/internal/storage"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *MockClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func (m *MockClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

func newTestStorage(client Client) *Storage {
	s := NewWithClient(client, "gallery-images", "https://files.church.test/")
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func TestStorage_Upload(t *testing.T) {
	client := new(MockClient)
	s := newTestStorage(client)

	client.On("PutObject", mock.Anything, "gallery-images",
		mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "gallery/1700000000000-") && strings.HasSuffix(key, ".png")
		}),
		mock.Anything, int64(4),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "image/png" }),
	).Return(minio.UploadInfo{}, nil).Once()

	url, err := s.Upload(context.Background(), PrefixGallery, "easter.png", "", strings.NewReader("data"), 4)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://files.church.test/gallery-images/gallery/1700000000000-"))
	key, ok := s.KeyFromURL(url)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(key, "gallery/"))
	client.AssertExpectations(t)
}

func TestStorage_UploadRejectsNonImage(t *testing.T) {
	client := new(MockClient)
	s := newTestStorage(client)

	_, err := s.Upload(context.Background(), PrefixGallery, "bulletin.pdf", "application/pdf", strings.NewReader("x"), 1)

	assert.ErrorIs(t, err, storage.ErrInvalidFileType)
	assert.Empty(t, client.Calls)
}

func TestStorage_UploadError(t *testing.T) {
	client := new(MockClient)
	s := newTestStorage(client)
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("connection reset")).Once()

	up := s.Uploader(PrefixNotices)
	_, err := up.Upload(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("x"), 1)

	assert.ErrorContains(t, err, "connection reset")
}

func TestStorage_KeyFromURL(t *testing.T) {
	s := newTestStorage(new(MockClient))

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "own url", raw: "https://files.church.test/gallery-images/gallery/1-a.jpg", want: "gallery/1-a.jpg", wantOK: true},
		{name: "query stripped", raw: "https://files.church.test/gallery-images/notices/x.png?v=2", want: "notices/x.png", wantOK: true},
		{name: "foreign host", raw: "https://example.com/gallery-images/gallery/1.jpg", wantOK: false},
		{name: "other bucket", raw: "https://files.church.test/avatars/1.jpg", wantOK: false},
		{name: "empty", raw: " ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.KeyFromURL(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorage_RemoveAttemptsEveryObject(t *testing.T) {
	client := new(MockClient)
	s := newTestStorage(client)

	client.On("RemoveObject", mock.Anything, "gallery-images", "gallery/a.jpg", mock.Anything).
		Return(errors.New("timeout")).Once()
	client.On("RemoveObject", mock.Anything, "gallery-images", "gallery/b.jpg", mock.Anything).
		Return(nil).Once()

	err := s.Remove(context.Background(),
		"https://files.church.test/gallery-images/gallery/a.jpg",
		"https://elsewhere.test/c.jpg",
		"https://files.church.test/gallery-images/gallery/b.jpg",
	)

	assert.ErrorContains(t, err, "timeout")
	client.AssertExpectations(t)
}

func TestStorage_List(t *testing.T) {
	client := new(MockClient)
	s := newTestStorage(client)

	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "gallery/1.jpg", Size: 10}
	ch <- minio.ObjectInfo{Key: "gallery/2.jpg", Size: 20}
	close(ch)

	client.On("ListObjects", mock.Anything, "gallery-images",
		minio.ListObjectsOptions{Prefix: "gallery/", Recursive: true},
	).Return((<-chan minio.ObjectInfo)(ch)).Once()

	objects, err := s.List(context.Background(), PrefixGallery)

	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "https://files.church.test/gallery-images/gallery/2.jpg", objects[1].URL)
}

func TestStorage_EnsureBucket(t *testing.T) {
	client := new(MockClient)
	s := newTestStorage(client)

	client.On("BucketExists", mock.Anything, "gallery-images").Return(false, nil).Once()
	client.On("MakeBucket", mock.Anything, "gallery-images", minio.MakeBucketOptions{}).Return(nil).Once()

	require.NoError(t, s.EnsureBucket(context.Background()))
	client.AssertExpectations(t)
}
