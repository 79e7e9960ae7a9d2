package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNoticeRepository struct {
	mock.Mock
}

func (m *MockNoticeRepository) CreateNotice(ctx context.Context, notice models.Notice) (uuid.UUID, error) {
	args := m.Called(ctx, notice)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockNoticeRepository) UpdateNotice(ctx context.Context, notice models.Notice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNoticeRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	args := m.Called(ctx, id, published)
	return args.Error(0)
}

func (m *MockNoticeRepository) DeleteNotice(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNoticeRepository) GetNoticeByID(ctx context.Context, id uuid.UUID) (models.Notice, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Notice), args.Error(1)
}

func (m *MockNoticeRepository) GetNotices(ctx context.Context, publishedOnly bool, page, perPage int) ([]models.Notice, int, error) {
	args := m.Called(ctx, publishedOnly, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.Notice), args.Int(1), args.Error(2)
}

func (m *MockNoticeRepository) ImageURLs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	args := m.Called(ctx, comment)
	return args.Get(0).(models.Comment), args.Error(1)
}

func (m *MockCommentRepository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCommentRepository) GetComments(ctx context.Context, postType models.PostType, postID uuid.UUID) ([]models.Comment, error) {
	args := m.Called(ctx, postType, postID)
	return args.Get(0).([]models.Comment), args.Error(1)
}

func (m *MockCommentRepository) CountByPosts(ctx context.Context, postType models.PostType, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, postType, postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	args := m.Called(ctx, name, contentType, r, size)
	return args.String(0), args.Error(1)
}

type MockObjectRemover struct {
	mock.Mock
}

func (m *MockObjectRemover) Remove(ctx context.Context, urls ...string) error {
	args := m.Called(ctx, urls)
	return args.Error(0)
}

type testEnv struct {
	repo     *MockNoticeRepository
	comments *MockCommentRepository
	uploader *MockUploader
	objects  *MockObjectRemover
	service  *NoticeService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:     new(MockNoticeRepository),
		comments: new(MockCommentRepository),
		uploader: new(MockUploader),
		objects:  new(MockObjectRemover),
	}
	env.service = NewNoticeService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		env.repo, env.comments, env.uploader, env.objects,
	)

	return env
}

func (e *testEnv) assertExpectations(t *testing.T) {
	e.repo.AssertExpectations(t)
	e.comments.AssertExpectations(t)
	e.uploader.AssertExpectations(t)
	e.objects.AssertExpectations(t)
}

// imageFile собирает настоящий multipart-файл, чтобы Open работал как в запросе
func imageFile(t *testing.T, name, contentType string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["image"][0]
}

func strPtr(s string) *string { return &s }

var (
	testCtx  = context.Background()
	adminCap = models.AdminCapability{UserID: uuid.MustParse("7b6c3f1e-2a8d-4c55-9a0e-1f2e3d4c5b6a")}
	noticeID = uuid.MustParse("3f8e1c2a-6b7d-4e9f-a0b1-c2d3e4f5a6b7")
)

const (
	oldImage = "http://minio:9000/church/notices/1700000000000-aaaa1111.jpg"
	newImage = "http://minio:9000/church/notices/1700000000001-bbbb2222.png"
)

func TestNoticeService_Create(t *testing.T) {
	tests := []struct {
		name        string
		input       func(t *testing.T) NoticeInput
		mockSetup   func(env *testEnv)
		wantImage   *string
		wantError   bool
		validation  bool
		persistence bool
	}{
		{
			name: "text only",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: " 주일 예배 안내 ", Content: "<p>오전 11시</p><script>alert(1)</script>", Published: true}
			},
			mockSetup: func(env *testEnv) {
				env.repo.On("CreateNotice", testCtx, models.Notice{
					Title:     "주일 예배 안내",
					Content:   "<p>오전 11시</p>",
					Published: true,
				}).Return(noticeID, nil).Once()
			},
		},
		{
			name: "with image",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "Retreat", Content: "<p>details</p>", Image: imageFile(t, "poster.png", "image/png")}
			},
			mockSetup: func(env *testEnv) {
				env.uploader.On("Upload", testCtx, "poster.png", "image/png", mock.Anything, int64(len("image-bytes"))).
					Return(newImage, nil).Once()
				env.repo.On("CreateNotice", testCtx, mock.MatchedBy(func(n models.Notice) bool {
					return n.ImageURL != nil && *n.ImageURL == newImage
				})).Return(noticeID, nil).Once()
			},
			wantImage: strPtr(newImage),
		},
		{
			name: "blank title and tag only content",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "  ", Content: "<p><br></p>"}
			},
			mockSetup:  func(env *testEnv) {},
			wantError:  true,
			validation: true,
		},
		{
			name: "image of wrong type",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "Bulletin", Content: "<p>x</p>", Image: imageFile(t, "bulletin.pdf", "application/pdf")}
			},
			mockSetup:  func(env *testEnv) {},
			wantError:  true,
			validation: true,
		},
		{
			name: "upload failure writes nothing",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "Retreat", Content: "<p>details</p>", Image: imageFile(t, "poster.png", "image/png")}
			},
			mockSetup: func(env *testEnv) {
				env.uploader.On("Upload", testCtx, "poster.png", "image/png", mock.Anything, mock.Anything).
					Return("", errors.New("bucket unavailable")).Once()
			},
			wantError: true,
		},
		{
			name: "insert failure removes uploaded image",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "Retreat", Content: "<p>details</p>", Image: imageFile(t, "poster.png", "image/png")}
			},
			mockSetup: func(env *testEnv) {
				env.uploader.On("Upload", testCtx, "poster.png", "image/png", mock.Anything, mock.Anything).
					Return(newImage, nil).Once()
				env.repo.On("CreateNotice", testCtx, mock.Anything).Return(uuid.Nil, errors.New("db down")).Once()
				env.objects.On("Remove", mock.Anything, []string{newImage}).Return(nil).Once()
			},
			wantError:   true,
			persistence: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			tt.mockSetup(env)

			got, err := env.service.Create(testCtx, adminCap, tt.input(t))

			if tt.wantError {
				require.Error(t, err)
				assert.Equal(t, tt.validation, models.IsValidationError(err))
				var pe *models.PersistenceError
				assert.Equal(t, tt.persistence, errors.As(err, &pe))
			} else {
				require.NoError(t, err)
				assert.Equal(t, noticeID, got.ID)
				assert.Equal(t, tt.wantImage, got.ImageURL)
			}
			env.assertExpectations(t)
		})
	}
}

func TestNoticeService_Update(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	current := models.Notice{
		ID:        noticeID,
		Title:     "Old",
		Content:   "<p>old</p>",
		ImageURL:  strPtr(oldImage),
		Published: true,
		CreatedAt: created,
	}

	tests := []struct {
		name      string
		input     func(t *testing.T) NoticeInput
		mockSetup func(env *testEnv)
		wantImage *string
		wantError bool
	}{
		{
			name: "keeps image",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "New", Content: "<p>new</p>", Published: true}
			},
			mockSetup: func(env *testEnv) {
				env.repo.On("GetNoticeByID", testCtx, noticeID).Return(current, nil).Once()
				env.repo.On("UpdateNotice", testCtx, mock.MatchedBy(func(n models.Notice) bool {
					return n.ID == noticeID && n.ImageURL != nil && *n.ImageURL == oldImage
				})).Return(nil).Once()
			},
			wantImage: strPtr(oldImage),
		},
		{
			name: "replaces image and removes old object",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "New", Content: "<p>new</p>", Image: imageFile(t, "new.png", "image/png")}
			},
			mockSetup: func(env *testEnv) {
				env.repo.On("GetNoticeByID", testCtx, noticeID).Return(current, nil).Once()
				env.uploader.On("Upload", testCtx, "new.png", "image/png", mock.Anything, mock.Anything).
					Return(newImage, nil).Once()
				env.repo.On("UpdateNotice", testCtx, mock.MatchedBy(func(n models.Notice) bool {
					return n.ImageURL != nil && *n.ImageURL == newImage
				})).Return(nil).Once()
				env.objects.On("Remove", mock.Anything, []string{oldImage}).Return(nil).Once()
			},
			wantImage: strPtr(newImage),
		},
		{
			name: "removes image without replacement",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "New", Content: "<p>new</p>", RemoveImage: true}
			},
			mockSetup: func(env *testEnv) {
				env.repo.On("GetNoticeByID", testCtx, noticeID).Return(current, nil).Once()
				env.repo.On("UpdateNotice", testCtx, mock.MatchedBy(func(n models.Notice) bool {
					return n.ImageURL == nil
				})).Return(nil).Once()
				env.objects.On("Remove", mock.Anything, []string{oldImage}).Return(errors.New("ignored")).Once()
			},
		},
		{
			name: "update failure keeps old object and drops new one",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "New", Content: "<p>new</p>", Image: imageFile(t, "new.png", "image/png")}
			},
			mockSetup: func(env *testEnv) {
				env.repo.On("GetNoticeByID", testCtx, noticeID).Return(current, nil).Once()
				env.uploader.On("Upload", testCtx, "new.png", "image/png", mock.Anything, mock.Anything).
					Return(newImage, nil).Once()
				env.repo.On("UpdateNotice", testCtx, mock.Anything).Return(errors.New("db down")).Once()
				env.objects.On("Remove", mock.Anything, []string{newImage}).Return(nil).Once()
			},
			wantError: true,
		},
		{
			name: "missing notice",
			input: func(t *testing.T) NoticeInput {
				return NoticeInput{Title: "New", Content: "<p>new</p>"}
			},
			mockSetup: func(env *testEnv) {
				env.repo.On("GetNoticeByID", testCtx, noticeID).Return(models.Notice{}, storage.ErrNotFound).Once()
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			tt.mockSetup(env)

			got, err := env.service.Update(testCtx, adminCap, noticeID, tt.input(t))

			if tt.wantError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantImage, got.ImageURL)
				assert.Equal(t, created, got.CreatedAt)
			}
			env.assertExpectations(t)
		})
	}
}

func TestNoticeService_GetPublished(t *testing.T) {
	env := newTestEnv()
	draft := models.Notice{ID: noticeID, Title: "draft", Published: false}
	env.repo.On("GetNoticeByID", testCtx, noticeID).Return(draft, nil).Once()

	_, err := env.service.GetPublished(testCtx, noticeID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	published := models.Notice{ID: noticeID, Title: "open", Published: true}
	env.repo.On("GetNoticeByID", testCtx, noticeID).Return(published, nil).Once()

	got, err := env.service.GetPublished(testCtx, noticeID)
	require.NoError(t, err)
	assert.Equal(t, "open", got.Title)
}

func TestNoticeService_ListAllAddsCommentCounts(t *testing.T) {
	env := newTestEnv()
	a, b := uuid.New(), uuid.New()

	env.repo.On("GetNotices", testCtx, false, 1, 10).
		Return([]models.Notice{{ID: a}, {ID: b}}, 2, nil).Once()
	env.comments.On("CountByPosts", testCtx, models.PostTypeNotice, []uuid.UUID{a, b}).
		Return(map[uuid.UUID]int{a: 3}, nil).Once()

	got, total, err := env.service.ListAll(testCtx, adminCap, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 3, got[0].CommentCount)
	assert.Equal(t, 0, got[1].CommentCount)
	env.assertExpectations(t)
}

func TestNoticeService_Delete(t *testing.T) {
	t.Run("removes image after row", func(t *testing.T) {
		env := newTestEnv()
		env.repo.On("GetNoticeByID", testCtx, noticeID).
			Return(models.Notice{ID: noticeID, ImageURL: strPtr(oldImage)}, nil).Once()
		env.repo.On("DeleteNotice", testCtx, noticeID).Return(nil).Once()
		env.objects.On("Remove", mock.Anything, []string{oldImage}).Return(nil).Once()

		require.NoError(t, env.service.Delete(testCtx, adminCap, noticeID))
		env.assertExpectations(t)
	})

	t.Run("row failure keeps image", func(t *testing.T) {
		env := newTestEnv()
		env.repo.On("GetNoticeByID", testCtx, noticeID).
			Return(models.Notice{ID: noticeID, ImageURL: strPtr(oldImage)}, nil).Once()
		env.repo.On("DeleteNotice", testCtx, noticeID).Return(errors.New("db down")).Once()

		require.Error(t, env.service.Delete(testCtx, adminCap, noticeID))
		env.objects.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	})
}

func TestNoticeService_RequiresCapability(t *testing.T) {
	env := newTestEnv()
	var none models.AdminCapability

	_, _, err := env.service.ListAll(testCtx, none, 1, 10)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = env.service.Get(testCtx, none, noticeID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = env.service.Create(testCtx, none, NoticeInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = env.service.Update(testCtx, none, noticeID, NoticeInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	assert.ErrorIs(t, env.service.SetPublished(testCtx, none, noticeID, false), models.ErrForbidden)
	assert.ErrorIs(t, env.service.Delete(testCtx, none, noticeID), models.ErrForbidden)

	env.assertExpectations(t)
}
