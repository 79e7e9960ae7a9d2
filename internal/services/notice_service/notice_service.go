package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/lib/logger/sl"
	"pyeongsan_church/internal/lib/richtext"
	"pyeongsan_church/internal/repository"
	"pyeongsan_church/internal/storage"

	"github.com/google/uuid"
)

const cleanupTimeout = 30 * time.Second

// Uploader сохраняет изображение объявления и возвращает его публичный URL
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

type ObjectRemover interface {
	Remove(ctx context.Context, urls ...string) error
}

// NoticeInput данные формы объявления.
// Image заменяет текущее изображение, RemoveImage убирает его без замены.
type NoticeInput struct {
	Title       string
	Content     string
	Published   bool
	Image       *multipart.FileHeader
	RemoveImage bool
}

type NoticeService struct {
	log      *slog.Logger
	repo     repository.NoticeRepository
	comments repository.CommentRepository
	uploader Uploader
	objects  ObjectRemover
}

func NewNoticeService(
	log *slog.Logger,
	repo repository.NoticeRepository,
	comments repository.CommentRepository,
	uploader Uploader,
	objects ObjectRemover,
) *NoticeService {
	return &NoticeService{
		log:      log,
		repo:     repo,
		comments: comments,
		uploader: uploader,
		objects:  objects,
	}
}

// ListPublished возвращает опубликованные объявления, новые первыми
func (s *NoticeService) ListPublished(ctx context.Context, page, perPage int) ([]models.Notice, int, error) {
	const op = "service.NoticeService.ListPublished"

	notices, total, err := s.repo.GetNotices(ctx, true, page, perPage)
	if err != nil {
		s.log.Error("failed to list notices", slog.String("op", op), sl.Err(err))
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return notices, total, nil
}

// GetPublished возвращает объявление. Неопубликованное считается отсутствующим.
func (s *NoticeService) GetPublished(ctx context.Context, id uuid.UUID) (models.Notice, error) {
	const op = "service.NoticeService.GetPublished"

	notice, err := s.repo.GetNoticeByID(ctx, id)
	if err != nil {
		return models.Notice{}, fmt.Errorf("%s: %w", op, err)
	}
	if !notice.Published {
		return models.Notice{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return notice, nil
}

// ListAll возвращает все объявления с количеством комментариев
func (s *NoticeService) ListAll(ctx context.Context, capability models.AdminCapability, page, perPage int) ([]models.Notice, int, error) {
	const op = "service.NoticeService.ListAll"

	if !capability.Valid() {
		return nil, 0, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	log := s.log.With(slog.String("op", op))

	notices, total, err := s.repo.GetNotices(ctx, false, page, perPage)
	if err != nil {
		log.Error("failed to list notices", sl.Err(err))
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(notices) == 0 {
		return notices, total, nil
	}

	ids := make([]uuid.UUID, len(notices))
	for i, n := range notices {
		ids[i] = n.ID
	}

	counts, err := s.comments.CountByPosts(ctx, models.PostTypeNotice, ids)
	if err != nil {
		log.Error("failed to count comments", sl.Err(err))
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	for i := range notices {
		notices[i].CommentCount = counts[notices[i].ID]
	}

	return notices, total, nil
}

// Get возвращает объявление для формы редактирования, включая черновики
func (s *NoticeService) Get(ctx context.Context, capability models.AdminCapability, id uuid.UUID) (models.Notice, error) {
	const op = "service.NoticeService.Get"

	if !capability.Valid() {
		return models.Notice{}, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	notice, err := s.repo.GetNoticeByID(ctx, id)
	if err != nil {
		return models.Notice{}, fmt.Errorf("%s: %w", op, err)
	}

	return notice, nil
}

func (s *NoticeService) Create(ctx context.Context, capability models.AdminCapability, in NoticeInput) (models.Notice, error) {
	const op = "service.NoticeService.Create"

	if !capability.Valid() {
		return models.Notice{}, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	log := s.log.With(slog.String("op", op))

	notice, err := validateInput(in)
	if err != nil {
		return models.Notice{}, fmt.Errorf("%s: %w", op, err)
	}

	var uploaded string
	if in.Image != nil {
		uploaded, err = s.upload(ctx, in.Image)
		if err != nil {
			log.Error("failed to upload notice image", sl.Err(err))
			return models.Notice{}, fmt.Errorf("%s: %w", op, err)
		}
		notice.ImageURL = &uploaded
	}

	id, err := s.repo.CreateNotice(ctx, notice)
	if err != nil {
		log.Error("failed to insert notice", sl.Err(err))
		s.removeObjects(ctx, log, uploaded)
		return models.Notice{}, fmt.Errorf("%s: %w", op, &models.PersistenceError{Op: "insert", Err: err})
	}
	notice.ID = id

	log.Info("notice created", slog.String("notice_id", id.String()))

	return notice, nil
}

// Update сохраняет изменения. Старое изображение удаляется из хранилища
// только после успешной записи в базу.
func (s *NoticeService) Update(ctx context.Context, capability models.AdminCapability, id uuid.UUID, in NoticeInput) (models.Notice, error) {
	const op = "service.NoticeService.Update"

	if !capability.Valid() {
		return models.Notice{}, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("notice_id", id.String()),
	)

	notice, err := validateInput(in)
	if err != nil {
		return models.Notice{}, fmt.Errorf("%s: %w", op, err)
	}

	current, err := s.repo.GetNoticeByID(ctx, id)
	if err != nil {
		return models.Notice{}, fmt.Errorf("%s: %w", op, err)
	}

	notice.ID = id
	notice.CreatedAt = current.CreatedAt
	notice.ImageURL = current.ImageURL

	var uploaded string
	switch {
	case in.Image != nil:
		uploaded, err = s.upload(ctx, in.Image)
		if err != nil {
			log.Error("failed to upload notice image", sl.Err(err))
			return models.Notice{}, fmt.Errorf("%s: %w", op, err)
		}
		notice.ImageURL = &uploaded
	case in.RemoveImage:
		notice.ImageURL = nil
	}

	if err := s.repo.UpdateNotice(ctx, notice); err != nil {
		log.Error("failed to update notice", sl.Err(err))
		s.removeObjects(ctx, log, uploaded)
		return models.Notice{}, fmt.Errorf("%s: %w", op, &models.PersistenceError{Op: "update", Err: err})
	}

	if current.ImageURL != nil && (notice.ImageURL == nil || *notice.ImageURL != *current.ImageURL) {
		s.removeObjects(ctx, log, *current.ImageURL)
	}

	log.Info("notice updated")

	return notice, nil
}

func (s *NoticeService) SetPublished(ctx context.Context, capability models.AdminCapability, id uuid.UUID, published bool) error {
	const op = "service.NoticeService.SetPublished"

	if !capability.Valid() {
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	if err := s.repo.SetPublished(ctx, id, published); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("notice publication changed",
		slog.String("op", op),
		slog.String("notice_id", id.String()),
		slog.Bool("published", published),
	)

	return nil
}

// Delete удаляет объявление вместе с комментариями, затем его изображение
func (s *NoticeService) Delete(ctx context.Context, capability models.AdminCapability, id uuid.UUID) error {
	const op = "service.NoticeService.Delete"

	if !capability.Valid() {
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("notice_id", id.String()),
	)

	notice, err := s.repo.GetNoticeByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.DeleteNotice(ctx, id); err != nil {
		log.Error("failed to delete notice", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if notice.ImageURL != nil {
		s.removeObjects(ctx, log, *notice.ImageURL)
	}

	log.Info("notice deleted")

	return nil
}

func (s *NoticeService) upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	contentType := storage.ImageContentType(file.Header.Get("Content-Type"), file.Filename)

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	return s.uploader.Upload(ctx, file.Filename, contentType, src, file.Size)
}

func (s *NoticeService) removeObjects(ctx context.Context, log *slog.Logger, urls ...string) {
	var keep []string
	for _, u := range urls {
		if u != "" {
			keep = append(keep, u)
		}
	}
	if len(keep) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.objects.Remove(ctx, keep...); err != nil {
		log.Warn("failed to remove notice image", sl.Err(err))
	}
}

// validateInput проверяет форму и очищает текст объявления
func validateInput(in NoticeInput) (models.Notice, error) {
	var validationErrors []string

	title := strings.TrimSpace(in.Title)
	if title == "" {
		validationErrors = append(validationErrors, "title is required")
	}

	content := richtext.Sanitize(in.Content)
	if !richtext.HasText(content) {
		validationErrors = append(validationErrors, "content is required")
	}

	if in.Image != nil {
		contentType := storage.ImageContentType(in.Image.Header.Get("Content-Type"), in.Image.Filename)
		if !storage.IsAllowedImage(contentType) {
			validationErrors = append(validationErrors, "image must be png, jpeg, webp or gif")
		}
	}

	if len(validationErrors) > 0 {
		return models.Notice{}, models.NewValidationError(validationErrors...)
	}

	return models.Notice{
		Title:     title,
		Content:   content,
		Published: in.Published,
	}, nil
}
