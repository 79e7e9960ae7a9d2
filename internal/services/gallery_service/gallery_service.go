package services

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/imageset"
	"pyeongsan_church/internal/lib/logger/sl"
	"pyeongsan_church/internal/metrics"
	"pyeongsan_church/internal/repository"

	"github.com/google/uuid"
)

const cleanupTimeout = 30 * time.Second

// ObjectRemover удаляет загруженные объекты по их публичным URL
type ObjectRemover interface {
	Remove(ctx context.Context, urls ...string) error
}

type GalleryService struct {
	log      *slog.Logger
	repo     repository.GalleryRepository
	sessions *SessionStore
	uploader imageset.Uploader
	objects  ObjectRemover
}

func NewGalleryService(
	log *slog.Logger,
	repo repository.GalleryRepository,
	sessions *SessionStore,
	uploader imageset.Uploader,
	objects ObjectRemover,
) *GalleryService {
	return &GalleryService{
		log:      log,
		repo:     repo,
		sessions: sessions,
		uploader: uploader,
		objects:  objects,
	}
}

// ListGalleries возвращает страницу галерей, новые первыми
func (s *GalleryService) ListGalleries(ctx context.Context, page, perPage int) ([]models.Gallery, int, error) {
	const op = "service.GalleryService.ListGalleries"

	galleries, total, err := s.repo.GetGalleries(ctx, page, perPage)
	if err != nil {
		s.log.Error("failed to list galleries", slog.String("op", op), sl.Err(err))
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return galleries, total, nil
}

func (s *GalleryService) GetGallery(ctx context.Context, id uuid.UUID) (models.Gallery, error) {
	const op = "service.GalleryService.GetGallery"

	gallery, err := s.repo.GetGalleryByID(ctx, id)
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return gallery, nil
}

// DeleteGallery удаляет запись, затем её изображения из хранилища.
// Ошибки удаления объектов только логируются: запись в базе уже удалена.
func (s *GalleryService) DeleteGallery(ctx context.Context, capability models.AdminCapability, id uuid.UUID) error {
	const op = "service.GalleryService.DeleteGallery"

	if !capability.Valid() {
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", id.String()),
	)

	gallery, err := s.repo.GetGalleryByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.DeleteGallery(ctx, id); err != nil {
		log.Error("failed to delete gallery", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.removeObjects(ctx, log, galleryObjects(gallery))

	log.Info("gallery deleted")

	return nil
}

// OpenSession начинает редактирование существующей галереи или создание новой (galleryID == nil)
func (s *GalleryService) OpenSession(ctx context.Context, capability models.AdminCapability, galleryID *uuid.UUID) (SessionView, error) {
	const op = "service.GalleryService.OpenSession"

	if !capability.Valid() {
		return SessionView{}, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	var gallery *models.Gallery
	if galleryID != nil {
		g, err := s.repo.GetGalleryByID(ctx, *galleryID)
		if err != nil {
			return SessionView{}, fmt.Errorf("%s: %w", op, err)
		}
		gallery = &g
	}

	sess := s.sessions.open(capability.UserID, gallery)

	s.log.Debug("edit session opened",
		slog.String("op", op),
		slog.String("session_id", sess.ID),
	)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.view(), nil
}

func (s *GalleryService) GetSession(ctx context.Context, capability models.AdminCapability, sessionID string) (SessionView, error) {
	return s.withSession(capability, sessionID, func(*Session) error { return nil })
}

// UpdateDetails меняет заголовок и описание. nil оставляет поле без изменений.
func (s *GalleryService) UpdateDetails(ctx context.Context, capability models.AdminCapability, sessionID string, title, description *string) (SessionView, error) {
	return s.withSession(capability, sessionID, func(sess *Session) error {
		if title != nil {
			sess.Title = *title
		}
		if description != nil {
			sess.Description = *description
		}
		return nil
	})
}

func (s *GalleryService) AddStaged(ctx context.Context, capability models.AdminCapability, sessionID string, files []*multipart.FileHeader) (SessionView, error) {
	return s.withSession(capability, sessionID, func(sess *Session) error {
		if len(files) == 0 {
			return models.NewValidationError("no files selected")
		}
		return sess.set.AddStaged(ctx, files)
	})
}

func (s *GalleryService) RemoveExisting(ctx context.Context, capability models.AdminCapability, sessionID string, pos int) (SessionView, error) {
	return s.withSession(capability, sessionID, func(sess *Session) error {
		return sess.set.RemoveExisting(pos)
	})
}

func (s *GalleryService) RemoveStaged(ctx context.Context, capability models.AdminCapability, sessionID string, pos int) (SessionView, error) {
	return s.withSession(capability, sessionID, func(sess *Session) error {
		return sess.set.RemoveStaged(ctx, pos)
	})
}

func (s *GalleryService) SetThumbnail(ctx context.Context, capability models.AdminCapability, sessionID string, index int) (SessionView, error) {
	return s.withSession(capability, sessionID, func(sess *Session) error {
		return sess.set.SetThumbnail(index)
	})
}

// DiscardSession закрывает форму без сохранения и освобождает превью
func (s *GalleryService) DiscardSession(ctx context.Context, capability models.AdminCapability, sessionID string) error {
	const op = "service.GalleryService.DiscardSession"

	if _, err := s.lookup(capability, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.sessions.discard(sessionID)

	return nil
}

// Save загружает выбранные файлы, сохраняет галерею и закрывает сессию.
// При ошибке загрузки или записи в базу сессия остается открытой для повтора,
// а файлы, загруженные в этой попытке, удаляются из хранилища.
func (s *GalleryService) Save(ctx context.Context, capability models.AdminCapability, sessionID string) (models.Gallery, error) {
	const op = "service.GalleryService.Save"

	sess, err := s.lookup(capability, sessionID)
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", sessionID),
	)

	sess.mu.Lock()
	gallery, err := s.save(ctx, log, capability, sess)
	if err == nil {
		if cerr := sess.set.Close(ctx); cerr != nil {
			log.Warn("failed to release previews", sl.Err(cerr))
		}
	}
	sess.mu.Unlock()

	if err != nil {
		if models.IsValidationError(err) {
			log.Info("gallery rejected", sl.Err(err))
		}
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	s.sessions.discard(sessionID)

	log.Info("gallery saved",
		slog.String("gallery_id", gallery.ID.String()),
		slog.Int("images", len(gallery.Images)),
	)

	return gallery, nil
}

func (s *GalleryService) save(ctx context.Context, log *slog.Logger, capability models.AdminCapability, sess *Session) (models.Gallery, error) {
	title := strings.TrimSpace(sess.Title)

	var validationErrors []string
	if title == "" {
		validationErrors = append(validationErrors, "title is required")
	}
	if sess.set.Len() == 0 {
		validationErrors = append(validationErrors, "at least one image is required")
	}
	if len(validationErrors) > 0 {
		return models.Gallery{}, models.NewValidationError(validationErrors...)
	}

	res, err := sess.set.Resolve(ctx, s.uploader)
	metrics.GalleryUploads.WithLabelValues("success").Add(float64(len(res.Uploaded)))
	if err != nil {
		metrics.GalleryUploads.WithLabelValues("failure").Inc()
		log.Error("failed to upload staged images", sl.Err(err))
		s.removeObjects(ctx, log, res.Uploaded)
		return models.Gallery{}, err
	}

	thumbnail := res.ThumbnailURL
	gallery := models.Gallery{
		Title:        title,
		Description:  nilIfBlank(sess.Description),
		Images:       res.Images,
		ThumbnailURL: &thumbnail,
		ImageURL:     &thumbnail,
	}
	if err := gallery.Validate(); err != nil {
		s.removeObjects(ctx, log, res.Uploaded)
		return models.Gallery{}, err
	}

	if sess.GalleryID == nil {
		createdBy := capability.UserID
		gallery.CreatedBy = &createdBy

		id, err := s.repo.CreateGallery(ctx, gallery)
		if err != nil {
			log.Error("failed to insert gallery", sl.Err(err))
			s.removeObjects(ctx, log, res.Uploaded)
			return models.Gallery{}, &models.PersistenceError{Op: "insert", Err: err}
		}
		gallery.ID = id

		return gallery, nil
	}

	gallery.ID = *sess.GalleryID
	if err := s.repo.UpdateGallery(ctx, gallery); err != nil {
		log.Error("failed to update gallery", sl.Err(err))
		s.removeObjects(ctx, log, res.Uploaded)
		return models.Gallery{}, &models.PersistenceError{Op: "update", Err: err}
	}

	return gallery, nil
}

func (s *GalleryService) lookup(capability models.AdminCapability, sessionID string) (*Session, error) {
	if !capability.Valid() {
		return nil, models.ErrForbidden
	}

	sess, err := s.sessions.get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Owner != capability.UserID {
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

func (s *GalleryService) withSession(capability models.AdminCapability, sessionID string, fn func(*Session) error) (SessionView, error) {
	sess, err := s.lookup(capability, sessionID)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := fn(sess); err != nil {
		return SessionView{}, err
	}

	return sess.view(), nil
}

// removeObjects удаляет объекты без учета отмены запроса, ошибки только логируются
func (s *GalleryService) removeObjects(ctx context.Context, log *slog.Logger, urls []string) {
	if len(urls) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.objects.Remove(ctx, urls...); err != nil {
		log.Warn("failed to remove objects", slog.Int("count", len(urls)), sl.Err(err))
	}
}

// galleryObjects собирает все URL записи без повторов
func galleryObjects(g models.Gallery) []string {
	seen := make(map[string]struct{})
	var urls []string

	add := func(u *string) {
		if u == nil || *u == "" {
			return
		}
		if _, ok := seen[*u]; ok {
			return
		}
		seen[*u] = struct{}{}
		urls = append(urls, *u)
	}

	for i := range g.Images {
		add(&g.Images[i])
	}
	add(g.ThumbnailURL)
	add(g.ImageURL)

	return urls
}

func nilIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	return &s
}

