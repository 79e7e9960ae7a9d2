package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/imageset"
	"pyeongsan_church/internal/lib/logger/sl"
	"pyeongsan_church/internal/metrics"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var ErrSessionNotFound = errors.New("edit session not found")

const releaseTimeout = 10 * time.Second

// Session состояние формы редактирования одной галереи.
// Операции над сессией выполняются под её мьютексом.
type Session struct {
	ID          string
	GalleryID   *uuid.UUID
	Owner       uuid.UUID
	Title       string
	Description string

	mu  sync.Mutex
	set *imageset.Set
}

// SessionView снимок сессии для отображения формы
type SessionView struct {
	ID             string          `json:"id"`
	GalleryID      *uuid.UUID      `json:"gallery_id,omitempty"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Items          []imageset.Item `json:"images"`
	ThumbnailIndex int             `json:"thumbnail_index"`
}

func (s *Session) view() SessionView {
	return SessionView{
		ID:             s.ID,
		GalleryID:      s.GalleryID,
		Title:          s.Title,
		Description:    s.Description,
		Items:          s.set.Items(),
		ThumbnailIndex: s.set.ThumbnailIndex(),
	}
}

// SessionStore хранит открытые сессии редактирования в памяти.
// Просроченная или удаленная сессия освобождает свои превью.
type SessionStore struct {
	log      *slog.Logger
	cache    *cache.Cache
	previews imageset.Previews
}

func NewSessionStore(log *slog.Logger, previews imageset.Previews, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	s := &SessionStore{
		log:      log,
		cache:    cache.New(ttl, ttl/4),
		previews: previews,
	}
	s.cache.OnEvicted(s.onEvicted)

	return s
}

func (s *SessionStore) onEvicted(id string, v interface{}) {
	const op = "services.SessionStore.onEvicted"

	sess, ok := v.(*Session)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	sess.mu.Lock()
	err := sess.set.Close(ctx)
	sess.mu.Unlock()

	metrics.GalleryEditSessions.Dec()

	if err != nil {
		s.log.Warn("failed to release previews",
			slog.String("op", op),
			slog.String("session_id", id),
			sl.Err(err),
		)
	}
}

// open регистрирует новую сессию для существующей галереи или для новой записи
func (s *SessionStore) open(owner uuid.UUID, gallery *models.Gallery) *Session {
	sess := &Session{
		ID:    uuid.NewString(),
		Owner: owner,
	}

	if gallery != nil {
		id := gallery.ID
		sess.GalleryID = &id
		sess.Title = gallery.Title
		if gallery.Description != nil {
			sess.Description = *gallery.Description
		}
		sess.set = imageset.New(s.previews, gallery.DisplayImages(), gallery.Cover())
	} else {
		sess.set = imageset.New(s.previews, nil, "")
	}

	s.cache.SetDefault(sess.ID, sess)
	metrics.GalleryEditSessions.Inc()

	return sess
}

// get возвращает сессию и продлевает срок её жизни
func (s *SessionStore) get(id string) (*Session, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess := v.(*Session)
	s.cache.SetDefault(id, sess)

	return sess, nil
}

// discard удаляет сессию. Вызывающий не должен держать мьютекс сессии.
func (s *SessionStore) discard(id string) {
	s.cache.Delete(id)
}

func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}

// Close освобождает превью всех открытых сессий при остановке сервера
func (s *SessionStore) Close() {
	for id := range s.cache.Items() {
		s.cache.Delete(id)
	}
}
