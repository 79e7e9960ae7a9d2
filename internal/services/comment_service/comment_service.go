package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/lib/logger/sl"
	"pyeongsan_church/internal/repository"

	"github.com/google/uuid"
)

const (
	MaxContentLength = 500
	MaxAuthorLength  = 20
)

type CommentService struct {
	log  *slog.Logger
	repo repository.CommentRepository
}

func NewCommentService(log *slog.Logger, repo repository.CommentRepository) *CommentService {
	return &CommentService{log: log, repo: repo}
}

// List возвращает комментарии к записи, новые первыми
func (s *CommentService) List(ctx context.Context, postType models.PostType, postID uuid.UUID) ([]models.Comment, error) {
	const op = "service.CommentService.List"

	if !postType.Valid() {
		return nil, models.NewValidationError("post_type must be gallery or notice")
	}

	comments, err := s.repo.GetComments(ctx, postType, postID)
	if err != nil {
		s.log.Error("failed to list comments", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}

// Create добавляет анонимный комментарий. Пустое имя автора сохраняется как NULL.
func (s *CommentService) Create(ctx context.Context, postType models.PostType, postID uuid.UUID, authorName, content string) (models.Comment, error) {
	const op = "service.CommentService.Create"

	log := s.log.With(
		slog.String("op", op),
		slog.String("post_type", string(postType)),
		slog.String("post_id", postID.String()),
	)

	content = strings.TrimSpace(content)
	authorName = strings.TrimSpace(authorName)

	var validationErrors []string
	if !postType.Valid() {
		validationErrors = append(validationErrors, "post_type must be gallery or notice")
	}
	if postID == uuid.Nil {
		validationErrors = append(validationErrors, "post_id is required")
	}
	if content == "" {
		validationErrors = append(validationErrors, "content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		validationErrors = append(validationErrors, fmt.Sprintf("content must be at most %d characters", MaxContentLength))
	}
	if utf8.RuneCountInString(authorName) > MaxAuthorLength {
		validationErrors = append(validationErrors, fmt.Sprintf("author name must be at most %d characters", MaxAuthorLength))
	}
	if len(validationErrors) > 0 {
		return models.Comment{}, models.NewValidationError(validationErrors...)
	}

	comment := models.Comment{
		PostType: postType,
		PostID:   postID,
		Content:  content,
	}
	if authorName != "" {
		comment.AuthorName = &authorName
	}

	saved, err := s.repo.CreateComment(ctx, comment)
	if err != nil {
		log.Error("failed to save comment", sl.Err(err))
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("comment created", slog.String("comment_id", saved.ID.String()))

	return saved, nil
}

func (s *CommentService) Delete(ctx context.Context, capability models.AdminCapability, id uuid.UUID) error {
	const op = "service.CommentService.Delete"

	if !capability.Valid() {
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	if err := s.repo.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("comment deleted",
		slog.String("op", op),
		slog.String("comment_id", id.String()),
	)

	return nil
}

// CountByPosts считает комментарии для нескольких записей одним запросом
func (s *CommentService) CountByPosts(ctx context.Context, postType models.PostType, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	const op = "service.CommentService.CountByPosts"

	if len(ids) == 0 {
		return map[uuid.UUID]int{}, nil
	}

	counts, err := s.repo.CountByPosts(ctx, postType, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return counts, nil
}
