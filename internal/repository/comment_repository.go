package repository

import (
	"context"
	"fmt"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
)

const commentsTable = "comments"

type CommentRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewCommentRepo(db *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateComment сохраняет комментарий и возвращает его с ID и датой создания
func (r *CommentRepo) CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	const op = "repository.CommentRepo.CreateComment"

	query, args, err := r.sb.Insert(commentsTable).
		Columns("post_type", "post_id", "author_name", "content").
		Values(string(comment.PostType), comment.PostID, comment.AuthorName, comment.Content).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return models.Comment{}, fmt.Errorf("%s: %w", op, err)
	}

	return comment, nil
}

func (r *CommentRepo) DeleteComment(ctx context.Context, id uuid.UUID) error {
	const op = "repository.CommentRepo.DeleteComment"

	query, args, err := r.sb.Delete(commentsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// GetComments возвращает комментарии к записи, новые первыми
func (r *CommentRepo) GetComments(ctx context.Context, postType models.PostType, postID uuid.UUID) ([]models.Comment, error) {
	const op = "repository.CommentRepo.GetComments"

	query, args, err := r.sb.Select("id", "post_type", "post_id", "author_name", "content", "created_at").
		From(commentsTable).
		Where(squirrel.Eq{"post_type": string(postType), "post_id": postID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var (
			c        models.Comment
			postType string
		)
		if err := rows.Scan(&c.ID, &postType, &c.PostID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.PostType = models.PostType(postType)
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return comments, nil
}

// CountByPosts считает комментарии для набора записей одним запросом
func (r *CommentRepo) CountByPosts(ctx context.Context, postType models.PostType, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	const op = "repository.CommentRepo.CountByPosts"

	counts := make(map[uuid.UUID]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	ids := make([]string, len(postIDs))
	for i, id := range postIDs {
		ids[i] = id.String()
	}

	query, args, err := r.sb.Select("post_id", "COUNT(*)").
		From(commentsTable).
		Where(squirrel.Eq{"post_type": string(postType)}).
		Where(squirrel.Expr("post_id = ANY(?::uuid[])", pq.Array(ids))).
		GroupBy("post_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    uuid.UUID
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts[id] = count
	}

	return counts, rows.Err()
}
