package repository

import (
	"context"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Repository объединяет репозитории, работающие с PostgreSQL
type Repository struct {
	User    UserRepository
	Gallery GalleryRepository
	Notice  NoticeRepository
	Comment CommentRepository
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{
		User:    NewUserRepository(db),
		Gallery: NewGalleryRepo(db),
		Notice:  NewNoticeRepo(db),
		Comment: NewCommentRepo(db),
	}
}

// pageBounds приводит параметры пагинации к допустимым значениям
func pageBounds(page, perPage, defaultPerPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = defaultPerPage
	}

	return page, perPage
}

// deleteWithComments удаляет запись и её комментарии в одной транзакции.
// Комментарии не связаны внешним ключом, так как ссылаются на две таблицы.
func deleteWithComments(ctx context.Context, db *pgxpool.Pool, sb squirrel.StatementBuilderType, table string, postType models.PostType, id uuid.UUID) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query, args, err := sb.Delete(commentsTable).
		Where(squirrel.Eq{"post_type": string(postType), "post_id": id}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return err
	}

	query, args, err = sb.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return tx.Commit(ctx)
}
