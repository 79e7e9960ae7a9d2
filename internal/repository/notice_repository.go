package repository

import (
	"context"
	"errors"
	"fmt"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const noticesTable = "notices"

var noticeColumns = []string{
	"id",
	"title",
	"content",
	"image_url",
	"published",
	"created_at",
	"updated_at",
}

type NoticeRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewNoticeRepo(db *pgxpool.Pool) *NoticeRepo {
	return &NoticeRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateNotice сохраняет объявление и возвращает его ID
func (r *NoticeRepo) CreateNotice(ctx context.Context, notice models.Notice) (uuid.UUID, error) {
	const op = "repository.NoticeRepo.CreateNotice"

	query, args, err := r.sb.Insert(noticesTable).
		Columns("title", "content", "image_url", "published").
		Values(notice.Title, notice.Content, notice.ImageURL, notice.Published).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UpdateNotice обновляет заголовок, текст, изображение и статус публикации
func (r *NoticeRepo) UpdateNotice(ctx context.Context, notice models.Notice) error {
	const op = "repository.NoticeRepo.UpdateNotice"

	query, args, err := r.sb.Update(noticesTable).
		SetMap(map[string]interface{}{
			"title":      notice.Title,
			"content":    notice.Content,
			"image_url":  notice.ImageURL,
			"published":  notice.Published,
			"updated_at": squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": notice.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return r.execAffecting(ctx, op, query, args)
}

// SetPublished переключает видимость объявления на сайте
func (r *NoticeRepo) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	const op = "repository.NoticeRepo.SetPublished"

	query, args, err := r.sb.Update(noticesTable).
		Set("published", published).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return r.execAffecting(ctx, op, query, args)
}

// DeleteNotice удаляет объявление вместе с комментариями к нему
func (r *NoticeRepo) DeleteNotice(ctx context.Context, id uuid.UUID) error {
	const op = "repository.NoticeRepo.DeleteNotice"

	if err := deleteWithComments(ctx, r.db, r.sb, noticesTable, models.PostTypeNotice, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *NoticeRepo) GetNoticeByID(ctx context.Context, id uuid.UUID) (models.Notice, error) {
	const op = "repository.NoticeRepo.GetNoticeByID"

	query, args, err := r.sb.Select(noticeColumns...).
		From(noticesTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Notice{}, fmt.Errorf("%s: %w", op, err)
	}

	notice, err := scanNotice(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Notice{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return models.Notice{}, fmt.Errorf("%s: %w", op, err)
	}

	return notice, nil
}

// GetNotices возвращает страницу объявлений, новые первыми
func (r *NoticeRepo) GetNotices(ctx context.Context, publishedOnly bool, page, perPage int) ([]models.Notice, int, error) {
	const op = "repository.NoticeRepo.GetNotices"

	page, perPage = pageBounds(page, perPage, 10)

	where := squirrel.And{}
	if publishedOnly {
		where = append(where, squirrel.Eq{"published": true})
	}

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From(noticesTable).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.sb.Select(noticeColumns...).
		From(noticesTable).
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(perPage)).
		Offset(uint64((page - 1) * perPage)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	notices := make([]models.Notice, 0, perPage)
	for rows.Next() {
		notice, err := scanNotice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		notices = append(notices, notice)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return notices, total, nil
}

func (r *NoticeRepo) ImageURLs(ctx context.Context) ([]string, error) {
	const op = "repository.NoticeRepo.ImageURLs"

	query, args, err := r.sb.Select("image_url").
		From(noticesTable).
		Where(squirrel.NotEq{"image_url": nil}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return collectStrings(ctx, r.db, op, query, args)
}

func (r *NoticeRepo) execAffecting(ctx context.Context, op, query string, args []interface{}) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

func scanNotice(row pgx.Row) (models.Notice, error) {
	var notice models.Notice
	err := row.Scan(
		&notice.ID,
		&notice.Title,
		&notice.Content,
		&notice.ImageURL,
		&notice.Published,
		&notice.CreatedAt,
		&notice.UpdatedAt,
	)

	return notice, err
}
