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

const galleryTable = "gallery"

var galleryColumns = []string{
	"id",
	"title",
	"description",
	"images",
	"thumbnail_url",
	"image_url",
	"created_by",
	"created_at",
	"updated_at",
}

type GalleryRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewGalleryRepo(db *pgxpool.Pool) *GalleryRepo {
	return &GalleryRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateGallery создает новую запись галереи и возвращает её ID
func (r *GalleryRepo) CreateGallery(ctx context.Context, gallery models.Gallery) (uuid.UUID, error) {
	const op = "repository.GalleryRepo.CreateGallery"

	query, args, err := r.sb.Insert(galleryTable).
		Columns(
			"title",
			"description",
			"images",
			"thumbnail_url",
			"image_url",
			"created_by",
		).
		Values(
			gallery.Title,
			gallery.Description,
			gallery.Images,
			gallery.ThumbnailURL,
			gallery.ImageURL,
			gallery.CreatedBy,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	var id uuid.UUID
	err = r.db.QueryRow(ctx, query, args...).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UpdateGallery перезаписывает запись целиком, побеждает последняя запись
func (r *GalleryRepo) UpdateGallery(ctx context.Context, gallery models.Gallery) error {
	const op = "repository.GalleryRepo.UpdateGallery"

	query, args, err := r.sb.Update(galleryTable).
		Set("title", gallery.Title).
		Set("description", gallery.Description).
		Set("images", gallery.Images).
		Set("thumbnail_url", gallery.ThumbnailURL).
		Set("image_url", gallery.ImageURL).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": gallery.ID}).
		ToSql()
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

// DeleteGallery удаляет галерею и комментарии к ней
func (r *GalleryRepo) DeleteGallery(ctx context.Context, id uuid.UUID) error {
	const op = "repository.GalleryRepo.DeleteGallery"

	if err := deleteWithComments(ctx, r.db, r.sb, galleryTable, models.PostTypeGallery, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetGalleryByID возвращает галерею по ID
func (r *GalleryRepo) GetGalleryByID(ctx context.Context, id uuid.UUID) (models.Gallery, error) {
	const op = "repository.GalleryRepo.GetGalleryByID"

	query, args, err := r.sb.Select(galleryColumns...).
		From(galleryTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	gallery, err := scanGallery(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Gallery{}, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return gallery, nil
}

// GetGalleries возвращает страницу галерей, новые первыми, и общее количество
func (r *GalleryRepo) GetGalleries(ctx context.Context, page, perPage int) ([]models.Gallery, int, error) {
	const op = "repository.GalleryRepo.GetGalleries"

	page, perPage = pageBounds(page, perPage, 12)

	totalCount, err := r.getTotalCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := r.sb.Select(galleryColumns...).
		From(galleryTable).
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

	galleries := make([]models.Gallery, 0, perPage)
	for rows.Next() {
		gallery, err := scanGallery(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		galleries = append(galleries, gallery)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return galleries, totalCount, nil
}

// ImageURLs возвращает все URL изображений, на которые ссылаются галереи
func (r *GalleryRepo) ImageURLs(ctx context.Context) ([]string, error) {
	const op = "repository.GalleryRepo.ImageURLs"

	query, args, err := r.sb.Select("unnest(images || ARRAY[thumbnail_url, image_url])").
		From(galleryTable).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return collectStrings(ctx, r.db, op, query, args)
}

func (r *GalleryRepo) getTotalCount(ctx context.Context) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").From(galleryTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error build query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error execute query: %w (SQL: %s)", err, query)
	}

	return count, nil
}

func scanGallery(row pgx.Row) (models.Gallery, error) {
	var gallery models.Gallery
	err := row.Scan(
		&gallery.ID,
		&gallery.Title,
		&gallery.Description,
		&gallery.Images,
		&gallery.ThumbnailURL,
		&gallery.ImageURL,
		&gallery.CreatedBy,
		&gallery.CreatedAt,
		&gallery.UpdatedAt,
	)

	return gallery, err
}

// collectStrings выполняет запрос и собирает непустые строки первого столбца
func collectStrings(ctx context.Context, db *pgxpool.Pool, op, query string, args []interface{}) ([]string, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s *string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if s != nil && *s != "" {
			out = append(out, *s)
		}
	}

	return out, rows.Err()
}
