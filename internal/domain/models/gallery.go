package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gallery представляет собой запись фотогалереи
type Gallery struct {
	ID           uuid.UUID  `json:"id"`            // Уникальный идентификатор галереи
	Title        string     `json:"title"`         // Заголовок галереи
	Description  *string    `json:"description"`   // Описание (может отсутствовать)
	Images       []string   `json:"images"`        // Упорядоченный список URL изображений
	ThumbnailURL *string    `json:"thumbnail_url"` // Обложка, один из элементов Images
	ImageURL     *string    `json:"image_url"`     // Устаревшее поле, всегда равно ThumbnailURL
	CreatedBy    *uuid.UUID `json:"created_by"`    // Администратор, создавший запись
	CreatedAt    time.Time  `json:"created_at"`    // Дата создания
	UpdatedAt    *time.Time `json:"updated_at"`    // Дата последнего обновления
}

// Cover возвращает обложку по цепочке thumbnail_url -> image_url -> images[0].
// Пустая строка означает, что нужно показать заглушку.
func (g Gallery) Cover() string {
	if g.ThumbnailURL != nil && *g.ThumbnailURL != "" {
		return *g.ThumbnailURL
	}
	if g.ImageURL != nil && *g.ImageURL != "" {
		return *g.ImageURL
	}
	if len(g.Images) > 0 {
		return g.Images[0]
	}

	return ""
}

// DisplayImages возвращает изображения для показа. Старые записи хранят
// только одно изображение в image_url, для них возвращается [обложка].
func (g Gallery) DisplayImages() []string {
	if len(g.Images) > 0 {
		return g.Images
	}
	if cover := g.Cover(); cover != "" {
		return []string{cover}
	}

	return nil
}

// ThumbnailIndex возвращает позицию обложки в DisplayImages, либо 0
func (g Gallery) ThumbnailIndex() int {
	images := g.DisplayImages()
	if g.ThumbnailURL == nil {
		return 0
	}
	if i := slices.Index(images, *g.ThumbnailURL); i >= 0 {
		return i
	}

	return 0
}

// Validate проверяет инварианты записи перед сохранением
func (g *Gallery) Validate() error {
	var validationErrors []string

	if strings.TrimSpace(g.Title) == "" {
		validationErrors = append(validationErrors, "title is required")
	}
	if len(g.Images) == 0 {
		validationErrors = append(validationErrors, "at least one image is required")
	}
	if g.ThumbnailURL == nil || !slices.Contains(g.Images, *g.ThumbnailURL) {
		validationErrors = append(validationErrors, "thumbnail must be one of the images")
	}
	if g.ThumbnailURL != nil && (g.ImageURL == nil || *g.ImageURL != *g.ThumbnailURL) {
		validationErrors = append(validationErrors, "image_url must mirror thumbnail_url")
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}
