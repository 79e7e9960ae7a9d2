package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/imageset"
	"pyeongsan_church/internal/lib/logger/sl"
	gallery "pyeongsan_church/internal/services/gallery_service"
	"pyeongsan_church/internal/storage"
	"pyeongsan_church/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// fail переводит ошибку сервиса в ответ с кодом статуса.
// Сообщения валидации показываются пользователю как есть.
func (r *Routers) fail(c echo.Context, log *slog.Logger, err error) error {
	var (
		validationErr  *models.ValidationError
		uploadErr      *imageset.UploadError
		persistenceErr *models.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails(
			"validation_failed", strings.Join(validationErr.Errors, "; "),
		))
	case errors.Is(err, imageset.ErrPosition):
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails(
			"invalid_position", "Image position is out of range",
		))
	case errors.Is(err, storage.ErrInvalidFileType):
		return c.JSON(http.StatusUnsupportedMediaType, response.ErrorResponseWithDetails(
			"unsupported_file_type", "Only png, jpeg, webp and gif images are accepted",
		))
	case errors.Is(err, storage.ErrFileTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, response.ErrorResponseWithDetails(
			"file_too_large", "File size exceeds limit",
		))
	case errors.Is(err, models.ErrForbidden):
		return c.JSON(http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, storage.ErrNotFound):
		return c.JSON(http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, gallery.ErrSessionNotFound), errors.Is(err, imageset.ErrClosed):
		return c.JSON(http.StatusNotFound, response.ErrorResponseWithDetails(
			"session_not_found", "Edit session expired or does not exist",
		))
	case errors.As(err, &uploadErr):
		log.Error("image upload failed", slog.String("file", uploadErr.Name), sl.Err(err))
		return c.JSON(http.StatusBadGateway, response.ErrorResponseWithDetails(
			"upload_failed", fmt.Sprintf("Failed to upload %q", uploadErr.Name),
		))
	case errors.As(err, &persistenceErr):
		log.Error("save failed", slog.String("stage", persistenceErr.Op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, response.ErrorResponseWithDetails(
			"persistence_failed", "Images were uploaded but the record could not be saved",
		))
	}

	log.Error("request failed", sl.Err(err))

	return c.JSON(http.StatusInternalServerError, response.ErrInternal)
}
