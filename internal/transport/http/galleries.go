package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"pyeongsan_church/internal/transport/http/dto"
	"pyeongsan_church/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

const galleriesPerPage = 12

// ListGalleries godoc
// @Summary Список галерей
// @Description Галереи по 12 на страницу, новые первыми. cover_url содержит обложку или заглушку.
// @Tags galleries
// @Produce json
// @Param page query int false "Номер страницы" default(1)
// @Param per_page query int false "Размер страницы" default(12)
// @Success 200 {object} response.Response{data=dto.GalleryListResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/galleries [get]
func (r *Routers) ListGalleries(c echo.Context) error {
	const op = "http.routers.ListGalleries"

	log := r.log.With(
		slog.String("op", op),
	)

	page, perPage, err := pageParams(c, galleriesPerPage)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	galleries, total, err := r.GalleryService.ListGalleries(c.Request().Context(), page, perPage)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(
		dto.NewGalleryListResponse(galleries, page, perPage, total, r.placeholder),
	))
}

// GetGallery godoc
// @Summary Галерея
// @Tags galleries
// @Produce json
// @Param id path string true "UUID галереи" format(uuid)
// @Success 200 {object} response.Response{data=dto.GalleryResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/galleries/{id} [get]
func (r *Routers) GetGallery(c echo.Context) error {
	const op = "http.routers.GetGallery"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := paramUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid gallery id"))
	}

	g, err := r.GalleryService.GetGallery(c.Request().Context(), id)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.NewGalleryResponse(g, r.placeholder)))
}

// DeleteGallery godoc
// @Summary Удаление галереи
// @Description Удаляет запись и комментарии, затем изображения из хранилища
// @Tags admin-galleries
// @Produce json
// @Param id path string true "UUID галереи" format(uuid)
// @Success 204 "Удалено"
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/galleries/{id} [delete]
func (r *Routers) DeleteGallery(c echo.Context) error {
	const op = "http.routers.DeleteGallery"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := paramUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid gallery id"))
	}

	if err := r.GalleryService.DeleteGallery(c.Request().Context(), capabilityFrom(c), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// OpenGallerySession godoc
// @Summary Открыть форму галереи
// @Description Без gallery_id начинается создание новой галереи
// @Tags admin-galleries
// @Accept json
// @Produce json
// @Param request body dto.OpenSessionRequest false "Редактируемая галерея"
// @Success 201 {object} response.Response{data=services.SessionView}
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/gallery-sessions [post]
func (r *Routers) OpenGallerySession(c echo.Context) error {
	const op = "http.routers.OpenGallerySession"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.OpenSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	view, err := r.GalleryService.OpenSession(c.Request().Context(), capabilityFrom(c), req.GalleryID)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(view))
}

// GetGallerySession godoc
// @Summary Состояние формы галереи
// @Tags admin-galleries
// @Produce json
// @Param sid path string true "ID сессии"
// @Success 200 {object} response.Response{data=services.SessionView}
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/gallery-sessions/{sid} [get]
func (r *Routers) GetGallerySession(c echo.Context) error {
	const op = "http.routers.GetGallerySession"

	view, err := r.GalleryService.GetSession(c.Request().Context(), capabilityFrom(c), c.Param("sid"))
	if err != nil {
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(view))
}

// UpdateGallerySession godoc
// @Summary Изменить заголовок и описание
// @Tags admin-galleries
// @Accept json
// @Produce json
// @Param sid path string true "ID сессии"
// @Param request body dto.UpdateSessionRequest true "Поля формы"
// @Success 200 {object} response.Response{data=services.SessionView}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/gallery-sessions/{sid} [patch]
func (r *Routers) UpdateGallerySession(c echo.Context) error {
	const op = "http.routers.UpdateGallerySession"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.UpdateSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	view, err := r.GalleryService.UpdateDetails(c.Request().Context(), capabilityFrom(c), c.Param("sid"), req.Title, req.Description)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(view))
}

// AddStagedImages godoc
// @Summary Добавить файлы в форму
// @Description Файлы сохраняются как превью и загружаются в хранилище только при сохранении
// @Tags admin-galleries
// @Accept multipart/form-data
// @Produce json
// @Param sid path string true "ID сессии"
// @Param files formData file true "Изображения (png, jpeg, webp, gif)"
// @Success 200 {object} response.Response{data=services.SessionView}
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Failure 415 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/gallery-sessions/{sid}/staged [post]
func (r *Routers) AddStagedImages(c echo.Context) error {
	const op = "http.routers.AddStagedImages"

	log := r.log.With(
		slog.String("op", op),
	)

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("multipart form with files is required"))
	}

	view, err := r.GalleryService.AddStaged(c.Request().Context(), capabilityFrom(c), c.Param("sid"), form.File["files"])
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(view))
}

// RemoveExistingImage godoc
// @Summary Убрать сохраненное изображение
// @Description pos позиция среди сохраненных изображений
// @Tags admin-galleries
// @Produce json
// @Param sid path string true "ID сессии"
// @Param pos path int true "Позиция"
// @Success 200 {object} response.Response{data=services.SessionView}
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/gallery-sessions/{sid}/existing/{pos} [delete]
func (r *Routers) RemoveExistingImage(c echo.Context) error {
	const op = "http.routers.RemoveExistingImage"

	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid position"))
	}

	view, err := r.GalleryService.RemoveExisting(c.Request().Context(), capabilityFrom(c), c.Param("sid"), pos)
	if err != nil {
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(view))
}

// RemoveStagedImage godoc
// @Summary Убрать выбранный файл
// @Description pos позиция среди выбранных файлов, превью освобождается
// @Tags admin-galleries
// @Produce json
// @Param sid path string true "ID сессии"
// @Param pos path int true "Позиция"
// @Success 200 {object} response.Response{data=services.SessionView}
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/gallery-sessions/{sid}/staged/{pos} [delete]
func (r *Routers) RemoveStagedImage(c echo.Context) error {
	const op = "http.routers.RemoveStagedImage"

	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid position"))
	}

	view, err := r.GalleryService.RemoveStaged(c.Request().Context(), capabilityFrom(c), c.Param("sid"), pos)
	if err != nil {
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(view))
}

// SetGalleryThumbnail godoc
// @Summary Выбрать обложку
// @Description index позиция в общем списке изображений формы
// @Tags admin-galleries
// @Accept json
// @Produce json
// @Param sid path string true "ID сессии"
// @Param request body dto.SetThumbnailRequest true "Позиция обложки"
// @Success 200 {object} response.Response{data=services.SessionView}
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/gallery-sessions/{sid}/thumbnail [put]
func (r *Routers) SetGalleryThumbnail(c echo.Context) error {
	const op = "http.routers.SetGalleryThumbnail"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.SetThumbnailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	view, err := r.GalleryService.SetThumbnail(c.Request().Context(), capabilityFrom(c), c.Param("sid"), *req.Index)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(view))
}

// SaveGallerySession godoc
// @Summary Сохранить галерею
// @Description Загружает выбранные файлы по одному, затем записывает галерею. При ошибке форма остается открытой.
// @Tags admin-galleries
// @Produce json
// @Param sid path string true "ID сессии"
// @Success 200 {object} response.Response{data=dto.GalleryResponse}
// @Failure 400 {object} response.ErrorResponse "Не заполнен заголовок или нет изображений"
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse "Ошибка записи в базу"
// @Failure 502 {object} response.ErrorResponse "Ошибка загрузки файла"
// @Security ApiKeyAuth
// @Router /api/v1/admin/gallery-sessions/{sid}/save [post]
func (r *Routers) SaveGallerySession(c echo.Context) error {
	const op = "http.routers.SaveGallerySession"

	log := r.log.With(
		slog.String("op", op),
		slog.String("session_id", c.Param("sid")),
	)

	g, err := r.GalleryService.Save(c.Request().Context(), capabilityFrom(c), c.Param("sid"))
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.NewGalleryResponse(g, r.placeholder)))
}

// DiscardGallerySession godoc
// @Summary Закрыть форму без сохранения
// @Tags admin-galleries
// @Param sid path string true "ID сессии"
// @Success 204 "Форма закрыта"
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/gallery-sessions/{sid} [delete]
func (r *Routers) DiscardGallerySession(c echo.Context) error {
	const op = "http.routers.DiscardGallerySession"

	if err := r.GalleryService.DiscardSession(c.Request().Context(), capabilityFrom(c), c.Param("sid")); err != nil {
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Preview godoc
// @Summary Превью выбранного файла
// @Description Доступно по cookie сессии администратора
// @Tags admin-galleries
// @Produce image/jpeg,image/png,image/webp,image/gif
// @Param name path string true "Имя файла превью"
// @Success 200 {file} file
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/previews/{name} [get]
func (r *Routers) Preview(c echo.Context) error {
	path, err := r.Previews.PreviewPath(c.Param("name"))
	if err != nil {
		return c.JSON(http.StatusNotFound, response.ErrNotFound)
	}

	c.Response().Header().Set("Cache-Control", "private, no-store")

	return c.File(path)
}
