package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"pyeongsan_church/internal/domain/models"
	notice "pyeongsan_church/internal/services/notice_service"
	"pyeongsan_church/internal/transport/http/dto"
	"pyeongsan_church/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

const noticesPerPage = 10

// ListNotices godoc
// @Summary Опубликованные объявления
// @Tags notices
// @Produce json
// @Param page query int false "Номер страницы" default(1)
// @Param per_page query int false "Размер страницы" default(10)
// @Success 200 {object} response.Response{data=dto.NoticeListResponse}
// @Router /api/v1/notices [get]
func (r *Routers) ListNotices(c echo.Context) error {
	const op = "http.routers.ListNotices"

	log := r.log.With(
		slog.String("op", op),
	)

	page, perPage, err := pageParams(c, noticesPerPage)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	notices, total, err := r.NoticeService.ListPublished(c.Request().Context(), page, perPage)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(
		dto.NewNoticeListResponse(notices, page, perPage, total, false),
	))
}

// GetNotice godoc
// @Summary Объявление
// @Tags notices
// @Produce json
// @Param id path string true "UUID объявления" format(uuid)
// @Success 200 {object} response.Response{data=dto.NoticeResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/notices/{id} [get]
func (r *Routers) GetNotice(c echo.Context) error {
	const op = "http.routers.GetNotice"

	id, err := paramUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid notice id"))
	}

	n, err := r.NoticeService.GetPublished(c.Request().Context(), id)
	if err != nil {
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.NewNoticeResponse(n, false)))
}

// AdminListNotices godoc
// @Summary Все объявления с числом комментариев
// @Tags admin-notices
// @Produce json
// @Param page query int false "Номер страницы" default(1)
// @Param per_page query int false "Размер страницы" default(10)
// @Success 200 {object} response.Response{data=dto.NoticeListResponse}
// @Security ApiKeyAuth
// @Router /api/v1/admin/notices [get]
func (r *Routers) AdminListNotices(c echo.Context) error {
	const op = "http.routers.AdminListNotices"

	log := r.log.With(
		slog.String("op", op),
	)

	page, perPage, err := pageParams(c, noticesPerPage)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	notices, total, err := r.NoticeService.ListAll(c.Request().Context(), capabilityFrom(c), page, perPage)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(
		dto.NewNoticeListResponse(notices, page, perPage, total, true),
	))
}

// AdminGetNotice godoc
// @Summary Объявление для редактирования
// @Tags admin-notices
// @Produce json
// @Param id path string true "UUID объявления" format(uuid)
// @Success 200 {object} response.Response{data=dto.NoticeResponse}
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/notices/{id} [get]
func (r *Routers) AdminGetNotice(c echo.Context) error {
	const op = "http.routers.AdminGetNotice"

	id, err := paramUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid notice id"))
	}

	n, err := r.NoticeService.Get(c.Request().Context(), capabilityFrom(c), id)
	if err != nil {
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.NewNoticeResponse(n, false)))
}

// CreateNotice godoc
// @Summary Новое объявление
// @Description content очищается от небезопасной разметки
// @Tags admin-notices
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Заголовок"
// @Param content formData string true "Текст (HTML)"
// @Param published formData boolean false "Опубликовать" default(true)
// @Param image formData file false "Изображение"
// @Success 201 {object} response.Response{data=dto.NoticeResponse}
// @Failure 400 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/notices [post]
func (r *Routers) CreateNotice(c echo.Context) error {
	const op = "http.routers.CreateNotice"

	log := r.log.With(
		slog.String("op", op),
	)

	in, err := noticeInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	n, err := r.NoticeService.Create(c.Request().Context(), capabilityFrom(c), in)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(dto.NewNoticeResponse(n, false)))
}

// UpdateNotice godoc
// @Summary Изменить объявление
// @Description Новое изображение заменяет старое, remove_image убирает его
// @Tags admin-notices
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "UUID объявления" format(uuid)
// @Param title formData string true "Заголовок"
// @Param content formData string true "Текст (HTML)"
// @Param published formData boolean false "Опубликовано"
// @Param remove_image formData boolean false "Убрать изображение"
// @Param image formData file false "Новое изображение"
// @Success 200 {object} response.Response{data=dto.NoticeResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/notices/{id} [put]
func (r *Routers) UpdateNotice(c echo.Context) error {
	const op = "http.routers.UpdateNotice"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := paramUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid notice id"))
	}

	in, err := noticeInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	n, err := r.NoticeService.Update(c.Request().Context(), capabilityFrom(c), id, in)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(dto.NewNoticeResponse(n, false)))
}

// SetNoticePublished godoc
// @Summary Опубликовать или скрыть объявление
// @Tags admin-notices
// @Accept json
// @Param id path string true "UUID объявления" format(uuid)
// @Param request body dto.SetPublishedRequest true "Статус"
// @Success 204 "Изменено"
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/notices/{id}/published [patch]
func (r *Routers) SetNoticePublished(c echo.Context) error {
	const op = "http.routers.SetNoticePublished"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := paramUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid notice id"))
	}

	var req dto.SetPublishedRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	if err := r.NoticeService.SetPublished(c.Request().Context(), capabilityFrom(c), id, *req.Published); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteNotice godoc
// @Summary Удалить объявление
// @Description Удаляет объявление с комментариями, затем изображение
// @Tags admin-notices
// @Param id path string true "UUID объявления" format(uuid)
// @Success 204 "Удалено"
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/notices/{id} [delete]
func (r *Routers) DeleteNotice(c echo.Context) error {
	const op = "http.routers.DeleteNotice"

	id, err := paramUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid notice id"))
	}

	if err := r.NoticeService.Delete(c.Request().Context(), capabilityFrom(c), id); err != nil {
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.NoContent(http.StatusNoContent)
}

// AdminNoticeComments godoc
// @Summary Комментарии к объявлению
// @Tags admin-notices
// @Produce json
// @Param id path string true "UUID объявления" format(uuid)
// @Success 200 {object} response.Response{data=[]models.Comment}
// @Security ApiKeyAuth
// @Router /api/v1/admin/notices/{id}/comments [get]
func (r *Routers) AdminNoticeComments(c echo.Context) error {
	const op = "http.routers.AdminNoticeComments"

	id, err := paramUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid notice id"))
	}

	comments, err := r.CommentService.List(c.Request().Context(), models.PostTypeNotice, id)
	if err != nil {
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(comments))
}

func noticeInput(c echo.Context) (notice.NoticeInput, error) {
	in := notice.NoticeInput{
		Title:     c.FormValue("title"),
		Content:   c.FormValue("content"),
		Published: true,
	}

	if v := c.FormValue("published"); v != "" {
		published, err := strconv.ParseBool(v)
		if err != nil {
			return notice.NoticeInput{}, errors.New("published must be true or false")
		}
		in.Published = published
	}

	if v := c.FormValue("remove_image"); v != "" {
		remove, err := strconv.ParseBool(v)
		if err != nil {
			return notice.NoticeInput{}, errors.New("remove_image must be true or false")
		}
		in.RemoveImage = remove
	}

	file, err := c.FormFile("image")
	switch {
	case err == nil:
		in.Image = file
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		return notice.NoticeInput{}, err
	}

	return in, nil
}
