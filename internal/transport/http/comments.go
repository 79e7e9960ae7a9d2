package http

import (
	"log/slog"
	"net/http"

	"pyeongsan_church/internal/domain/models"
	"pyeongsan_church/internal/transport/http/dto"
	"pyeongsan_church/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ListComments godoc
// @Summary Комментарии к записи
// @Tags comments
// @Produce json
// @Param post_type query string true "Тип записи" Enums(gallery, notice)
// @Param post_id query string true "UUID записи" format(uuid)
// @Success 200 {object} response.Response{data=[]models.Comment}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/comments [get]
func (r *Routers) ListComments(c echo.Context) error {
	const op = "http.routers.ListComments"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.ListCommentsQuery
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	comments, err := r.CommentService.List(c.Request().Context(), models.PostType(req.PostType), uuid.MustParse(req.PostID))
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(comments))
}

// CreateComment godoc
// @Summary Оставить комментарий
// @Description Имя автора необязательно
// @Tags comments
// @Accept json
// @Produce json
// @Param request body dto.CreateCommentRequest true "Комментарий"
// @Success 201 {object} response.Response{data=models.Comment}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/v1/comments [post]
func (r *Routers) CreateComment(c echo.Context) error {
	const op = "http.routers.CreateComment"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	comment, err := r.CommentService.Create(
		c.Request().Context(),
		models.PostType(req.PostType),
		req.PostID,
		req.AuthorName,
		req.Content,
	)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(comment))
}

// DeleteComment godoc
// @Summary Удалить комментарий
// @Tags admin-comments
// @Param id path string true "UUID комментария" format(uuid)
// @Success 204 "Удалено"
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/v1/admin/comments/{id} [delete]
func (r *Routers) DeleteComment(c echo.Context) error {
	const op = "http.routers.DeleteComment"

	id, err := paramUUID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid("invalid comment id"))
	}

	if err := r.CommentService.Delete(c.Request().Context(), capabilityFrom(c), id); err != nil {
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	return c.NoContent(http.StatusNoContent)
}
