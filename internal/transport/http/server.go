package http

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"pyeongsan_church/internal/domain/models"
	jwtlib "pyeongsan_church/internal/lib/jwt"
	"pyeongsan_church/internal/lib/logger/sl"
	gallery "pyeongsan_church/internal/services/gallery_service"
	notice "pyeongsan_church/internal/services/notice_service"
	user "pyeongsan_church/internal/services/user_service"
	"pyeongsan_church/internal/transport/http/dto"
	"pyeongsan_church/internal/transport/http/dto/request"
	"pyeongsan_church/internal/transport/http/dto/response"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	_ "pyeongsan_church/docs"
)

const (
	sessionName    = "session"
	sessionUserKey = "user_id"
	sessionMaxAge  = 7 * 24 * 60 * 60

	capabilityKey = "admin_capability"
)

type UserService interface {
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	AdminCapability(ctx context.Context, userID uuid.UUID) (models.AdminCapability, error)
}

type TokenService interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

type GalleryService interface {
	ListGalleries(ctx context.Context, page, perPage int) ([]models.Gallery, int, error)
	GetGallery(ctx context.Context, id uuid.UUID) (models.Gallery, error)
	DeleteGallery(ctx context.Context, capability models.AdminCapability, id uuid.UUID) error
	OpenSession(ctx context.Context, capability models.AdminCapability, galleryID *uuid.UUID) (gallery.SessionView, error)
	GetSession(ctx context.Context, capability models.AdminCapability, sessionID string) (gallery.SessionView, error)
	UpdateDetails(ctx context.Context, capability models.AdminCapability, sessionID string, title, description *string) (gallery.SessionView, error)
	AddStaged(ctx context.Context, capability models.AdminCapability, sessionID string, files []*multipart.FileHeader) (gallery.SessionView, error)
	RemoveExisting(ctx context.Context, capability models.AdminCapability, sessionID string, pos int) (gallery.SessionView, error)
	RemoveStaged(ctx context.Context, capability models.AdminCapability, sessionID string, pos int) (gallery.SessionView, error)
	SetThumbnail(ctx context.Context, capability models.AdminCapability, sessionID string, index int) (gallery.SessionView, error)
	DiscardSession(ctx context.Context, capability models.AdminCapability, sessionID string) error
	Save(ctx context.Context, capability models.AdminCapability, sessionID string) (models.Gallery, error)
}

type NoticeService interface {
	ListPublished(ctx context.Context, page, perPage int) ([]models.Notice, int, error)
	GetPublished(ctx context.Context, id uuid.UUID) (models.Notice, error)
	ListAll(ctx context.Context, capability models.AdminCapability, page, perPage int) ([]models.Notice, int, error)
	Get(ctx context.Context, capability models.AdminCapability, id uuid.UUID) (models.Notice, error)
	Create(ctx context.Context, capability models.AdminCapability, in notice.NoticeInput) (models.Notice, error)
	Update(ctx context.Context, capability models.AdminCapability, id uuid.UUID, in notice.NoticeInput) (models.Notice, error)
	SetPublished(ctx context.Context, capability models.AdminCapability, id uuid.UUID, published bool) error
	Delete(ctx context.Context, capability models.AdminCapability, id uuid.UUID) error
}

type CommentService interface {
	List(ctx context.Context, postType models.PostType, postID uuid.UUID) ([]models.Comment, error)
	Create(ctx context.Context, postType models.PostType, postID uuid.UUID, authorName, content string) (models.Comment, error)
	Delete(ctx context.Context, capability models.AdminCapability, id uuid.UUID) error
}

// PreviewStore отдает файлы, выбранные в форме галереи и еще не загруженные
type PreviewStore interface {
	PreviewPath(name string) (string, error)
}

type Routers struct {
	log            *slog.Logger
	placeholder    string
	UserService    UserService
	TokenService   TokenService
	GalleryService GalleryService
	NoticeService  NoticeService
	CommentService CommentService
	Previews       PreviewStore
}

func NewRouter(
	log *slog.Logger,
	placeholder string,
	userService UserService,
	tokenService TokenService,
	galleryService GalleryService,
	noticeService NoticeService,
	commentService CommentService,
	previews PreviewStore,
) *Routers {
	return &Routers{
		log:            log,
		placeholder:    placeholder,
		UserService:    userService,
		TokenService:   tokenService,
		GalleryService: galleryService,
		NoticeService:  noticeService,
		CommentService: commentService,
		Previews:       previews,
	}
}

// Login godoc
// @Summary Вход администратора
// @Description Проверяет email и пароль, возвращает пару токенов и устанавливает cookie сессии
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Данные для входа"
// @Success 200 {object} response.Response{data=models.TokenPair} "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Неверный формат запроса"
// @Failure 401 {object} response.ErrorResponse "Неверный email или пароль"
// @Router /api/v1/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("invalid format request", sl.Err(err))
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	tokens, err := r.UserService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthenticationFailed)
		}
		return r.fail(c, log, err)
	}

	sess, err := session.Get(sessionName, c)
	if err == nil {
		sess.Options = &sessions.Options{
			Path:     "/",
			MaxAge:   sessionMaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		sess.Values[sessionUserKey] = tokens.UserID.String()
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn("failed to save session cookie", sl.Err(err))
		}
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(tokens))
}

// Refresh godoc
// @Summary Обновление токенов
// @Description Обменивает refresh-токен на новую пару. Старый refresh-токен становится недействительным.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.RefreshRequest true "Refresh-токен"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /api/v1/refresh [post]
func (r *Routers) Refresh(c echo.Context) error {
	const op = "http.routers.Refresh"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.RefreshRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.Invalid(err.Error()))
	}

	tokens, err := r.TokenService.RefreshTokens(c.Request().Context(), req.RefreshToken)
	if err != nil {
		log.Warn("failed to refresh tokens", sl.Err(err))
		return c.JSON(http.StatusUnauthorized, response.ErrInvalidRefreshToken)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(tokens))
}

// Logout godoc
// @Summary Выход
// @Description Отзывает refresh-токены пользователя из cookie сессии и удаляет cookie
// @Tags auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/logout [post]
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	log := r.log.With(
		slog.String("op", op),
	)

	sess, err := session.Get(sessionName, c)
	if err != nil {
		return c.JSON(http.StatusOK, response.Message("logged out"))
	}

	if userID, ok := sessionUser(sess); ok {
		if err := r.UserService.Logout(c.Request().Context(), userID); err != nil {
			log.Error("failed to revoke tokens", sl.Err(err))
		}
	}

	delete(sess.Values, sessionUserKey)
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		log.Warn("failed to clear session cookie", sl.Err(err))
	}

	return c.JSON(http.StatusOK, response.Message("logged out"))
}

// Session godoc
// @Summary Проверка сессии
// @Description Используется страницами админки: без входа они перенаправляют на страницу логина
// @Tags auth
// @Produce json
// @Success 200 {object} response.Response{data=dto.SessionResponse}
// @Router /api/v1/session [get]
func (r *Routers) Session(c echo.Context) error {
	const op = "http.routers.Session"

	var resp dto.SessionResponse

	sess, err := session.Get(sessionName, c)
	if err != nil {
		return c.JSON(http.StatusOK, response.SuccessResponse(resp))
	}

	userID, ok := sessionUser(sess)
	if !ok {
		return c.JSON(http.StatusOK, response.SuccessResponse(resp))
	}

	isAdmin, err := r.UserService.IsAdmin(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return c.JSON(http.StatusOK, response.SuccessResponse(resp))
		}
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	resp.Authenticated = true
	resp.IsAdmin = isAdmin
	resp.UserID = &userID

	return c.JSON(http.StatusOK, response.SuccessResponse(resp))
}

// RequireAdmin выдает capability по JWT из заголовка Authorization.
// Должен стоять после echojwt, который кладет *jwt.Token в контекст.
func (r *Routers) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}
		claims, ok := token.Claims.(*jwtlib.Claims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}
		userID, err := claims.UserUUID()
		if err != nil {
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}

		return r.grant(c, next, userID)
	}
}

// RequireSession то же для запросов браузера без заголовка, по cookie сессии
func (r *Routers) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := session.Get(sessionName, c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}
		userID, ok := sessionUser(sess)
		if !ok {
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}

		return r.grant(c, next, userID)
	}
}

func (r *Routers) grant(c echo.Context, next echo.HandlerFunc, userID uuid.UUID) error {
	const op = "http.routers.grant"

	capability, err := r.UserService.AdminCapability(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			return c.JSON(http.StatusForbidden, response.ErrForbidden)
		}
		return r.fail(c, r.log.With(slog.String("op", op)), err)
	}

	c.Set(capabilityKey, capability)

	return next(c)
}

// capabilityFrom возвращает нулевую capability, если middleware не выполнялся
func capabilityFrom(c echo.Context) models.AdminCapability {
	capability, _ := c.Get(capabilityKey).(models.AdminCapability)
	return capability
}

func sessionUser(sess *sessions.Session) (uuid.UUID, bool) {
	raw, ok := sess.Values[sessionUserKey].(string)
	if !ok || raw == "" {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// pageParams читает page и per_page, подставляя значения по умолчанию
func pageParams(c echo.Context, defaultPerPage int) (int, int, error) {
	page, perPage := 1, defaultPerPage

	err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("per_page", &perPage).
		BindError()

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = defaultPerPage
	}

	return page, perPage, err
}
