package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"pyeongsan_church/internal/config"
	jwtlib "pyeongsan_church/internal/lib/jwt"
	"pyeongsan_church/internal/lib/logger/sl"
	appmiddleware "pyeongsan_church/internal/middleware"
	httprouters "pyeongsan_church/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	cfg     config.HTTPConfig
	token   string
}

func New(log *slog.Logger, cfg config.HTTPConfig, token, sessionSecret string, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	e.Server.ReadTimeout = cfg.Timeout
	e.Server.WriteTimeout = cfg.Timeout

	e.Use(middleware.Recover())
	e.Use(appmiddleware.PrometheusMetrics)

	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
		}))
	}

	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(sessionSecret))))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		log.Warn("statsviz registration failed", sl.Err(err))
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		cfg:     cfg,
		token:   token,
	}
}

// Echo нужен тестам маршрутов
func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info("starting http server", slog.String("op", op), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	const op = "http.Server.Stop"

	s.log.Info("stopping http server", slog.String("op", op))

	if err := s.e.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.cfg.Host, s.cfg.Port)
}

func (s *Server) BuildRouters() {
	debug := s.e.Group("/debug")
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	swagger := s.e.Group("/swag")
	{
		swagger.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.e.Group("/api/v1")
	{
		api.POST("/login", s.routers.Login)
		api.POST("/refresh", s.routers.Refresh)
		api.POST("/logout", s.routers.Logout)
		api.GET("/session", s.routers.Session)

		api.GET("/galleries", s.routers.ListGalleries)
		api.GET("/galleries/:id", s.routers.GetGallery)
		api.GET("/notices", s.routers.ListNotices)
		api.GET("/notices/:id", s.routers.GetNotice)
		api.GET("/comments", s.routers.ListComments)
		api.POST("/comments", s.routers.CreateComment)

		api.GET("/previews/:name", s.routers.Preview, s.routers.RequireSession)
	}

	admin := api.Group("/admin")
	admin.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(s.token),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(jwtlib.Claims)
		},
	}))
	admin.Use(s.routers.RequireAdmin)
	{
		admin.GET("/galleries", s.routers.ListGalleries)
		admin.DELETE("/galleries/:id", s.routers.DeleteGallery)

		editing := admin.Group("/gallery-sessions")
		editing.POST("", s.routers.OpenGallerySession)
		editing.GET("/:sid", s.routers.GetGallerySession)
		editing.PATCH("/:sid", s.routers.UpdateGallerySession)
		editing.DELETE("/:sid", s.routers.DiscardGallerySession)
		editing.POST("/:sid/staged", s.routers.AddStagedImages)
		editing.DELETE("/:sid/staged/:pos", s.routers.RemoveStagedImage)
		editing.DELETE("/:sid/existing/:pos", s.routers.RemoveExistingImage)
		editing.PUT("/:sid/thumbnail", s.routers.SetGalleryThumbnail)
		editing.POST("/:sid/save", s.routers.SaveGallerySession)

		admin.GET("/notices", s.routers.AdminListNotices)
		admin.POST("/notices", s.routers.CreateNotice)
		admin.GET("/notices/:id", s.routers.AdminGetNotice)
		admin.PUT("/notices/:id", s.routers.UpdateNotice)
		admin.PATCH("/notices/:id/published", s.routers.SetNoticePublished)
		admin.DELETE("/notices/:id", s.routers.DeleteNotice)
		admin.GET("/notices/:id/comments", s.routers.AdminNoticeComments)

		admin.DELETE("/comments/:id", s.routers.DeleteComment)
	}
}
