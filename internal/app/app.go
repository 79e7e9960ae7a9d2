package app

import (
	"context"
	"fmt"
	"log/slog"

	httpapp "pyeongsan_church/internal/app/http"
	"pyeongsan_church/internal/config"
	"pyeongsan_church/internal/lib/logger/sl"
	"pyeongsan_church/internal/repository"
	comment "pyeongsan_church/internal/services/comment_service"
	gallery "pyeongsan_church/internal/services/gallery_service"
	notice "pyeongsan_church/internal/services/notice_service"
	sweeper "pyeongsan_church/internal/services/sweeper_service"
	token "pyeongsan_church/internal/services/token_service"
	user "pyeongsan_church/internal/services/user_service"
	"pyeongsan_church/internal/storage/filestorage"
	"pyeongsan_church/internal/storage/objectstore"
	"pyeongsan_church/internal/storage/postgresql"
	redisapp "pyeongsan_church/internal/storage/redis"
	httprouters "pyeongsan_church/internal/transport/http"
)

type App struct {
	log        *slog.Logger
	HTTPServer *httpapp.Server
	Sweeper    *sweeper.SweeperService

	sweeperEnabled bool
	sessions       *gallery.SessionStore
	storage        *postgresql.Storage
	redis          *redisapp.Client
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	storage, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := storage.Migrate(ctx); err != nil {
		storage.Stop()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisClient := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)
	if err := redisClient.HealthCheck(ctx); err != nil {
		storage.Stop()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cleanup := func() {
		_ = redisClient.Close()
		storage.Stop()
	}

	objects, err := objectstore.New(objectstore.Config{
		Endpoint:  cfg.ObjectStorage.Endpoint,
		AccessKey: cfg.ObjectStorage.AccessKey,
		SecretKey: cfg.ObjectStorage.SecretKey,
		Bucket:    cfg.ObjectStorage.Bucket,
		PublicURL: cfg.ObjectStorage.PublicURL,
		UseSSL:    cfg.ObjectStorage.UseSSL,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		cleanup()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	files, err := filestorage.NewLocalFileStorage(cfg.Staging.BaseDir, cfg.Staging.BaseURL, cfg.Staging.MaxFileSize)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	repo := repository.NewRepository(storage.Pool())
	tokenRepo := repository.NewRedisTokenRepo(redisClient)

	tokenService := token.NewTokenService(tokenRepo, cfg.TokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := user.NewUserService(log, repo.User, tokenService)

	sessions := gallery.NewSessionStore(log, files, cfg.Staging.SessionTTL)
	galleryService := gallery.NewGalleryService(log, repo.Gallery, sessions, objects.Uploader(objectstore.PrefixGallery), objects)
	noticeService := notice.NewNoticeService(log, repo.Notice, repo.Comment, objects.Uploader(objectstore.PrefixNotices), objects)
	commentService := comment.NewCommentService(log, repo.Comment)

	sweeperService := sweeper.NewSweeperService(log, objects, files, sweeper.Config{
		Schedule:      cfg.Sweeper.Schedule,
		GracePeriod:   cfg.Sweeper.GracePeriod,
		PreviewMaxAge: cfg.Sweeper.PreviewMaxAge,
		DryRun:        cfg.Sweeper.DryRun,
	}, repo.Gallery, repo.Notice)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, err := userService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Error("failed to ensure admin account", slog.String("op", op), sl.Err(err))
		}
	}

	routers := httprouters.NewRouter(
		log,
		cfg.PlaceholderImage,
		userService,
		tokenService,
		galleryService,
		noticeService,
		commentService,
		files,
	)

	server := httpapp.New(log, cfg.HTTP, cfg.TokenSecret, cfg.SessionSecret, routers)
	server.BuildRouters()

	return &App{
		log:            log,
		HTTPServer:     server,
		Sweeper:        sweeperService,
		sweeperEnabled: cfg.Sweeper.Enabled,
		sessions:       sessions,
		storage:        storage,
		redis:          redisClient,
	}, nil
}

// MustRun запускает сборщик и блокируется на HTTP-сервере
func (a *App) MustRun() {
	if a.sweeperEnabled {
		if err := a.Sweeper.Start(); err != nil {
			panic(err)
		}
	}

	a.HTTPServer.MustRun()
}

func (a *App) Stop(ctx context.Context) {
	const op = "app.Stop"

	if err := a.HTTPServer.Stop(ctx); err != nil {
		a.log.Error("failed to stop http server", slog.String("op", op), sl.Err(err))
	}

	a.Sweeper.Stop(ctx)
	a.sessions.Close()

	if err := a.redis.Close(); err != nil {
		a.log.Warn("failed to close redis", slog.String("op", op), sl.Err(err))
	}
	a.storage.Stop()
}
