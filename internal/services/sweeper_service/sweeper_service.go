package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pyeongsan_church/internal/lib/logger/sl"
	"pyeongsan_church/internal/metrics"
	"pyeongsan_church/internal/storage/objectstore"

	"github.com/robfig/cron/v3"
)

const (
	defaultSchedule    = "@every 6h"
	defaultGracePeriod = 24 * time.Hour
	runTimeout         = 30 * time.Minute
)

// ObjectStore объекты бакета, которые может удалить сборщик
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]objectstore.Object, error)
	RemoveKey(ctx context.Context, key string) error
	KeyFromURL(raw string) (string, bool)
}

// ReferenceSource возвращает URL изображений, на которые ссылаются записи
type ReferenceSource interface {
	ImageURLs(ctx context.Context) ([]string, error)
}

// StagingPurger удаляет превью, оставшиеся от потерянных сессий
type StagingPurger interface {
	PurgeStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type Config struct {
	Schedule    string
	GracePeriod time.Duration
	// PreviewMaxAge возраст превью, после которого оно считается брошенным.
	// Превью открытых сессий не удаляются независимо от возраста.
	PreviewMaxAge time.Duration
	DryRun        bool
	Prefixes      []string
}

// Result итог одного прохода
type Result struct {
	Scanned         int       `json:"scanned"`
	Referenced      int       `json:"referenced"`
	Orphaned        int       `json:"orphaned"`
	Removed         int       `json:"removed"`
	Failed          int       `json:"failed"`
	PreviewsRemoved int       `json:"previews_removed"`
	DryRun          bool      `json:"dry_run"`
	ExecutedAt      time.Time `json:"executed_at"`
}

// SweeperService периодически удаляет объекты, на которые не ссылается ни одна запись.
// Такие объекты остаются после неудачных сохранений и удаления изображений из галерей.
type SweeperService struct {
	log     *slog.Logger
	store   ObjectStore
	refs    []ReferenceSource
	staging StagingPurger
	cfg     Config
	cron    *cron.Cron
	now     func() time.Time
}

func NewSweeperService(log *slog.Logger, store ObjectStore, staging StagingPurger, cfg Config, refs ...ReferenceSource) *SweeperService {
	if cfg.Schedule == "" {
		cfg.Schedule = defaultSchedule
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = defaultGracePeriod
	}
	if cfg.PreviewMaxAge <= 0 {
		cfg.PreviewMaxAge = defaultGracePeriod
	}
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = []string{objectstore.PrefixGallery, objectstore.PrefixNotices}
	}

	return &SweeperService{
		log:     log,
		store:   store,
		refs:    refs,
		staging: staging,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Start регистрирует задачу в планировщике. Запуски не накладываются друг на друга.
func (s *SweeperService) Start() error {
	const op = "service.SweeperService.Start"

	logger := cronLogger{log: s.log.With(slog.String("component", "cron"))}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))

	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.runScheduled); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.cron.Start()

	s.log.Info("storage sweeper started",
		slog.String("op", op),
		slog.String("schedule", s.cfg.Schedule),
		slog.Duration("grace_period", s.cfg.GracePeriod),
		slog.Bool("dry_run", s.cfg.DryRun),
	)

	return nil
}

// Stop останавливает планировщик и ждет завершения текущего прохода
func (s *SweeperService) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *SweeperService) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	_, _ = s.Run(ctx)
}

// Run выполняет один проход. Если не удалось собрать ссылки из базы,
// ничего не удаляется.
func (s *SweeperService) Run(ctx context.Context) (Result, error) {
	const op = "service.SweeperService.Run"

	log := s.log.With(slog.String("op", op), slog.Bool("dry_run", s.cfg.DryRun))

	res := Result{
		DryRun:     s.cfg.DryRun,
		ExecutedAt: s.now(),
	}

	referenced, err := s.references(ctx)
	if err != nil {
		log.Error("failed to collect references", sl.Err(err))
		return res, fmt.Errorf("%s: %w", op, err)
	}

	cutoff := res.ExecutedAt.Add(-s.cfg.GracePeriod)

	for _, prefix := range s.cfg.Prefixes {
		objects, err := s.store.List(ctx, prefix)
		if err != nil {
			log.Error("failed to list objects", slog.String("prefix", prefix), sl.Err(err))
			return res, fmt.Errorf("%s: %w", op, err)
		}

		for _, obj := range objects {
			res.Scanned++

			if _, ok := referenced[obj.Key]; ok {
				res.Referenced++
				continue
			}
			if obj.LastModified.After(cutoff) {
				continue
			}

			res.Orphaned++
			if s.cfg.DryRun {
				log.Info("orphaned object", slog.String("key", obj.Key), slog.Time("last_modified", obj.LastModified))
				continue
			}

			if err := s.store.RemoveKey(ctx, obj.Key); err != nil {
				res.Failed++
				log.Warn("failed to remove object", slog.String("key", obj.Key), sl.Err(err))
				continue
			}
			res.Removed++
			metrics.SweeperRemoved.WithLabelValues(prefix).Inc()
		}
	}

	if s.staging != nil && !s.cfg.DryRun {
		n, err := s.staging.PurgeStale(ctx, s.cfg.PreviewMaxAge)
		if err != nil {
			log.Warn("failed to purge stale previews", sl.Err(err))
		}
		res.PreviewsRemoved = n
		metrics.SweeperRemoved.WithLabelValues("previews").Add(float64(n))
	}

	log.Info("storage sweep finished",
		slog.Int("scanned", res.Scanned),
		slog.Int("orphaned", res.Orphaned),
		slog.Int("removed", res.Removed),
		slog.Int("failed", res.Failed),
		slog.Int("previews_removed", res.PreviewsRemoved),
	)

	return res, nil
}

func (s *SweeperService) references(ctx context.Context) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	for _, src := range s.refs {
		urls, err := src.ImageURLs(ctx)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			if key, ok := s.store.KeyFromURL(u); ok {
				keys[key] = struct{}{}
			}
		}
	}

	return keys, nil
}

// cronLogger передает сообщения планировщика в slog
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, sl.Err(err))...)
}
