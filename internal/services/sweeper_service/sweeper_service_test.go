package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"pyeongsan_church/internal/storage/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const publicBase = "http://minio:9000/church/"

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) List(ctx context.Context, prefix string) ([]objectstore.Object, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]objectstore.Object), args.Error(1)
}

func (m *MockObjectStore) RemoveKey(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStore) KeyFromURL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, publicBase) {
		return "", false
	}
	return strings.TrimPrefix(raw, publicBase), true
}

type MockReferenceSource struct {
	mock.Mock
}

func (m *MockReferenceSource) ImageURLs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockStagingPurger struct {
	mock.Mock
}

func (m *MockStagingPurger) PurgeStale(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

var (
	ctx = context.Background()
	now = time.Date(2024, 12, 25, 12, 0, 0, 0, time.UTC)
)

func newSweeper(store ObjectStore, staging StagingPurger, cfg Config, refs ...ReferenceSource) *SweeperService {
	s := NewSweeperService(slog.New(slog.NewTextHandler(io.Discard, nil)), store, staging, cfg, refs...)
	s.now = func() time.Time { return now }
	return s
}

func TestSweeperService_Run(t *testing.T) {
	old := now.Add(-48 * time.Hour)
	fresh := now.Add(-time.Hour)

	galleryObjects := []objectstore.Object{
		{Key: "gallery/1-kept.jpg", LastModified: old},
		{Key: "gallery/2-orphan.jpg", LastModified: old},
		{Key: "gallery/3-inflight.jpg", LastModified: fresh},
	}
	noticeObjects := []objectstore.Object{
		{Key: "notices/4-kept.png", LastModified: old},
		{Key: "notices/5-orphan.png", LastModified: old},
	}

	tests := []struct {
		name      string
		dryRun    bool
		mockSetup func(store *MockObjectStore, staging *MockStagingPurger)
		want      Result
	}{
		{
			name: "removes old unreferenced objects",
			mockSetup: func(store *MockObjectStore, staging *MockStagingPurger) {
				store.On("RemoveKey", ctx, "gallery/2-orphan.jpg").Return(nil).Once()
				store.On("RemoveKey", ctx, "notices/5-orphan.png").Return(nil).Once()
				staging.On("PurgeStale", ctx, 24*time.Hour).Return(2, nil).Once()
			},
			want: Result{Scanned: 5, Referenced: 2, Orphaned: 2, Removed: 2, PreviewsRemoved: 2, ExecutedAt: now},
		},
		{
			name:      "dry run only reports",
			dryRun:    true,
			mockSetup: func(store *MockObjectStore, staging *MockStagingPurger) {},
			want:      Result{Scanned: 5, Referenced: 2, Orphaned: 2, DryRun: true, ExecutedAt: now},
		},
		{
			name: "removal failure is counted",
			mockSetup: func(store *MockObjectStore, staging *MockStagingPurger) {
				store.On("RemoveKey", ctx, "gallery/2-orphan.jpg").Return(errors.New("denied")).Once()
				store.On("RemoveKey", ctx, "notices/5-orphan.png").Return(nil).Once()
				staging.On("PurgeStale", ctx, 24*time.Hour).Return(0, nil).Once()
			},
			want: Result{Scanned: 5, Referenced: 2, Orphaned: 2, Removed: 1, Failed: 1, ExecutedAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockObjectStore)
			staging := new(MockStagingPurger)
			galleries := new(MockReferenceSource)
			notices := new(MockReferenceSource)

			galleries.On("ImageURLs", ctx).Return([]string{
				publicBase + "gallery/1-kept.jpg",
				"https://legacy.example.org/old.jpg",
			}, nil).Once()
			notices.On("ImageURLs", ctx).Return([]string{publicBase + "notices/4-kept.png"}, nil).Once()
			store.On("List", ctx, "gallery").Return(galleryObjects, nil).Once()
			store.On("List", ctx, "notices").Return(noticeObjects, nil).Once()
			tt.mockSetup(store, staging)

			sweeper := newSweeper(store, staging, Config{DryRun: tt.dryRun}, galleries, notices)

			got, err := sweeper.Run(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			store.AssertExpectations(t)
			staging.AssertExpectations(t)
			galleries.AssertExpectations(t)
			notices.AssertExpectations(t)
		})
	}
}

func TestSweeperService_RunWithoutReferencesDeletesNothing(t *testing.T) {
	store := new(MockObjectStore)
	staging := new(MockStagingPurger)
	refs := new(MockReferenceSource)

	refs.On("ImageURLs", ctx).Return(nil, errors.New("db down")).Once()

	_, err := newSweeper(store, staging, Config{}, refs).Run(ctx)
	require.Error(t, err)

	store.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "RemoveKey", mock.Anything, mock.Anything)
	staging.AssertNotCalled(t, "PurgeStale", mock.Anything, mock.Anything)
}

func TestSweeperService_ListFailureStops(t *testing.T) {
	store := new(MockObjectStore)
	refs := new(MockReferenceSource)

	refs.On("ImageURLs", ctx).Return([]string{}, nil).Once()
	store.On("List", ctx, "gallery").Return(nil, errors.New("timeout")).Once()

	_, err := newSweeper(store, nil, Config{}, refs).Run(ctx)
	require.Error(t, err)
	store.AssertNotCalled(t, "RemoveKey", mock.Anything, mock.Anything)
}

func TestSweeperService_StartRejectsBadSchedule(t *testing.T) {
	sweeper := newSweeper(new(MockObjectStore), nil, Config{Schedule: "every tuesday"})
	assert.Error(t, sweeper.Start())

	ok := newSweeper(new(MockObjectStore), nil, Config{Schedule: "@every 1h"})
	require.NoError(t, ok.Start())
	ok.Stop(ctx)
}
