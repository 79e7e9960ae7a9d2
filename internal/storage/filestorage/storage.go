package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pyeongsan_church/internal/imageset"
	"pyeongsan_church/internal/storage"

	"github.com/google/uuid"
)

const stagingDir = "staging"

// LocalFileStorage хранит выбранные в форме файлы до сохранения галереи.
// Каждый файл получает превью, которое освобождается при удалении из формы
// или при закрытии сессии редактирования.
type LocalFileStorage struct {
	baseDir string // Базовый каталог (например: "./staging")
	baseURL string // URL, по которому админка получает превью
	maxSize int64

	mu   sync.Mutex
	held map[string]struct{} // Превью открытых сессий, PurgeStale их не трогает
}

func NewLocalFileStorage(baseDir, baseURL string, maxSize int64) (*LocalFileStorage, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(filepath.Join(baseDir, stagingDir), 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxSize: maxSize,
		held:    make(map[string]struct{}),
	}, nil
}

func (s *LocalFileStorage) Save(ctx context.Context, file *multipart.FileHeader, subPath string) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	filePath := filepath.Join(s.baseDir, subPath, file.Filename)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create directories: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	// Создаем целевой файл
	dst, err := os.Create(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	var reader io.Reader = src
	if s.maxSize > 0 {
		reader = io.LimitReader(src, s.maxSize+1)
	}

	done := make(chan struct{})
	var size int64
	var copyErr error

	go func() {
		size, copyErr = io.Copy(dst, reader)
		close(done)
	}()

	select {
	case <-done:
		if copyErr != nil {
			_ = os.Remove(filePath)
			return "", 0, fmt.Errorf("failed to copy file: %w", copyErr)
		}
	case <-ctx.Done():
		<-done
		_ = os.Remove(filePath)
		return "", 0, ctx.Err()
	}

	if s.maxSize > 0 && size > s.maxSize {
		_ = os.Remove(filePath)
		return "", 0, storage.ErrFileTooLarge
	}

	return filepath.Join(subPath, file.Filename), size, nil
}

// Delete удаляет файл из хранилища
func (s *LocalFileStorage) Delete(ctx context.Context, filePath string) error {
	fullPath := filepath.Join(s.baseDir, filePath)
	return os.Remove(fullPath)
}

// GetFullPath возвращает полный путь к файлу на диске
func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, relativePath)
}

// Acquire сохраняет выбранный файл во временный каталог под случайным именем
func (s *LocalFileStorage) Acquire(ctx context.Context, file *multipart.FileHeader) (imageset.Preview, error) {
	contentType := storage.ImageContentType(file.Header.Get("Content-Type"), file.Filename)
	if !storage.IsAllowedImage(contentType) {
		return imageset.Preview{}, fmt.Errorf("%w: %q", storage.ErrInvalidFileType, contentType)
	}
	if s.maxSize > 0 && file.Size > s.maxSize {
		return imageset.Preview{}, storage.ErrFileTooLarge
	}

	staged := *file
	staged.Filename = uuid.NewString() + storage.ImageExtension(contentType)

	key, size, err := s.Save(ctx, &staged, stagingDir)
	if err != nil {
		return imageset.Preview{}, err
	}

	s.mu.Lock()
	s.held[key] = struct{}{}
	s.mu.Unlock()

	return imageset.Preview{
		Key:         key,
		URL:         s.baseURL + "/" + path.Base(key),
		Name:        file.Filename,
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Open открывает сохраненный файл превью для загрузки
func (s *LocalFileStorage) Open(p imageset.Preview) (io.ReadCloser, error) {
	f, err := os.Open(s.GetFullPath(p.Key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrFileNotFound
	}

	return f, err
}

// Release удаляет файл превью. Повторное освобождение не считается ошибкой.
func (s *LocalFileStorage) Release(ctx context.Context, p imageset.Preview) error {
	s.mu.Lock()
	delete(s.held, p.Key)
	s.mu.Unlock()

	err := s.Delete(ctx, p.Key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// PreviewPath возвращает путь к файлу превью по имени из URL
func (s *LocalFileStorage) PreviewPath(name string) (string, error) {
	clean := filepath.Base(filepath.Clean("/" + name))
	if clean == "/" || clean == "." {
		return "", storage.ErrFileNotFound
	}

	full := s.GetFullPath(filepath.Join(stagingDir, clean))
	if _, err := os.Stat(full); err != nil {
		return "", storage.ErrFileNotFound
	}

	return full, nil
}

// PurgeStale удаляет превью старше olderThan, кроме удерживаемых открытыми
// сессиями. Такие файлы остаются после перезапуска процесса, когда сессии
// редактирования потеряны.
func (s *LocalFileStorage) PurgeStale(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, stagingDir))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		key := filepath.Join(stagingDir, entry.Name())
		if s.isHeld(key) {
			continue
		}

		if err := s.Delete(ctx, key); err == nil {
			removed++
		}
	}

	return removed, nil
}

func (s *LocalFileStorage) isHeld(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.held[key]
	return ok
}
