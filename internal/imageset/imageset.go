// Package imageset keeps the ordered images of one gallery entry while it is
// being edited: persisted URLs followed by staged local files that are not yet
// uploaded, plus the item chosen as the cover.
//
// The set is one ordered list of tagged items. The cover is stored as a
// reference to an item, so adding or removing other items never moves it.
// When the cover item itself is removed the cover passes to the item that now
// occupies the same position, clamped to the end of the list.
//
// A Set is not safe for concurrent use. Callers serialise access per session.
package imageset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/google/uuid"
)

var (
	ErrPosition = errors.New("imageset: position out of range")
	ErrEmpty    = errors.New("imageset: no images")
	ErrClosed   = errors.New("imageset: set is closed")
)

type Kind string

const (
	KindExisting Kind = "existing"
	KindStaged   Kind = "staged"
)

// Preview is a revocable local reference to a staged file.
type Preview struct {
	Key         string
	URL         string
	Name        string
	ContentType string
	Size        int64
}

// Previews allocates and releases staged file previews.
type Previews interface {
	Acquire(ctx context.Context, file *multipart.FileHeader) (Preview, error)
	Open(p Preview) (io.ReadCloser, error)
	Release(ctx context.Context, p Preview) error
}

// Uploader stores one file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
}

// UploadError reports the staged file whose upload aborted a resolve.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q failed: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Item is a read-only view of one entry of the combined list. Position is the
// current index within the item's own kind, the value RemoveExisting and
// RemoveStaged expect. Original is the persisted position of an existing image.
type Item struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	URL      string `json:"url"`
	Position int    `json:"position"`
	Original int    `json:"original_position"`
	Name     string `json:"name,omitempty"`
}

type item struct {
	id       string
	kind     Kind
	url      string
	position int
	preview  Preview
}

type Set struct {
	previews  Previews
	items     []item
	thumbnail string
	closed    bool
}

// New starts a set from persisted URLs. The cover is the item whose URL equals
// thumbnailURL, or the first item when there is no match.
func New(previews Previews, existing []string, thumbnailURL string) *Set {
	s := &Set{
		previews: previews,
		items:    make([]item, 0, len(existing)),
	}

	for i, url := range existing {
		it := item{
			id:       uuid.NewString(),
			kind:     KindExisting,
			url:      url,
			position: i,
		}
		if url == thumbnailURL && s.thumbnail == "" {
			s.thumbnail = it.id
		}
		s.items = append(s.items, it)
	}

	if s.thumbnail == "" && len(s.items) > 0 {
		s.thumbnail = s.items[0].id
	}

	return s
}

// AddStaged appends one staged item per file, keeping input order. Either all
// files are added or none are: previews acquired before a failure are released.
func (s *Set) AddStaged(ctx context.Context, files []*multipart.FileHeader) error {
	if s.closed {
		return ErrClosed
	}

	acquired := make([]item, 0, len(files))
	for _, file := range files {
		p, err := s.previews.Acquire(ctx, file)
		if err != nil {
			for _, it := range acquired {
				_ = s.previews.Release(ctx, it.preview)
			}
			return fmt.Errorf("acquire preview for %q: %w", file.Filename, err)
		}

		acquired = append(acquired, item{
			id:       uuid.NewString(),
			kind:     KindStaged,
			url:      p.URL,
			position: -1,
			preview:  p,
		})
	}

	s.items = append(s.items, acquired...)

	if s.thumbnail == "" && len(s.items) > 0 {
		s.thumbnail = s.items[0].id
	}

	return nil
}

// RemoveExisting removes the persisted image at pos within the existing images.
func (s *Set) RemoveExisting(pos int) error {
	if s.closed {
		return ErrClosed
	}
	if pos < 0 || pos >= s.existingLen() {
		return ErrPosition
	}

	s.remove(pos)

	return nil
}

// RemoveStaged removes the staged file at pos within the staged files and
// releases its preview. The item is removed even if the release fails.
func (s *Set) RemoveStaged(ctx context.Context, pos int) error {
	if s.closed {
		return ErrClosed
	}
	if pos < 0 || pos >= s.stagedLen() {
		return ErrPosition
	}

	removed := s.remove(s.existingLen() + pos)

	if err := s.previews.Release(ctx, removed.preview); err != nil {
		return fmt.Errorf("release preview %q: %w", removed.preview.Key, err)
	}

	return nil
}

// SetThumbnail makes the item at logical index i the cover.
func (s *Set) SetThumbnail(i int) error {
	if s.closed {
		return ErrClosed
	}
	if i < 0 || i >= len(s.items) {
		return ErrPosition
	}

	s.thumbnail = s.items[i].id

	return nil
}

func (s *Set) remove(idx int) item {
	removed := s.items[idx]
	s.items = append(s.items[:idx], s.items[idx+1:]...)

	if removed.id == s.thumbnail {
		s.thumbnail = ""
		if len(s.items) > 0 {
			s.thumbnail = s.items[min(idx, len(s.items)-1)].id
		}
	}

	return removed
}

// Len is the combined number of existing and staged images.
func (s *Set) Len() int {
	return len(s.items)
}

// ThumbnailIndex is the logical index of the cover, 0 for an empty set.
func (s *Set) ThumbnailIndex() int {
	for i, it := range s.items {
		if it.id == s.thumbnail {
			return i
		}
	}

	return 0
}

func (s *Set) Items() []Item {
	out := make([]Item, 0, len(s.items))
	counts := map[Kind]int{}
	for _, it := range s.items {
		out = append(out, Item{
			ID:       it.id,
			Kind:     it.kind,
			URL:      it.url,
			Position: counts[it.kind],
			Original: it.position,
			Name:     it.preview.Name,
		})
		counts[it.kind]++
	}

	return out
}

// Existing returns the persisted URLs in current order.
func (s *Set) Existing() []string {
	out := make([]string, 0, s.existingLen())
	for _, it := range s.items {
		if it.kind == KindExisting {
			out = append(out, it.url)
		}
	}

	return out
}

func (s *Set) existingLen() int {
	n := 0
	for _, it := range s.items {
		if it.kind == KindExisting {
			n++
		}
	}

	return n
}

func (s *Set) stagedLen() int {
	return len(s.items) - s.existingLen()
}

// Result is the outcome of Resolve.
type Result struct {
	Images       []string
	ThumbnailURL string
	Uploaded     []string
}

// Resolve uploads the staged files one at a time in list order and returns the
// final URL list with the cover resolved to a URL. On the first failed upload
// it returns an *UploadError and the URLs uploaded so far in Result.Uploaded.
// The set itself is left unchanged so the caller can retry.
func (s *Set) Resolve(ctx context.Context, up Uploader) (Result, error) {
	if s.closed {
		return Result{}, ErrClosed
	}
	if len(s.items) == 0 {
		return Result{}, ErrEmpty
	}

	thumb := s.ThumbnailIndex()
	final := s.Existing()
	var uploaded []string

	for _, it := range s.items {
		if it.kind != KindStaged {
			continue
		}

		url, err := s.upload(ctx, up, it.preview)
		if err != nil {
			return Result{Uploaded: uploaded}, &UploadError{Name: it.preview.Name, Err: err}
		}
		uploaded = append(uploaded, url)
	}

	final = append(final, uploaded...)
	if thumb < 0 || thumb >= len(final) {
		panic(fmt.Sprintf("imageset: thumbnail index %d outside %d images", thumb, len(final)))
	}

	return Result{
		Images:       final,
		ThumbnailURL: final[thumb],
		Uploaded:     uploaded,
	}, nil
}

func (s *Set) upload(ctx context.Context, up Uploader, p Preview) (string, error) {
	rc, err := s.previews.Open(p)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return up.Upload(ctx, p.Name, p.ContentType, rc, p.Size)
}

// Close releases every remaining preview. Calling it again is a no-op.
func (s *Set) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, it := range s.items {
		if it.kind != KindStaged {
			continue
		}
		if err := s.previews.Release(ctx, it.preview); err != nil {
			errs = append(errs, err)
		}
	}
	s.items = nil
	s.thumbnail = ""

	return errors.Join(errs...)
}
