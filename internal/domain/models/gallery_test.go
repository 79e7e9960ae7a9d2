package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

func TestGallery_Cover(t *testing.T) {
	tests := []struct {
		name    string
		gallery Gallery
		want    string
	}{
		{
			name:    "thumbnail wins regardless of order",
			gallery: Gallery{ThumbnailURL: ptr("x"), ImageURL: ptr("y"), Images: []string{"a", "b"}},
			want:    "x",
		},
		{
			name:    "legacy image url",
			gallery: Gallery{ImageURL: ptr("y"), Images: []string{"a", "b"}},
			want:    "y",
		},
		{
			name:    "first image",
			gallery: Gallery{Images: []string{"a", "b"}},
			want:    "a",
		},
		{
			name:    "empty thumbnail is skipped",
			gallery: Gallery{ThumbnailURL: ptr(""), Images: []string{"a"}},
			want:    "a",
		},
		{
			name:    "nothing to show",
			gallery: Gallery{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.gallery.Cover())
		})
	}
}

func TestGallery_DisplayImagesLegacyRecord(t *testing.T) {
	g := Gallery{ImageURL: ptr("old.jpg")}

	assert.Equal(t, []string{"old.jpg"}, g.DisplayImages())
	assert.Equal(t, 0, g.ThumbnailIndex())
	assert.Nil(t, Gallery{}.DisplayImages())
}

func TestGallery_ThumbnailIndex(t *testing.T) {
	g := Gallery{Images: []string{"a", "b", "c"}, ThumbnailURL: ptr("c")}
	assert.Equal(t, 2, g.ThumbnailIndex())

	g.ThumbnailURL = ptr("gone")
	assert.Equal(t, 0, g.ThumbnailIndex())
}

func TestGallery_Validate(t *testing.T) {
	tests := []struct {
		name       string
		gallery    Gallery
		wantErrors []string
	}{
		{
			name:    "valid",
			gallery: Gallery{Title: "Пасха", Images: []string{"a", "b"}, ThumbnailURL: ptr("b"), ImageURL: ptr("b")},
		},
		{
			name:    "blank title and no images",
			gallery: Gallery{Title: "  "},
			wantErrors: []string{
				"title is required",
				"at least one image is required",
				"thumbnail must be one of the images",
			},
		},
		{
			name:       "thumbnail outside images",
			gallery:    Gallery{Title: "Пасха", Images: []string{"a"}, ThumbnailURL: ptr("z"), ImageURL: ptr("z")},
			wantErrors: []string{"thumbnail must be one of the images"},
		},
		{
			name:       "legacy field out of sync",
			gallery:    Gallery{Title: "Пасха", Images: []string{"a"}, ThumbnailURL: ptr("a"), ImageURL: ptr("b")},
			wantErrors: []string{"image_url must mirror thumbnail_url"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gallery.Validate()

			if tt.wantErrors == nil {
				require.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantErrors, validationErr.Errors)
		})
	}
}
