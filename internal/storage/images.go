package storage

import (
	"mime"
	"path/filepath"
	"strings"
)

// IsAllowedImage reports whether the content type is one of the image formats
// accepted for gallery and notice uploads.
func IsAllowedImage(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png", "image/x-png":
		return true
	case "image/jpeg", "image/pjpeg":
		return true
	case "image/webp":
		return true
	case "image/gif":
		return true
	default:
		return false
	}
}

// ImageContentType returns the declared content type, falling back to the
// file extension when the client sent none.
func ImageContentType(declared, filename string) string {
	ct := strings.TrimSpace(declared)
	if ct == "" || ct == "application/octet-stream" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}

	return strings.ToLower(strings.TrimSpace(ct))
}

// ImageExtension maps an allowed image content type to the extension used for
// stored files. The client file name is never trusted for it.
func ImageExtension(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png", "image/x-png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
