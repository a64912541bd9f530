package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Storage persists uploaded images and hands back the relative path that gets
// recorded in the database. Implementations can be swapped for an object
// store without touching the handlers.
type Storage interface {
	// Save writes the upload under the given subfolder (questions,
	// explanations, options) and returns its relative path.
	Save(file *multipart.FileHeader, subfolder string) (string, error)
	// Remove deletes a previously saved file. Best-effort: callers use it to
	// clean up after a failed database write.
	Remove(relPath string) error
}

// LocalStorage writes uploads to the static directory on local disk.
type LocalStorage struct {
	staticDir string
}

func NewLocalStorage(staticDir string) *LocalStorage {
	return &LocalStorage{staticDir: staticDir}
}

func (s *LocalStorage) Save(file *multipart.FileHeader, subfolder string) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: no file provided", ErrStorage)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: file type %q not allowed", ErrStorage, ext)
	}

	// timestamp + random suffix keeps concurrent uploads from colliding
	name := fmt.Sprintf("%d_%s_%s", time.Now().Unix(), uuid.NewString()[:8], sanitizeFilename(file.Filename))

	dir := filepath.Join(s.staticDir, "uploads", subfolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer src.Close()

	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return SanitizePath(fmt.Sprintf("uploads/%s/%s", subfolder, name)), nil
}

func (s *LocalStorage) Remove(relPath string) error {
	relPath = SanitizePath(relPath)
	if relPath == "" || !strings.HasPrefix(relPath, "uploads/") {
		return nil
	}
	return os.Remove(filepath.Join(s.staticDir, filepath.FromSlash(relPath)))
}

// SanitizePath normalizes stored image paths: forward slashes only, no
// doubled slashes, no leading slash.
func SanitizePath(path string) string {
	if path == "" {
		return path
	}
	sanitized := strings.ReplaceAll(path, "\\", "/")
	for strings.Contains(sanitized, "//") {
		sanitized = strings.ReplaceAll(sanitized, "//", "/")
	}
	return strings.TrimPrefix(sanitized, "/")
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
