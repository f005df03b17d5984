package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/roadwatch/damage-service/internal/config"
)

// Store keeps uploaded source images and annotated outputs on disk,
// naming files with opaque identifiers so caller-supplied names never
// reach the filesystem.
type Store struct {
	uploadDir string
	outputDir string
}

// NewStore creates the storage directories if needed.
func NewStore(cfg config.MediaConfig) (*Store, error) {
	for _, dir := range []string{cfg.UploadDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create media dir %s: %w", dir, err)
		}
	}
	return &Store{uploadDir: cfg.UploadDir, outputDir: cfg.OutputDir}, nil
}

// SaveUpload persists a source image and returns its stored path.
func (s *Store) SaveUpload(data []byte, originalName string) (string, error) {
	name := fmt.Sprintf("upload_%s%s", uuid.NewString(), safeExt(originalName))
	path := filepath.Join(s.uploadDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// SaveOutput persists an annotated artifact and returns its file name,
// which doubles as the reference served back to clients.
func (s *Store) SaveOutput(data []byte) (string, error) {
	name := fmt.Sprintf("pred_%s.jpg", uuid.NewString())
	path := filepath.Join(s.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save output: %w", err)
	}
	return name, nil
}

// OutputPath resolves an output reference to an on-disk path, rejecting
// names that escape the output directory.
func (s *Store) OutputPath(name string) (string, bool) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return "", false
	}
	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".webp":
		return ext
	}
	return ".jpg"
}
