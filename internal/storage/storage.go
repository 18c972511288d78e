// Package storage lays out the public artifact tree: signed XML,
// printable PDFs and company logos, each under a per-RUC directory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileStore writes document artifacts under a base directory
type FileStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewFileStore creates a FileStore rooted at baseDir
func NewFileStore(baseDir string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{baseDir: baseDir, logger: logger}
}

// XMLPath is the relative path of the authorized comprobante XML
func XMLPath(ruc, claveAcceso string) string {
	return filepath.Join("public", "xml", ruc, claveAcceso+".xml")
}

// RidePath is the relative path of the printable document PDF
func RidePath(ruc, claveAcceso string) string {
	return filepath.Join("public", "ride", ruc, claveAcceso+".pdf")
}

// LogoPath is the relative path of the company logo
func LogoPath(ruc string) string {
	return filepath.Join("public", "logo", ruc, "logo.png")
}

// CertificatePath is the relative path of a signing certificate
func CertificatePath(ruc, name string) string {
	return filepath.Join("certificados", ruc, name)
}

// SaveXML stores the comprobante XML for an authorized document
func (s *FileStore) SaveXML(ruc, claveAcceso string, content []byte) (string, error) {
	return s.save(XMLPath(ruc, claveAcceso), content)
}

// SaveRide stores the printable PDF for an authorized document
func (s *FileStore) SaveRide(ruc, claveAcceso string, content []byte) (string, error) {
	return s.save(RidePath(ruc, claveAcceso), content)
}

// SaveLogo stores the company logo
func (s *FileStore) SaveLogo(ruc string, content []byte) (string, error) {
	return s.save(LogoPath(ruc), content)
}

// SaveCertificate stores an uploaded signing certificate
func (s *FileStore) SaveCertificate(ruc, name string, content []byte) (string, error) {
	return s.save(CertificatePath(ruc, name), content)
}

// Read loads an artifact by its relative path
func (s *FileStore) Read(path string) ([]byte, error) {
	full, err := s.fullPath(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return content, nil
}

// Exists reports whether an artifact is already stored
func (s *FileStore) Exists(path string) bool {
	full, err := s.fullPath(path)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(full)
	return statErr == nil
}

// FullPath resolves a relative artifact path against the base directory
func (s *FileStore) FullPath(path string) (string, error) {
	return s.fullPath(path)
}

func (s *FileStore) save(path string, content []byte) (string, error) {
	full, err := s.fullPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directories: %w", err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		s.logger.Error("write artifact failed", zap.String("path", full), zap.Error(err))
		return "", fmt.Errorf("write file: %w", err)
	}
	s.logger.Debug("artifact saved", zap.String("path", path), zap.Int("size", len(content)))
	return full, nil
}

// fullPath joins and rejects paths that escape the base directory
func (s *FileStore) fullPath(path string) (string, error) {
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}
	abs, err := filepath.Abs(filepath.Join(absBase, path))
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if abs != absBase && !strings.HasPrefix(abs, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", path)
	}
	return abs, nil
}
