// Package fs provides file-system storage for capture output artifacts.
package fs

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/pagecap"
)

// maxNameFragment caps the URL-derived portion of generated file names.
const maxNameFragment = 80

// SanitizeName converts a source URL into a safe file-name fragment.
// Example: https://example.com/docs/api?page=2 → example.com_docs_api_page_2
func SanitizeName(rawURL string) string {
	s := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		s = u.Host + u.Path
		if u.RawQuery != "" {
			s += "_" + u.RawQuery
		}
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	name := strings.Trim(b.String(), "_.")
	if name == "" {
		name = "capture"
	}
	if len(name) > maxNameFragment {
		name = name[:maxNameFragment]
	}
	return name
}

// Store writes capture artifacts beneath a base directory. The
// directory is created on first write.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Dir returns the base directory.
func (s *Store) Dir() string {
	return s.baseDir
}

// SaveDocument writes data under name atomically: the bytes land in a
// temporary file first and are renamed into place, so readers never
// observe a partial document. The full path is returned.
func (s *Store) SaveDocument(name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return "", err
	}

	final := filepath.Join(s.baseDir, name)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return final, nil
}

// SaveBatchCapture writes one batch capture image named after the item
// id and its sanitized source URL. The full path is returned.
func (s *Store) SaveBatchCapture(id int64, sourceURL string, format pagecap.ImageFormat, data []byte) (string, error) {
	ext := "png"
	if format == pagecap.FormatJPEG {
		ext = "jpg"
	}
	name := fmt.Sprintf("batch_%03d_%s.%s", id, SanitizeName(sourceURL), ext)
	return s.SaveDocument(name, data)
}
