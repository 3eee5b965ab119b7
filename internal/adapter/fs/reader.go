package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docqa/internal/domain"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher admits documents whose file name matches one of the accept patterns.
type Matcher struct {
	accept []string
}

func NewMatcher(accept []string) *Matcher {
	if len(accept) == 0 {
		accept = []string{"*.pdf"}
	}
	return &Matcher{accept: accept}
}

// Accepts reports whether the base name of path matches an accept pattern.
// Matching ignores case, so "*.pdf" also admits "Report.PDF".
func (m *Matcher) Accepts(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, pattern := range m.accept {
		matched, err := doublestar.Match(strings.ToLower(pattern), name)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ReadDocument reads the whole file at path into a Document.
func (m *Matcher) ReadDocument(path string) (domain.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.Document{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return domain.Document{}, err
	}
	if info.IsDir() {
		return domain.Document{}, fmt.Errorf("%w: %s is a directory", domain.ErrUnsupportedDocument, abs)
	}
	if !m.Accepts(abs) {
		return domain.Document{}, fmt.Errorf("%w: %s does not match %v", domain.ErrUnsupportedDocument, info.Name(), m.accept)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return domain.Document{}, err
	}

	return domain.Document{
		ID:      DocumentID(abs),
		Path:    abs,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Data:    data,
	}, nil
}

// DocumentID derives a stable identifier from a document path.
func DocumentID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
