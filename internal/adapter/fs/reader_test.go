package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestMatcherAccepts(t *testing.T) {
	m := NewMatcher(nil)

	assert.True(t, m.Accepts("/tmp/report.pdf"))
	assert.True(t, m.Accepts("REPORT.PDF"))
	assert.True(t, m.Accepts("/tmp/Two.Pdf"))
	assert.False(t, m.Accepts("/tmp/notes.txt"))
	assert.False(t, m.Accepts("/tmp/pdf"))

	upper := NewMatcher([]string{"*.PDF"})
	assert.True(t, upper.Accepts("paper.pdf"))
}

func TestReadDocumentMixedCaseExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Two.Pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0644))

	doc, err := NewMatcher(nil).ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "Two.Pdf", doc.Name)
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0644))

	doc, err := NewMatcher(nil).ReadDocument(path)
	require.NoError(t, err)

	assert.Equal(t, "paper.pdf", doc.Name)
	assert.Equal(t, int64(13), doc.Size)
	assert.Equal(t, []byte("%PDF-1.4 fake"), doc.Data)
	assert.Equal(t, DocumentID(doc.Path), doc.ID)
	assert.Len(t, doc.ID, 16)
}

func TestReadDocumentRejects(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0644))

	m := NewMatcher(nil)

	_, err := m.ReadDocument(txt)
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)

	_, err = m.ReadDocument(dir)
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)

	_, err = m.ReadDocument(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
