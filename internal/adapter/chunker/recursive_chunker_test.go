package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"docqa/internal/domain"
)

var testDoc = domain.Document{ID: "doc1", Path: "/test/file.pdf"}

// longText builds prose with paragraphs, sentences and some non-ASCII runes.
func longText(paragraphs int) string {
	sentence := "Le café du matin est servi à huit heures précises dans la grande salle. "
	var sb strings.Builder
	for p := 0; p < paragraphs; p++ {
		for s := 0; s < 6; s++ {
			sb.WriteString(sentence)
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func reconstruct(chunks []domain.Chunk, overlap int) string {
	var sb strings.Builder
	for i, c := range chunks {
		runes := []rune(c.Text)
		if i > 0 {
			runes = runes[overlap:]
		}
		sb.WriteString(string(runes))
	}
	return sb.String()
}

func TestRecursiveChunkerShortText(t *testing.T) {
	chunker := NewRecursiveChunker(800, 150)

	content := "The capital of France is Paris."
	chunks, err := chunker.Chunk(testDoc, []domain.Segment{{Page: 1, Text: content}})
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != content {
		t.Errorf("expected chunk text to match content, got %q", chunks[0].Text)
	}
	if chunks[0].Page != 1 || chunks[0].DocID != "doc1" || chunks[0].ID == "" {
		t.Errorf("unexpected provenance: %+v", chunks[0])
	}
}

func TestRecursiveChunkerBoundsAndOverlap(t *testing.T) {
	chunker := NewRecursiveChunker(800, 150)
	content := longText(12)

	chunks, err := chunker.Chunk(testDoc, []domain.Segment{{Page: 1, Text: content}})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		n := utf8.RuneCountInString(chunk.Text)
		if n == 0 {
			t.Errorf("chunk %d is empty", i)
		}
		if n > 800 {
			t.Errorf("chunk %d has %d runes, limit 800", i, n)
		}
		if chunk.Index != i {
			t.Errorf("chunk %d has Index %d", i, chunk.Index)
		}
	}

	for i := 0; i < len(chunks)-1; i++ {
		cur := []rune(chunks[i].Text)
		next := []rune(chunks[i+1].Text)
		tail := string(cur[len(cur)-150:])
		head := string(next[:150])
		if tail != head {
			t.Errorf("chunks %d and %d do not overlap by 150 runes", i, i+1)
		}
		if chunks[i+1].Start != chunks[i].End-150 {
			t.Errorf("chunk %d starts at %d, expected %d", i+1, chunks[i+1].Start, chunks[i].End-150)
		}
	}

	if got := reconstruct(chunks, 150); got != content {
		t.Error("concatenation minus overlaps does not reconstruct the original text")
	}
}

func TestRecursiveChunkerPrefersParagraphs(t *testing.T) {
	chunker := NewRecursiveChunker(800, 150)

	first := strings.Repeat("a", 600) + "\n\n"
	content := first + strings.Repeat("word ", 200)

	chunks, err := chunker.Chunk(testDoc, []domain.Segment{{Page: 1, Text: content}})
	if err != nil {
		t.Fatal(err)
	}
	if chunks[0].Text != first {
		t.Errorf("expected first chunk to end at the paragraph break, got %d runes", len([]rune(chunks[0].Text)))
	}
}

func TestRecursiveChunkerPrefersSentencesOverWords(t *testing.T) {
	chunker := NewRecursiveChunker(100, 20)

	content := strings.Repeat("x", 60) + ". " + strings.Repeat("y ", 60)

	chunks, err := chunker.Chunk(testDoc, []domain.Segment{{Page: 1, Text: content}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(chunks[0].Text, ". ") {
		t.Errorf("expected first chunk to end after the sentence, got %q", chunks[0].Text)
	}
}

func TestRecursiveChunkerHardCut(t *testing.T) {
	chunker := NewRecursiveChunker(800, 150)
	content := strings.Repeat("z", 2000)

	chunks, err := chunker.Chunk(testDoc, []domain.Segment{{Page: 1, Text: content}})
	if err != nil {
		t.Fatal(err)
	}

	if len([]rune(chunks[0].Text)) != 800 {
		t.Errorf("expected a hard cut at 800, got %d", len([]rune(chunks[0].Text)))
	}
	if got := reconstruct(chunks, 150); got != content {
		t.Error("hard-cut chunks do not reconstruct the original text")
	}
}

func TestRecursiveChunkerDeterministic(t *testing.T) {
	chunker := NewRecursiveChunker(800, 150)
	segments := []domain.Segment{
		{Page: 1, Text: longText(5)},
		{Page: 2, Text: longText(3)},
	}

	a, err := chunker.Chunk(testDoc, segments)
	if err != nil {
		t.Fatal(err)
	}
	b, err := chunker.Chunk(testDoc, segments)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestRecursiveChunkerPreservesOrder(t *testing.T) {
	chunker := NewRecursiveChunker(800, 150)
	segments := []domain.Segment{
		{Page: 1, Text: longText(4)},
		{Page: 2, Text: "   \n "},
		{Page: 3, Text: longText(4)},
	}

	chunks, err := chunker.Chunk(testDoc, segments)
	if err != nil {
		t.Fatal(err)
	}

	lastPage := 0
	for _, c := range chunks {
		if c.Page < lastPage {
			t.Fatalf("chunk from page %d after page %d", c.Page, lastPage)
		}
		if c.Page == 2 {
			t.Error("whitespace-only page produced a chunk")
		}
		lastPage = c.Page
	}
	if lastPage != 3 {
		t.Errorf("expected chunks from page 3, last page was %d", lastPage)
	}
}

func TestRecursiveChunkerEmptyContent(t *testing.T) {
	chunker := NewRecursiveChunker(800, 150)

	chunks, err := chunker.Chunk(testDoc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}

	chunks, err = chunker.Chunk(testDoc, []domain.Segment{{Page: 1, Text: "  \n\t"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for blank text, got %d", len(chunks))
	}
}

func TestChunkIDUniqueness(t *testing.T) {
	chunker := NewRecursiveChunker(100, 20)

	chunks, err := chunker.Chunk(testDoc, []domain.Segment{
		{Page: 1, Text: longText(2)},
		{Page: 2, Text: longText(2)},
	})
	if err != nil {
		t.Fatal(err)
	}

	ids := make(map[string]bool)
	for _, chunk := range chunks {
		if ids[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		ids[chunk.ID] = true
	}
}

func TestNewRecursiveChunkerClampsOverlap(t *testing.T) {
	chunker := NewRecursiveChunker(100, 100)
	if chunker.overlap >= chunker.size {
		t.Errorf("overlap %d not clamped below size %d", chunker.overlap, chunker.size)
	}
}
