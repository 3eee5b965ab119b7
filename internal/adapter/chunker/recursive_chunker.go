package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"docqa/internal/domain"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 150
)

// boundary reports whether a chunk may end at position p, i.e. right after text[p-1].
type boundary func(text []rune, p int) bool

// Separator levels, largest first: paragraph, sentence, word.
var levels = []boundary{
	func(text []rune, p int) bool {
		return p >= 2 && text[p-1] == '\n' && text[p-2] == '\n'
	},
	func(text []rune, p int) bool {
		if text[p-1] == '\n' {
			return true
		}
		if p < 2 || text[p-1] != ' ' {
			return false
		}
		switch text[p-2] {
		case '.', '!', '?':
			return true
		}
		return false
	},
	func(text []rune, p int) bool {
		return text[p-1] == ' ' || text[p-1] == '\t'
	},
}

// RecursiveChunker splits page text into character windows of at most size
// runes. Consecutive windows of a page share exactly overlap runes, so the
// page is recovered by concatenating the windows minus their overlaps.
type RecursiveChunker struct {
	size    int
	overlap int
}

func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return &RecursiveChunker{size: size, overlap: overlap}
}

func (c *RecursiveChunker) Chunk(doc domain.Document, segments []domain.Segment) ([]domain.Chunk, error) {
	var chunks []domain.Chunk

	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		text := []rune(seg.Text)

		for _, span := range c.spans(text) {
			chunks = append(chunks, domain.Chunk{
				ID:    generateChunkID(doc.ID, seg.Page, span[0], span[1]),
				DocID: doc.ID,
				Index: len(chunks),
				Page:  seg.Page,
				Start: span[0],
				End:   span[1],
				Text:  string(text[span[0]:span[1]]),
			})
		}
	}

	return chunks, nil
}

// spans returns the [start, end) rune ranges of the windows covering text.
func (c *RecursiveChunker) spans(text []rune) [][2]int {
	var spans [][2]int
	start := 0

	for {
		if len(text)-start <= c.size {
			spans = append(spans, [2]int{start, len(text)})
			return spans
		}
		end := c.cut(text, start)
		spans = append(spans, [2]int{start, end})
		start = end - c.overlap
	}
}

// cut picks the end of the window starting at start. Only the upper half of
// the window is searched so every step advances by a useful amount.
func (c *RecursiveChunker) cut(text []rune, start int) int {
	limit := start + c.size
	lowest := start + c.size/2
	if lowest <= start+c.overlap {
		lowest = start + c.overlap + 1
	}

	for _, isBoundary := range levels {
		for p := limit; p >= lowest; p-- {
			if isBoundary(text, p) {
				return p
			}
		}
	}
	return limit
}

func generateChunkID(docID string, page, start, end int) string {
	data := fmt.Sprintf("%s:%d:%d-%d", docID, page, start, end)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
