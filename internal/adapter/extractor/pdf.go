// Package extractor turns PDF documents into page-ordered text segments.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"

	"github.com/ledongthuc/pdf"
)

var _ port.Extractor = (*PDFExtractor)(nil)

// PDFExtractor parses PDFs in-process.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns one segment per non-blank page.
func (e *PDFExtractor) Extract(ctx context.Context, doc domain.Document) (segments []domain.Segment, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = fmt.Errorf("%w: %s: %v", domain.ErrExtraction, doc.Name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, doc.Name, err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %v", domain.ErrExtraction, doc.Name, i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, domain.Segment{Page: i, Text: text})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.Name, domain.ErrEmptyDocument)
	}
	return segments, nil
}
