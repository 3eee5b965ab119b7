package extractor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.Extractor = (*PopplerExtractor)(nil)

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PopplerExtractor shells out to pdftotext, which copes with more layouts
// than the in-process parser.
type PopplerExtractor struct {
	runner CommandRunner
	binary string
}

func NewPopplerExtractor(runner CommandRunner) *PopplerExtractor {
	if runner == nil {
		runner = execRunner{}
	}
	return &PopplerExtractor{runner: runner, binary: "pdftotext"}
}

func (e *PopplerExtractor) Extract(ctx context.Context, doc domain.Document) ([]domain.Segment, error) {
	tmp, err := os.CreateTemp("", "docqa-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc.Data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, e.binary, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, doc.Name, err)
	}

	segments := splitPages(string(out))
	if len(segments) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.Name, domain.ErrEmptyDocument)
	}
	return segments, nil
}

// splitPages splits pdftotext output on form feeds, which it emits after every page.
func splitPages(out string) []domain.Segment {
	var segments []domain.Segment
	for i, page := range strings.Split(out, "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		segments = append(segments, domain.Segment{Page: i + 1, Text: page})
	}
	return segments
}

// InstallInstructions explains how to get pdftotext.
func InstallInstructions() string {
	return `pdftotext is provided by poppler:
  macOS:  brew install poppler
  Debian: apt install poppler-utils`
}
