package cli

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"docqa/internal/adapter/extractor"
	"docqa/internal/domain"
	"docqa/internal/usecase"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>",
	Short: "Index a PDF document, replacing the current index",
	Long: `Extract the text of a PDF, split it into overlapping chunks, embed them
and store the result in the workspace index (.docqa/index). Any previously
indexed document is discarded first.

Examples:
  docqa ingest report.pdf
  docqa ingest --dir ~/papers paper.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg.Workspace.InMemory {
		return fmt.Errorf("workspace.in_memory is set: the index would be lost on exit, use 'docqa chat' and /ingest instead")
	}

	p, err := buildPipeline(cmd.Context(), cfg, GetRootDir(), logger)
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Printf("Ingesting %s...\n", args[0])
	progress := newIngestProgress()

	result, err := p.Ingest(cmd.Context(), args[0], progress.update)
	progress.finish()
	if err != nil {
		if errors.Is(err, domain.ErrExtraction) && cfg.Ingest.Extractor == "pdftotext" {
			return fmt.Errorf("ingestion failed: %w\n%s", err, extractor.InstallInstructions())
		}
		if errors.Is(err, domain.ErrEmptyDocument) {
			return fmt.Errorf("ingestion failed: %w (scanned PDFs need OCR first)", err)
		}
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\nDocument processing complete. The system is ready for queries.\n")
	fmt.Printf("  Document:  %s\n", result.Document)
	fmt.Printf("  Pages:     %d\n", result.Pages)
	fmt.Printf("  Chunks:    %d\n", result.Chunks)
	fmt.Printf("  Model:     %s (%d dims)\n", result.Info.EmbeddingModel, result.Info.Dimension)
	fmt.Printf("  Took:      %s\n", formatDuration(result.Duration))
	fmt.Printf("\nIndex stored at: %s\n", cfg.IndexDBPath(GetRootDir()))
	return nil
}

// ingestProgress renders the embedding stage as a progress bar and the
// other stages as single lines.
type ingestProgress struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	started time.Time
}

func newIngestProgress() *ingestProgress {
	return &ingestProgress{}
}

func (p *ingestProgress) update(stage usecase.Stage, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch stage {
	case usecase.StageExtract:
		if total > 0 {
			fmt.Printf("Extracted text from %d pages\n", total)
		}
	case usecase.StageChunk:
		if total > 0 {
			fmt.Printf("Split into %d chunks\n", total)
		}
	case usecase.StageEmbed:
		if p.bar == nil {
			p.started = time.Now()
			p.bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		p.bar.Set(done)

		if done > 0 && done < total {
			elapsed := time.Since(p.started)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				p.bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	case usecase.StageIndex:
		if done == total {
			fmt.Println("Index written")
		}
	}
}

func (p *ingestProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Finish()
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
