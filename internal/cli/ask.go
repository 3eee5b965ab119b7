package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askSources bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question from the indexed document",
	Long: `Retrieve the most relevant passages of the indexed document and ask the
generative model to answer from them only. When the document does not
contain the answer the reply is:

  I could not find this information in the document.

Examples:
  docqa ask "What is the capital of France?"
  docqa ask --sources "Who wrote the report?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "print the passages the answer was drawn from")
}

func runAsk(cmd *cobra.Command, args []string) error {
	p, err := openReadyPipeline(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	question := strings.Join(args, " ")
	answer, err := p.AnswerWithSources(cmd.Context(), nil, question)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	fmt.Println(answer.Text)

	if askSources && len(answer.Sources) > 0 {
		fmt.Println()
		for i, s := range answer.Sources {
			fmt.Printf("--- [%d] page %d (score: %.2f) ---\n", i+1, s.Chunk.Page, s.Score)
			fmt.Println(preview(s.Chunk.Text, 300))
		}
	}
	return nil
}

// preview shortens text to at most n runes for terminal display.
func preview(text string, n int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
