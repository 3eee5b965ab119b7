package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"docqa/internal/usecase"

	"github.com/spf13/cobra"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the passages a question would be answered from",
	Long: `Run retrieval only (embedding similarity followed by MMR diversification)
and print the selected chunks without calling the generative model.

Examples:
  docqa search "capital of France"
  docqa search "revenue 2023" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	p, err := openReadyPipeline(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	query := strings.Join(args, " ")
	chunks, err := p.Retrieve(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results := usecase.ToResults(chunks)

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), query)
	for i, r := range results {
		fmt.Printf("--- [%d] page %d, chars %d-%d (score: %.2f) ---\n", i+1, r.Page, r.Start, r.End, r.Score)
		fmt.Println(preview(r.Text, 500))
		fmt.Println()
	}
	return nil
}
