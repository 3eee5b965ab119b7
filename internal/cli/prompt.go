package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var promptOutput string

var promptCmd = &cobra.Command{
	Use:   "prompt <question>",
	Short: "Print the prompt that would be sent to the model",
	Long: `Retrieve and pack context for a question and render the answer prompt
without calling the model. Useful for debugging retrieval or for running the
prompt against another model by hand.

Examples:
  docqa prompt "What is the capital of France?"
  docqa prompt "Summarise chapter 2" -o prompt.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptOutput, "output", "o", "", "output file (default: stdout)")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	p, err := openReadyPipeline(cmd.Context())
	if err != nil {
		return err
	}
	defer p.Close()

	prompt, err := p.Prompt(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}

	if promptOutput != "" {
		if err := os.WriteFile(promptOutput, []byte(prompt), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("Prompt written to %s\n", promptOutput)
		return nil
	}

	fmt.Println(prompt)
	return nil
}
